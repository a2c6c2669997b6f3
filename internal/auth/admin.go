// Пакет auth — авторизация администратора HashiRWA.
// Один общий секретный ключ, сравнение на точное равенство —
// хеширование, rate limiting и сессии сознательно вне рамок демо.
package auth

// Authorizer проверяет предъявленный админ-ключ.
// Булев результат — единственный интерфейс, который потребляет
// Lifecycle-сервис.
type Authorizer struct {
	key string
}

// New создаёт Authorizer с указанным ключом.
func New(key string) *Authorizer {
	return &Authorizer{key: key}
}

// Authorize возвращает true, если кандидат совпадает с ключом.
// Пустой кандидат никогда не авторизуется, даже при пустом ключе.
func (a *Authorizer) Authorize(candidate string) bool {
	return candidate != "" && candidate == a.key
}
