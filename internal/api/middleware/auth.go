// auth.go — middleware проверки админ-ключа для API HashiRWA.
// Ключ передаётся заголовком X-Admin-Key (или параметром k — для UI-форм).
// Сравнение на точное равенство через auth.Authorizer; при несовпадении — 403.
package middleware

import (
	"context"
	"net/http"

	apierrors "github.com/bigkaa/hashirwa/internal/api/errors"
	"github.com/bigkaa/hashirwa/internal/auth"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyAuthorized — результат проверки админ-ключа в контексте запроса.
	ContextKeyAuthorized contextKey = "admin_authorized"
	// AdminKeyHeader — заголовок с админ-ключом.
	AdminKeyHeader = "X-Admin-Key"
	// AdminKeyQueryParam — query-параметр с админ-ключом (UI-формы).
	AdminKeyQueryParam = "k"
)

// AdminKeyFromRequest извлекает предъявленный админ-ключ из запроса:
// сначала заголовок X-Admin-Key, затем query-параметр k.
func AdminKeyFromRequest(r *http.Request) string {
	if key := r.Header.Get(AdminKeyHeader); key != "" {
		return key
	}
	return r.URL.Query().Get(AdminKeyQueryParam)
}

// Authorized возвращает результат проверки админ-ключа из контекста запроса.
func Authorized(ctx context.Context) bool {
	ok, _ := ctx.Value(ContextKeyAuthorized).(bool)
	return ok
}

// AdminAuth возвращает middleware, требующий валидный админ-ключ.
// Применяется к admin-маршрутам API; при неверном ключе — 403 без изменения состояния.
func AdminAuth(authorizer *auth.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authorizer.Authorize(AdminKeyFromRequest(r)) {
				apierrors.Forbidden(w, "Неверный или отсутствующий админ-ключ")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAuthorized, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
