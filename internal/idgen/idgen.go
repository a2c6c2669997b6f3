// Пакет idgen — выделение уникальных идентификаторов записей.
//
// Исходное демо выводило id из wall-clock времени с риском коллизий
// при быстрых последовательных вызовах. Здесь уникальность структурная:
// монотонный счётчик (по умолчанию) или случайный 63-битный id на базе UUID.
package idgen

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// Allocator — абстракция выделения идентификаторов записей.
// Инжектируется в Lifecycle-сервис.
type Allocator interface {
	// Next возвращает следующий уникальный идентификатор.
	Next() int64
}

// Sequence — монотонный счётчик идентификаторов.
// Потокобезопасен. Засевается значением выше максимального id,
// уже присутствующего в хранилище.
type Sequence struct {
	mu   sync.Mutex
	next int64
}

// NewSequence создаёт счётчик, стартующий с seed+1.
// seed — максимальный существующий id (0 для пустого хранилища).
func NewSequence(seed int64) *Sequence {
	return &Sequence{next: seed}
}

// Next возвращает следующий идентификатор.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// Random — случайный аллокатор на базе UUID.
// Берёт первые 8 байт случайного UUID (v4) и сбрасывает знаковый бит —
// id всегда положительный. Вероятность коллизии пренебрежимо мала (63 бита).
type Random struct{}

// NewRandom создаёт случайный аллокатор.
func NewRandom() *Random {
	return &Random{}
}

// Next возвращает случайный положительный 63-битный идентификатор.
func (r *Random) Next() int64 {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8])
	id := int64(n &^ (1 << 63))
	if id == 0 {
		// Нулевой id зарезервирован как «не назначен».
		return r.Next()
	}
	return id
}
