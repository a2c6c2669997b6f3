// memory.go — in-memory реализация RecordStore.
// Используется в тестах и как backend "memory" (состояние живёт
// только в памяти процесса). Семантика идентична файловому хранилищу.
package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/bigkaa/hashirwa/internal/domain/model"
)

// MemoryStore — RecordStore в памяти процесса.
type MemoryStore struct {
	mu    sync.Mutex
	items []*model.Record
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadAll возвращает копию среза записей в порядке вставки.
func (s *MemoryStore) LoadAll(_ context.Context) ([]*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Record, len(s.items))
	copy(out, s.items)
	return out, nil
}

// SaveAll заменяет содержимое хранилища полным снапшотом.
func (s *MemoryStore) SaveAll(_ context.Context, records []*model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]*model.Record, len(records))
	copy(s.items, records)
	return nil
}

// GetByID возвращает запись по id или ErrNotFound.
// Возвращается копия: мутации результата не затрагивают хранилище,
// как и в файловой реализации.
func (s *MemoryStore) GetByID(_ context.Context, id int64) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.items {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// Append добавляет запись. ErrConflict при дубликате id.
func (s *MemoryStore) Append(_ context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == rec.ID {
			return fmt.Errorf("%w: id=%d", ErrConflict, rec.ID)
		}
	}
	s.items = append(s.items, rec)
	return nil
}

// Update заменяет существующую запись по id.
func (s *MemoryStore) Update(_ context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if existing.ID == rec.ID {
			s.items[i] = rec
			return nil
		}
	}
	return fmt.Errorf("%w: id=%d", ErrNotFound, rec.ID)
}

// UpdateStatus атомарно переводит запись from → to под мьютексом.
func (s *MemoryStore) UpdateStatus(_ context.Context, id int64, from, to model.Status, updatedAt string) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if existing.ID != id {
			continue
		}
		if existing.Status != from {
			return nil, fmt.Errorf("%w: id=%d, статус %s", ErrStaleStatus, id, existing.Status)
		}
		cp := *existing
		cp.Status = to
		cp.Timestamps.UpdatedAt = updatedAt
		s.items[i] = &cp
		out := cp
		return &out, nil
	}
	return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
}

// CheckReady — in-memory хранилище всегда готово.
func (s *MemoryStore) CheckReady() (status, message string) {
	return "ok", ""
}
