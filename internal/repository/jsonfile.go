// jsonfile.go — файловая реализация RecordStore.
// Хранилище — один UTF-8 JSON-файл вида {"items": [...]} с отступами,
// не-ASCII символы не экранируются (человекочитаемый формат).
// Все операции выполняются под мьютексом: цикл read-modify-write
// атомарен относительно других операций этого процесса.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bigkaa/hashirwa/internal/domain/model"
)

// snapshot — формат файла хранилища.
type snapshot struct {
	Items []*model.Record `json:"items"`
}

// JSONFileStore — RecordStore поверх одного JSON-файла.
type JSONFileStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONFileStore создаёт файловое хранилище по указанному пути.
// Файл создаётся лениво при первой записи; отсутствующий файл
// эквивалентен пустому хранилищу.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	if path == "" {
		return nil, errors.New("путь к файлу хранилища не задан")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("создание каталога хранилища: %w", err)
		}
	}
	return &JSONFileStore{path: path}, nil
}

// LoadAll возвращает все записи в порядке вставки.
func (s *JSONFileStore) LoadAll(_ context.Context) ([]*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

// SaveAll перезаписывает файл полным снапшотом.
func (s *JSONFileStore) SaveAll(_ context.Context, records []*model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(&snapshot{Items: records})
}

// GetByID возвращает запись по id или ErrNotFound.
func (s *JSONFileStore) GetByID(_ context.Context, id int64) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, rec := range snap.Items {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

// Append добавляет запись в конец файла.
func (s *JSONFileStore) Append(_ context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read()
	if err != nil {
		return err
	}
	for _, existing := range snap.Items {
		if existing.ID == rec.ID {
			return fmt.Errorf("%w: id=%d", ErrConflict, rec.ID)
		}
	}
	snap.Items = append(snap.Items, rec)
	return s.write(snap)
}

// Update заменяет существующую запись, сохраняя её позицию в файле.
func (s *JSONFileStore) Update(_ context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read()
	if err != nil {
		return err
	}
	for i, existing := range snap.Items {
		if existing.ID == rec.ID {
			snap.Items[i] = rec
			return s.write(snap)
		}
	}
	return fmt.Errorf("%w: id=%d", ErrNotFound, rec.ID)
}

// UpdateStatus атомарно переводит запись from → to. Проверка статуса и
// запись файла выполняются под одним захватом мьютекса: конкурентный
// переход, успевший раньше, даёт ErrStaleStatus, а не потерю обновления.
func (s *JSONFileStore) UpdateStatus(_ context.Context, id int64, from, to model.Status, updatedAt string) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	for i, existing := range snap.Items {
		if existing.ID != id {
			continue
		}
		if existing.Status != from {
			return nil, fmt.Errorf("%w: id=%d, статус %s", ErrStaleStatus, id, existing.Status)
		}
		cp := *existing
		cp.Status = to
		cp.Timestamps.UpdatedAt = updatedAt
		snap.Items[i] = &cp
		if err := s.write(snap); err != nil {
			return nil, err
		}
		out := cp
		return &out, nil
	}
	return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
}

// CheckReady проверяет доступность файла хранилища для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
func (s *JSONFileStore) CheckReady() (status, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.read(); err != nil {
		return "fail", err.Error()
	}
	return "ok", ""
}

// read читает снапшот из файла. Вызывается под мьютексом.
func (s *JSONFileStore) read() (*snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &snapshot{}, nil
		}
		return nil, fmt.Errorf("чтение файла хранилища: %w", err)
	}
	snap := &snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("разбор файла хранилища: %w", err)
	}
	return snap, nil
}

// write атомарно записывает снапшот: временный файл + rename.
// Вызывается под мьютексом.
func (s *JSONFileStore) write(snap *snapshot) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("сериализация снапшота: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("запись файла хранилища: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("замена файла хранилища: %w", err)
	}
	return nil
}
