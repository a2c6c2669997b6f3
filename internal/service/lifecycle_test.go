package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/hashirwa/internal/domain/model"
	"github.com/bigkaa/hashirwa/internal/repository"
)

// --- Mock store ---

// mockStore — мок RecordStore для unit-тестов.
type mockStore struct {
	loadAllFn func(ctx context.Context) ([]*model.Record, error)
	saveAllFn func(ctx context.Context, records []*model.Record) error
	getByIDFn func(ctx context.Context, id int64) (*model.Record, error)
	appendFn  func(ctx context.Context, rec *model.Record) error
	updateFn  func(ctx context.Context, rec *model.Record) error

	updateStatusFn func(ctx context.Context, id int64, from, to model.Status, updatedAt string) (*model.Record, error)
}

func (m *mockStore) LoadAll(ctx context.Context) ([]*model.Record, error) {
	if m.loadAllFn != nil {
		return m.loadAllFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) SaveAll(ctx context.Context, records []*model.Record) error {
	if m.saveAllFn != nil {
		return m.saveAllFn(ctx, records)
	}
	return nil
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*model.Record, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockStore) Append(ctx context.Context, rec *model.Record) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, rec)
	}
	return nil
}

func (m *mockStore) Update(ctx context.Context, rec *model.Record) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, rec)
	}
	return nil
}

func (m *mockStore) UpdateStatus(ctx context.Context, id int64, from, to model.Status, updatedAt string) (*model.Record, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, from, to, updatedAt)
	}
	// По умолчанию — поведение реального хранилища поверх getByIDFn.
	rec, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != from {
		return nil, repository.ErrStaleStatus
	}
	rec.Status = to
	rec.Timestamps.UpdatedAt = updatedAt
	return rec, nil
}

// fixedAlloc — аллокатор с предопределённой последовательностью id.
type fixedAlloc struct {
	ids  []int64
	next int
}

func (a *fixedAlloc) Next() int64 {
	if a.next >= len(a.ids) {
		return a.ids[len(a.ids)-1]
	}
	id := a.ids[a.next]
	a.next++
	return id
}

// validInput возвращает заполненный ввод формы.
func validInput() model.FormInput {
	return model.FormInput{
		ProducerName: "Test Farm",
		Prefecture:   "静岡県",
		Product:      "Rice",
		LotSize:      "100kg",
		HarvestDate:  "2024-09-30",
	}
}

// newTestLifecycle создаёт Lifecycle-сервис с фиксированным временем.
func newTestLifecycle(store repository.RecordStore, alloc *fixedAlloc) *LifecycleService {
	svc := NewLifecycleService(store, alloc, nil, slog.Default())
	svc.now = func() time.Time {
		return time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC)
	}
	return svc
}

// --- Тесты Submit ---

// TestLifecycleService_Submit проверяет создание записи: статус pending,
// совпадающие метки времени, вычисленный proof, константы метаданных.
func TestLifecycleService_Submit(t *testing.T) {
	var saved *model.Record
	store := &mockStore{
		appendFn: func(_ context.Context, rec *model.Record) error {
			saved = rec
			return nil
		},
	}

	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{101}})

	rec, err := svc.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Submit ошибка: %v", err)
	}

	if saved == nil {
		t.Fatal("Append не вызван")
	}
	if rec.ID != 101 {
		t.Errorf("ID = %d, ожидался 101", rec.ID)
	}
	if rec.Status != model.StatusPending {
		t.Errorf("Status = %s, ожидался pending", rec.Status)
	}
	if rec.Timestamps.CreatedAt != rec.Timestamps.UpdatedAt {
		t.Errorf("CreatedAt = %s, UpdatedAt = %s, ожидалось совпадение",
			rec.Timestamps.CreatedAt, rec.Timestamps.UpdatedAt)
	}
	if rec.Timestamps.CreatedAt != "2024-11-01T10:00:00Z" {
		t.Errorf("CreatedAt = %s, ожидался 2024-11-01T10:00:00Z", rec.Timestamps.CreatedAt)
	}
	if len(rec.Proof.Hash) != 64 {
		t.Errorf("len(Hash) = %d, ожидался 64", len(rec.Proof.Hash))
	}
	if rec.Metadata.RWAVersion != 1 {
		t.Errorf("RWAVersion = %d, ожидался 1", rec.Metadata.RWAVersion)
	}
	if rec.Metadata.Standard != "hashirwa-demo" {
		t.Errorf("Standard = %s, ожидался hashirwa-demo", rec.Metadata.Standard)
	}
	if rec.Metadata.Jurisdiction.Country != "Japan" {
		t.Errorf("Country = %s, ожидалась Japan", rec.Metadata.Jurisdiction.Country)
	}
	if rec.Metadata.Asset.Category != "Agriculture" {
		t.Errorf("Category = %s, ожидалась Agriculture", rec.Metadata.Asset.Category)
	}
}

// TestLifecycleService_Submit_Validation проверяет ErrValidation
// для каждого пропущенного обязательного поля.
func TestLifecycleService_Submit_Validation(t *testing.T) {
	appendCalled := false
	store := &mockStore{
		appendFn: func(_ context.Context, _ *model.Record) error {
			appendCalled = true
			return nil
		},
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	cases := []struct {
		name string
		mut  func(in *model.FormInput)
	}{
		{"producer_name", func(in *model.FormInput) { in.ProducerName = "" }},
		{"prefecture", func(in *model.FormInput) { in.Prefecture = "" }},
		{"product", func(in *model.FormInput) { in.Product = "" }},
		{"lot_size", func(in *model.FormInput) { in.LotSize = "" }},
		{"harvest_date", func(in *model.FormInput) { in.HarvestDate = "   " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mut(&input)

			_, err := svc.Submit(context.Background(), input)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, ожидался ErrValidation", err)
			}
		})
	}

	if appendCalled {
		t.Error("Append вызван при ошибке валидации")
	}
}

// TestLifecycleService_Submit_TrimsInput проверяет нормализацию пробелов.
func TestLifecycleService_Submit_TrimsInput(t *testing.T) {
	store := &mockStore{}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	input := validInput()
	input.ProducerName = "  Test Farm  "
	input.Notes = " заметка "

	rec, err := svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("Submit ошибка: %v", err)
	}

	if rec.Metadata.Issuer != "Test Farm" {
		t.Errorf("Issuer = %q, ожидался %q", rec.Metadata.Issuer, "Test Farm")
	}
	if rec.Metadata.Notes != "заметка" {
		t.Errorf("Notes = %q, ожидалась %q", rec.Metadata.Notes, "заметка")
	}
}

// TestLifecycleService_Submit_RetryOnConflict проверяет повторные попытки
// выделения id при коллизии.
func TestLifecycleService_Submit_RetryOnConflict(t *testing.T) {
	attempts := 0
	store := &mockStore{
		appendFn: func(_ context.Context, rec *model.Record) error {
			attempts++
			if rec.ID != 3 {
				return repository.ErrConflict
			}
			return nil
		},
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1, 2, 3}})

	rec, err := svc.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Submit ошибка: %v", err)
	}

	if attempts != 3 {
		t.Errorf("attempts = %d, ожидался 3", attempts)
	}
	if rec.ID != 3 {
		t.Errorf("ID = %d, ожидался 3", rec.ID)
	}
}

// TestLifecycleService_Submit_ConflictExhausted проверяет ошибку после
// исчерпания попыток.
func TestLifecycleService_Submit_ConflictExhausted(t *testing.T) {
	store := &mockStore{
		appendFn: func(_ context.Context, _ *model.Record) error {
			return repository.ErrConflict
		},
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1, 1, 1}})

	_, err := svc.Submit(context.Background(), validInput())
	if err == nil {
		t.Fatal("Submit успешен, ожидалась ошибка после исчерпания попыток")
	}
}

// --- Тесты переходов статуса ---

// pendingRecord возвращает запись в статусе pending.
func pendingRecord(id int64) *model.Record {
	return &model.Record{
		ID:     id,
		Status: model.StatusPending,
		Timestamps: model.Timestamps{
			CreatedAt: "2024-10-01T00:00:00Z",
			UpdatedAt: "2024-10-01T00:00:00Z",
		},
	}
}

// TestLifecycleService_Approve проверяет переход pending → approved
// с обновлением updated_at.
func TestLifecycleService_Approve(t *testing.T) {
	var gotFrom, gotTo model.Status
	store := &mockStore{
		getByIDFn: func(_ context.Context, id int64) (*model.Record, error) {
			return pendingRecord(id), nil
		},
	}
	store.updateStatusFn = func(ctx context.Context, id int64, from, to model.Status, updatedAt string) (*model.Record, error) {
		gotFrom, gotTo = from, to
		rec := pendingRecord(id)
		rec.Status = to
		rec.Timestamps.UpdatedAt = updatedAt
		return rec, nil
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	rec, err := svc.Approve(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("Approve ошибка: %v", err)
	}

	if gotFrom != model.StatusPending || gotTo != model.StatusApproved {
		t.Fatalf("UpdateStatus(%s → %s), ожидался pending → approved", gotFrom, gotTo)
	}
	if rec.Status != model.StatusApproved {
		t.Errorf("Status = %s, ожидался approved", rec.Status)
	}
	if rec.Timestamps.UpdatedAt != "2024-11-01T10:00:00Z" {
		t.Errorf("UpdatedAt = %s, ожидался 2024-11-01T10:00:00Z", rec.Timestamps.UpdatedAt)
	}
	if rec.Timestamps.CreatedAt != "2024-10-01T00:00:00Z" {
		t.Errorf("CreatedAt = %s, изменился при переходе", rec.Timestamps.CreatedAt)
	}
}

// TestLifecycleService_Reject проверяет переход pending → rejected.
func TestLifecycleService_Reject(t *testing.T) {
	store := &mockStore{
		getByIDFn: func(_ context.Context, id int64) (*model.Record, error) {
			return pendingRecord(id), nil
		},
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	rec, err := svc.Reject(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("Reject ошибка: %v", err)
	}
	if rec.Status != model.StatusRejected {
		t.Errorf("Status = %s, ожидался rejected", rec.Status)
	}
}

// TestLifecycleService_Transition_Unauthorized проверяет, что
// неавторизованный вызов не трогает хранилище.
func TestLifecycleService_Transition_Unauthorized(t *testing.T) {
	getCalled := false
	store := &mockStore{
		getByIDFn: func(_ context.Context, id int64) (*model.Record, error) {
			getCalled = true
			return pendingRecord(id), nil
		},
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	_, err := svc.Approve(context.Background(), 5, false)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, ожидался ErrForbidden", err)
	}
	if getCalled {
		t.Error("GetByID вызван при неавторизованном запросе")
	}
}

// TestLifecycleService_Transition_NotFound проверяет ErrNotFound
// для неизвестного id.
func TestLifecycleService_Transition_NotFound(t *testing.T) {
	store := &mockStore{}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	_, err := svc.Approve(context.Background(), 999999, true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, ожидался ErrNotFound", err)
	}
}

// TestLifecycleService_Transition_Idempotent проверяет идемпотентный
// повтор с тем же целевым статусом.
func TestLifecycleService_Transition_Idempotent(t *testing.T) {
	updateCalled := false
	store := &mockStore{
		getByIDFn: func(_ context.Context, id int64) (*model.Record, error) {
			rec := pendingRecord(id)
			rec.Status = model.StatusApproved
			rec.Timestamps.UpdatedAt = "2024-10-15T00:00:00Z"
			return rec, nil
		},
		updateStatusFn: func(_ context.Context, _ int64, _, _ model.Status, _ string) (*model.Record, error) {
			updateCalled = true
			return nil, nil
		},
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	rec, err := svc.Approve(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("Approve ошибка: %v", err)
	}
	if updateCalled {
		t.Error("UpdateStatus вызван при идемпотентном повторе")
	}
	if rec.Timestamps.UpdatedAt != "2024-10-15T00:00:00Z" {
		t.Errorf("UpdatedAt = %s, изменился при повторе", rec.Timestamps.UpdatedAt)
	}
}

// TestLifecycleService_Transition_AlreadyReviewed проверяет запрет
// перехода между терминальными статусами.
func TestLifecycleService_Transition_AlreadyReviewed(t *testing.T) {
	store := &mockStore{
		getByIDFn: func(_ context.Context, id int64) (*model.Record, error) {
			rec := pendingRecord(id)
			rec.Status = model.StatusRejected
			return rec, nil
		},
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	_, err := svc.Approve(context.Background(), 5, true)
	if !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("err = %v, ожидался ErrAlreadyReviewed", err)
	}
}

// TestLifecycleService_Transition_ConcurrentConflict воспроизводит гонку
// двух admin-действий: оба читают запись в статусе pending до того, как
// первое обновление записано. Побеждает первый переход; второй обязан
// получить ErrAlreadyReviewed, а не молча перезаписать результат.
func TestLifecycleService_Transition_ConcurrentConflict(t *testing.T) {
	status := model.StatusPending // текущее состояние хранилища
	reads := 0
	store := &mockStore{}
	store.getByIDFn = func(_ context.Context, id int64) (*model.Record, error) {
		reads++
		rec := pendingRecord(id)
		if reads <= 2 {
			// Оба запроса прочитали запись до первого обновления.
			return rec, nil
		}
		rec.Status = status
		return rec, nil
	}
	store.updateStatusFn = func(_ context.Context, id int64, from, to model.Status, updatedAt string) (*model.Record, error) {
		if status != from {
			return nil, repository.ErrStaleStatus
		}
		status = to
		rec := pendingRecord(id)
		rec.Status = to
		rec.Timestamps.UpdatedAt = updatedAt
		return rec, nil
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	rec, err := svc.Approve(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("Approve ошибка: %v", err)
	}
	if rec.Status != model.StatusApproved {
		t.Fatalf("Status = %s, ожидался approved", rec.Status)
	}

	_, err = svc.Reject(context.Background(), 5, true)
	if !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("err = %v, ожидался ErrAlreadyReviewed", err)
	}
	if status != model.StatusApproved {
		t.Errorf("статус в хранилище = %s, перезаписан проигравшим переходом", status)
	}
}

// TestLifecycleService_Transition_ConcurrentIdempotent проверяет гонку
// двух одинаковых переходов: проигравший видит целевой статус и
// завершается идемпотентным успехом, а не конфликтом.
func TestLifecycleService_Transition_ConcurrentIdempotent(t *testing.T) {
	reads := 0
	store := &mockStore{}
	store.getByIDFn = func(_ context.Context, id int64) (*model.Record, error) {
		reads++
		rec := pendingRecord(id)
		if reads == 1 {
			// Чтение до обновления конкурентом.
			return rec, nil
		}
		rec.Status = model.StatusApproved
		return rec, nil
	}
	store.updateStatusFn = func(_ context.Context, _ int64, _, _ model.Status, _ string) (*model.Record, error) {
		return nil, repository.ErrStaleStatus
	}
	svc := newTestLifecycle(store, &fixedAlloc{ids: []int64{1}})

	rec, err := svc.Approve(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("Approve ошибка: %v", err)
	}
	if rec.Status != model.StatusApproved {
		t.Errorf("Status = %s, ожидался approved", rec.Status)
	}
}

// TestLifecycleService_Transition_CacheInvalidated проверяет сброс кэша
// после перехода статуса.
func TestLifecycleService_Transition_CacheInvalidated(t *testing.T) {
	store := &mockStore{
		getByIDFn: func(_ context.Context, id int64) (*model.Record, error) {
			return pendingRecord(id), nil
		},
	}
	cache := NewCacheService(10, time.Minute)
	cache.Set(5, pendingRecord(5))

	svc := NewLifecycleService(store, &fixedAlloc{ids: []int64{1}}, cache, slog.Default())

	if _, err := svc.Approve(context.Background(), 5, true); err != nil {
		t.Fatalf("Approve ошибка: %v", err)
	}

	if _, ok := cache.Get(5); ok {
		t.Error("запись осталась в кэше после перехода статуса")
	}
}
