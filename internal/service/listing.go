// listing.go — сервис выборки записей для отображения.
// Чистые чтения над снапшотом хранилища: фильтрация по статусу,
// сортировка, точечный lookup через LRU-кэш.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bigkaa/hashirwa/internal/domain/model"
	"github.com/bigkaa/hashirwa/internal/repository"
)

// ListingService — выборка записей для marketplace и admin-панели.
type ListingService struct {
	store  repository.RecordStore
	cache  *CacheService
	logger *slog.Logger
}

// NewListingService создаёт Listing-сервис.
func NewListingService(
	store repository.RecordStore,
	cache *CacheService,
	logger *slog.Logger,
) *ListingService {
	return &ListingService{
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("component", "listing_service")),
	}
}

// ListPending возвращает записи в статусе pending,
// отсортированные по created_at по возрастанию (очередь review).
func (s *ListingService) ListPending(ctx context.Context) ([]*model.Record, error) {
	records, err := s.listByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return timestampLess(records[i].Timestamps.CreatedAt, records[j].Timestamps.CreatedAt)
	})
	return records, nil
}

// ListApproved возвращает записи в статусе approved,
// отсортированные по updated_at по убыванию (свежие — первыми).
func (s *ListingService) ListApproved(ctx context.Context) ([]*model.Record, error) {
	records, err := s.listByStatus(ctx, model.StatusApproved)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return timestampLess(records[j].Timestamps.UpdatedAt, records[i].Timestamps.UpdatedAt)
	})
	return records, nil
}

// timestampLess сравнивает две метки времени RFC 3339 хронологически.
// Сервис пишет метки в UTC, но файл хранилища правится руками — метка
// со смещением зоны (+09:00) тоже должна сортироваться корректно.
// Неразбираемые значения сравниваются как строки.
func timestampLess(a, b string) bool {
	ta, errA := time.Parse(model.TimestampLayout, a)
	tb, errB := time.Parse(model.TimestampLayout, b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}

// GetByID возвращает запись по id. Сначала проверяет LRU-кэш,
// при промахе читает из хранилища и кэширует результат.
func (s *ListingService) GetByID(ctx context.Context, id int64) (*model.Record, error) {
	if s.cache != nil {
		if rec, ok := s.cache.Get(id); ok {
			return rec, nil
		}
	}

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("загрузка записи: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(id, rec)
	}
	return rec, nil
}

// listByStatus возвращает записи с указанным статусом в порядке хранилища.
func (s *ListingService) listByStatus(ctx context.Context, status model.Status) ([]*model.Record, error) {
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("чтение хранилища: %w", err)
	}
	var result []*model.Record
	for _, rec := range all {
		if rec.Status == status {
			result = append(result, rec)
		}
	}
	return result, nil
}
