// lifecycle.go — жизненный цикл записей: submit и admin-переходы статуса.
// Конечный автомат: pending → approved | rejected, оба конечных статуса
// терминальны. Proof вычисляется один раз при создании и далее неизменен.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/hashirwa/internal/domain/model"
	"github.com/bigkaa/hashirwa/internal/idgen"
	"github.com/bigkaa/hashirwa/internal/proof"
	"github.com/bigkaa/hashirwa/internal/repository"
)

// Ошибки сервисного слоя.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrValidation — отсутствует или пусто обязательное поле формы.
	ErrValidation = errors.New("ошибка валидации")
	// ErrForbidden — действие требует авторизации администратора.
	ErrForbidden = errors.New("требуется авторизация администратора")
	// ErrAlreadyReviewed — запись уже прошла review, повторный переход запрещён.
	ErrAlreadyReviewed = errors.New("запись уже прошла review")
)

// Константы метаданных RWA-записи.
const (
	// metadataVersion — версия формата метаданных.
	metadataVersion = 1
	// metadataStandard — тег стандарта.
	metadataStandard = "hashirwa-demo"
	// metadataCountry — страна юрисдикции.
	metadataCountry = "Japan"
	// metadataCategory — категория актива.
	metadataCategory = "Agriculture"
)

// Prometheus-метрики жизненного цикла.
var (
	submissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rwa_submissions_total",
		Help: "Общее количество принятых submission'ов.",
	})
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rwa_transitions_total",
		Help: "Общее количество переходов статуса (по целевому статусу).",
	}, []string{"status"})
)

// LifecycleService — создание записей и admin-переходы статуса.
// Зависит только от RecordStore, аллокатора id и кэша — конкретное
// хранилище инжектируется снаружи.
type LifecycleService struct {
	store  repository.RecordStore
	alloc  idgen.Allocator
	cache  *CacheService
	logger *slog.Logger
	// now — источник времени, подменяется в тестах.
	now func() time.Time
}

// NewLifecycleService создаёт Lifecycle-сервис.
func NewLifecycleService(
	store repository.RecordStore,
	alloc idgen.Allocator,
	cache *CacheService,
	logger *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		store:  store,
		alloc:  alloc,
		cache:  cache,
		logger: logger.With(slog.String("component", "lifecycle_service")),
		now:    time.Now,
	}
}

// Submit валидирует входные данные формы, строит метаданные, вычисляет
// proof, назначает id и добавляет запись в хранилище в статусе pending.
// created_at и updated_at при создании совпадают.
func (s *LifecycleService) Submit(ctx context.Context, input model.FormInput) (*model.Record, error) {
	trimInput(&input)

	if err := validateInput(&input); err != nil {
		return nil, err
	}

	meta := buildMetadata(&input)
	pf, err := proof.Compute(&meta)
	if err != nil {
		// Защитный контракт: валидированная модель сюда не приводит.
		return nil, fmt.Errorf("вычисление proof: %w", err)
	}

	now := s.now().UTC().Format(model.TimestampLayout)
	rec := &model.Record{
		Status:   model.StatusPending,
		Metadata: meta,
		Proof:    pf,
		Timestamps: model.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	// До трёх попыток на случай коллизии случайного аллокатора.
	const maxAttempts = 3
	for attempt := 1; ; attempt++ {
		rec.ID = s.alloc.Next()
		err = s.store.Append(ctx, rec)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrConflict) || attempt == maxAttempts {
			return nil, fmt.Errorf("сохранение записи: %w", err)
		}
	}

	submissionsTotal.Inc()
	s.logger.Info("Submission принят",
		slog.Int64("id", rec.ID),
		slog.String("issuer", rec.Metadata.Issuer),
		slog.String("proof_hash", rec.Proof.Hash),
	)
	return rec, nil
}

// Approve переводит запись pending → approved.
// authorized — результат проверки админ-ключа (auth.Authorizer).
func (s *LifecycleService) Approve(ctx context.Context, id int64, authorized bool) (*model.Record, error) {
	return s.transition(ctx, id, model.StatusApproved, authorized)
}

// Reject переводит запись pending → rejected.
func (s *LifecycleService) Reject(ctx context.Context, id int64, authorized bool) (*model.Record, error) {
	return s.transition(ctx, id, model.StatusRejected, authorized)
}

// transition выполняет переход статуса с обновлением updated_at.
// Неавторизованный вызов не меняет состояние (ErrForbidden).
// Неизвестный id — ErrNotFound (исходное демо молча игнорировало такой
// вызов; здесь поведение ужесточено до явной ошибки).
// Повторный вызов с тем же целевым статусом идемпотентен; переход между
// терминальными статусами запрещён (ErrAlreadyReviewed).
// Сам переход — условное обновление pending → target в хранилище:
// из двух конкурентных admin-действий побеждает первое, второе
// получает ErrAlreadyReviewed (либо идемпотентный успех при совпадении
// целевого статуса), а не молча перезаписывает результат.
func (s *LifecycleService) transition(ctx context.Context, id int64, target model.Status, authorized bool) (*model.Record, error) {
	if !authorized {
		return nil, ErrForbidden
	}

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("загрузка записи: %w", err)
	}

	if rec.Status == target {
		// Идемпотентный повтор — состояние и updated_at не меняются.
		return rec, nil
	}
	if rec.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: id=%d, статус %s", ErrAlreadyReviewed, id, rec.Status)
	}

	updatedAt := s.now().UTC().Format(model.TimestampLayout)
	rec, err = s.store.UpdateStatus(ctx, id, model.StatusPending, target, updatedAt)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			// Конкурентный переход успел раньше. Совпадение целевого
			// статуса — идемпотентный успех, иначе конфликт.
			current, getErr := s.store.GetByID(ctx, id)
			if getErr == nil && current.Status == target {
				return current, nil
			}
			return nil, fmt.Errorf("%w: id=%d", ErrAlreadyReviewed, id)
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
		default:
			return nil, fmt.Errorf("сохранение перехода статуса: %w", err)
		}
	}
	if s.cache != nil {
		s.cache.Delete(id)
	}

	transitionsTotal.WithLabelValues(string(target)).Inc()
	s.logger.Info("Статус записи изменён",
		slog.Int64("id", id),
		slog.String("status", string(target)),
	)
	return rec, nil
}

// trimInput нормализует входные данные: обрезает окружающие пробелы.
func trimInput(in *model.FormInput) {
	in.ProducerName = strings.TrimSpace(in.ProducerName)
	in.Prefecture = strings.TrimSpace(in.Prefecture)
	in.Product = strings.TrimSpace(in.Product)
	in.Certification = strings.TrimSpace(in.Certification)
	in.LotSize = strings.TrimSpace(in.LotSize)
	in.HarvestDate = strings.TrimSpace(in.HarvestDate)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.WalletAddress = strings.TrimSpace(in.WalletAddress)
	in.Notes = strings.TrimSpace(in.Notes)
}

// validateInput проверяет наличие обязательных полей формы.
func validateInput(in *model.FormInput) error {
	required := []struct {
		name  string
		value string
	}{
		{"producer_name", in.ProducerName},
		{"prefecture", in.Prefecture},
		{"product", in.Product},
		{"lot_size", in.LotSize},
		{"harvest_date", in.HarvestDate},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: поле %s обязательно", ErrValidation, f.name)
		}
	}
	return nil
}

// buildMetadata строит метаданные записи из нормализованного ввода.
func buildMetadata(in *model.FormInput) model.Metadata {
	return model.Metadata{
		RWAVersion: metadataVersion,
		Standard:   metadataStandard,
		Issuer:     in.ProducerName,
		Jurisdiction: model.Jurisdiction{
			Country:    metadataCountry,
			Prefecture: in.Prefecture,
		},
		Asset: model.Asset{
			Category:      metadataCategory,
			Product:       in.Product,
			Certification: in.Certification,
			LotSize:       in.LotSize,
			HarvestDate:   in.HarvestDate,
		},
		Contacts: model.Contacts{
			Email:  in.ContactEmail,
			Wallet: in.WalletAddress,
		},
		Notes: in.Notes,
	}
}
