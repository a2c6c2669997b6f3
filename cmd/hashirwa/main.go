// main.go — точка входа HashiRWA.
// Собирает зависимости: config, logger, хранилище (file/postgres/memory),
// аллокатор id, кэш, сервисы, handlers, UI и HTTP-сервер.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/bigkaa/hashirwa/internal/api/handlers"
	"github.com/bigkaa/hashirwa/internal/api/middleware"
	"github.com/bigkaa/hashirwa/internal/auth"
	"github.com/bigkaa/hashirwa/internal/config"
	"github.com/bigkaa/hashirwa/internal/database"
	"github.com/bigkaa/hashirwa/internal/idgen"
	"github.com/bigkaa/hashirwa/internal/repository"
	"github.com/bigkaa/hashirwa/internal/server"
	"github.com/bigkaa/hashirwa/internal/service"
	"github.com/bigkaa/hashirwa/internal/ui"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("HashiRWA запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreBackend),
	)

	ctx := context.Background()

	// 3. Хранилище записей и readiness checker
	store, checker, err := buildStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища: %v", err)
	}

	// 4. Аллокатор id. Sequence засевается максимальным
	// существующим id, чтобы рестарт не выдавал дубликаты.
	alloc, err := buildAllocator(ctx, cfg, store)
	if err != nil {
		log.Fatalf("Ошибка инициализации аллокатора id: %v", err)
	}

	// 5. Кэш и сервисный слой
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	lifecycle := service.NewLifecycleService(store, alloc, cache, logger)
	listing := service.NewListingService(store, cache, logger)

	// 6. Демо-данные (только в пустое хранилище)
	if cfg.SeedDemo {
		if err := lifecycle.SeedDemo(ctx); err != nil {
			log.Fatalf("Ошибка посева демо-данных: %v", err)
		}
	}

	// 7. Авторизация admin-операций
	authorizer := auth.New(cfg.AdminKey)

	// 8. Handlers: JSON API и HTML-страницы
	healthHandler := handlers.NewHealthHandler(checker)
	apiHandler := handlers.NewAPIHandler(healthHandler, lifecycle, listing, logger)

	pages, err := ui.New(lifecycle, listing, authorizer, logger)
	if err != nil {
		log.Fatalf("Ошибка инициализации UI: %v", err)
	}

	// 9. HTTP-сервер с metrics и logging middleware
	srv := server.New(cfg, logger, apiHandler, pages, authorizer,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	// 10. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("HashiRWA остановлен")
}

// buildStore создаёт хранилище записей по cfg.StoreBackend
// и возвращает его вместе с readiness checker-ом.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.RecordStore, handlers.ReadinessChecker, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Bootstrap(ctx, pool, logger); err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresStore(pool), database.NewReadinessChecker(pool), nil

	case config.StoreBackendMemory:
		store := repository.NewMemoryStore()
		return store, store, nil

	default:
		store, err := repository.NewJSONFileStore(cfg.DBFile)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
}

// buildAllocator создаёт аллокатор id по cfg.IDAllocator.
func buildAllocator(ctx context.Context, cfg *config.Config, store repository.RecordStore) (idgen.Allocator, error) {
	if cfg.IDAllocator == config.IDAllocatorRandom {
		return idgen.NewRandom(), nil
	}

	records, err := store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var maxID int64
	for _, rec := range records {
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	return idgen.NewSequence(maxID), nil
}
