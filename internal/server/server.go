// Пакет server — HTTP-сервер HashiRWA с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/hashirwa/internal/api/handlers"
	"github.com/bigkaa/hashirwa/internal/api/middleware"
	"github.com/bigkaa/hashirwa/internal/auth"
	"github.com/bigkaa/hashirwa/internal/config"
	"github.com/bigkaa/hashirwa/internal/ui"
)

// Server — HTTP-сервер HashiRWA.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// middlewares — глобальные middleware (metrics, logging), добавляются
// в порядке переданного среза.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	api *handlers.APIHandler,
	pages *ui.Handler,
	authorizer *auth.Authorizer,
	middlewares ...func(http.Handler) http.Handler,
) *Server {
	router := chi.NewRouter()

	for _, mw := range middlewares {
		router.Use(mw)
	}

	// Служебные endpoints — без авторизации.
	router.Get("/health/live", api.HealthLive)
	router.Get("/health/ready", api.HealthReady)
	router.Get("/metrics", api.GetMetrics)

	// JSON API.
	router.Route("/api/v1/records", func(r chi.Router) {
		r.Post("/", api.SubmitRecord)
		r.Get("/", api.ListRecords)
		r.Get("/{id}", api.GetRecord)

		// Review-операции требуют admin-ключ.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(authorizer))
			r.Post("/{id}/approve", api.ApproveRecord)
			r.Post("/{id}/reject", api.RejectRecord)
		})
	})

	// JSON-проекция записи — тот же handler, что и GET /api/v1/records/{id}.
	router.Get("/metadata/{id}.json", api.GetRecord)

	// HTML-страницы.
	pages.Routes(router)
	router.NotFound(pages.NotFound)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
