// records.go — бизнес-обработчики JSON API записей.
// POST /api/v1/records          — submit (онбординг через API)
// GET  /api/v1/records          — список (фильтр ?status=pending|approved)
// GET  /api/v1/records/{id}     — одна запись
// POST /api/v1/records/{id}/approve — одобрение (админ-ключ)
// POST /api/v1/records/{id}/reject  — отклонение (админ-ключ)
// GET  /metadata/{id}.json      — JSON-проекция записи (совместимость с демо)
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/hashirwa/internal/api/errors"
	"github.com/bigkaa/hashirwa/internal/api/middleware"
	"github.com/bigkaa/hashirwa/internal/domain/model"
	"github.com/bigkaa/hashirwa/internal/service"
)

// SubmitRecord — реализация POST /api/v1/records.
// Тело запроса — model.FormInput; валидация — в Lifecycle-сервисе.
func (h *APIHandler) SubmitRecord(w http.ResponseWriter, r *http.Request) {
	var input model.FormInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	rec, err := h.lifecycle.Submit(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка submit",
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при создании записи")
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// ListRecords — реализация GET /api/v1/records.
// Параметр status: pending (очередь review, created_at asc) или
// approved (marketplace, updated_at desc). По умолчанию — approved.
func (h *APIHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(model.StatusApproved)
	}

	var (
		records []*model.Record
		err     error
	)
	switch model.Status(status) {
	case model.StatusPending:
		records, err = h.listing.ListPending(r.Context())
	case model.StatusApproved:
		records, err = h.listing.ListApproved(r.Context())
	default:
		apierrors.ValidationError(w, "Параметр status: допустимые значения pending, approved")
		return
	}
	if err != nil {
		h.logger.Error("Ошибка получения списка записей",
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при получении списка записей")
		return
	}

	if records == nil {
		records = []*model.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"total": len(records),
	})
}

// GetRecord — реализация GET /api/v1/records/{id} и GET /metadata/{id}.json.
// Проекция записи: {id, status, metadata, proof, timestamps}.
func (h *APIHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.listing.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись не найдена")
			return
		}
		h.logger.Error("Ошибка получения записи",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при получении записи")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// ApproveRecord — реализация POST /api/v1/records/{id}/approve.
// Авторизация: AdminAuth middleware (заголовок X-Admin-Key).
func (h *APIHandler) ApproveRecord(w http.ResponseWriter, r *http.Request) {
	h.transitionRecord(w, r, model.StatusApproved)
}

// RejectRecord — реализация POST /api/v1/records/{id}/reject.
func (h *APIHandler) RejectRecord(w http.ResponseWriter, r *http.Request) {
	h.transitionRecord(w, r, model.StatusRejected)
}

// transitionRecord выполняет admin-переход статуса и сериализует результат.
func (h *APIHandler) transitionRecord(w http.ResponseWriter, r *http.Request, target model.Status) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	authorized := middleware.Authorized(r.Context())

	var (
		rec *model.Record
		err error
	)
	if target == model.StatusApproved {
		rec, err = h.lifecycle.Approve(r.Context(), id, authorized)
	} else {
		rec, err = h.lifecycle.Reject(r.Context(), id, authorized)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			apierrors.Forbidden(w, "Требуется авторизация администратора")
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Запись не найдена")
		case errors.Is(err, service.ErrAlreadyReviewed):
			apierrors.Conflict(w, "Запись уже прошла review")
		default:
			h.logger.Error("Ошибка перехода статуса",
				slog.Int64("id", id),
				slog.String("target", string(target)),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Внутренняя ошибка при изменении статуса")
		}
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// recordID извлекает и валидирует числовой id из URL.
// При ошибке пишет 400 и возвращает ok=false.
func recordID(w http.ResponseWriter, r *http.Request) (id int64, ok bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apierrors.ValidationError(w, "Некорректный id записи")
		return 0, false
	}
	return id, true
}
