// Пакет ui — server-rendered HTML-интерфейс HashiRWA.
// Страницы: landing, onboarding-форма, marketplace, карточка записи,
// admin-панель review. Шаблоны и статика embedded в бинарник.
package ui

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/hashirwa/internal/api/middleware"
	"github.com/bigkaa/hashirwa/internal/auth"
	"github.com/bigkaa/hashirwa/internal/domain/model"
	"github.com/bigkaa/hashirwa/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// displayTimeLayout — формат отображения меток времени в UI.
const displayTimeLayout = "2006-01-02 15:04"

// prefectures — 47 префектур Японии для onboarding-формы.
var prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

// products — варианты продукции для onboarding-формы.
var products = []string{"Rice", "Green Tea", "Apple", "Strawberry", "Vegetable", "Fruit", "Other"}

// certifications — варианты сертификации для onboarding-формы.
var certifications = []string{"JA", "JGAP", "JAS Organic", "Other"}

// Handler — обработчики HTML-страниц.
type Handler struct {
	lifecycle  *service.LifecycleService
	listing    *service.ListingService
	authorizer *auth.Authorizer
	logger     *slog.Logger
	tmpl       *template.Template
}

// New создаёт UI-обработчик с распарсенными шаблонами.
func New(
	lifecycle *service.LifecycleService,
	listing *service.ListingService,
	authorizer *auth.Authorizer,
	logger *slog.Logger,
) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"datetime":   formatDateTime,
		"badgeClass": badgeClass,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("разбор UI-шаблонов: %w", err)
	}

	return &Handler{
		lifecycle:  lifecycle,
		listing:    listing,
		authorizer: authorizer,
		logger:     logger.With(slog.String("component", "ui_handler")),
		tmpl:       tmpl,
	}, nil
}

// Routes регистрирует UI-маршруты на роутере.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Landing)
	r.Get("/onboard", h.OnboardForm)
	r.Post("/onboard", h.OnboardSubmit)
	r.Get("/market", h.Market)
	r.Get("/listing/{id}", h.Listing)
	r.Get("/admin", h.Admin)
	r.Post("/admin/approve/{id}", h.AdminApprove)
	r.Post("/admin/reject/{id}", h.AdminReject)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}

// --- Страницы ---

// Landing — GET /.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, "landing", nil)
}

// onboardView — данные onboarding-формы.
type onboardView struct {
	Prefectures    []string
	Products       []string
	Certifications []string
	Error          string
	Input          model.FormInput
}

// OnboardForm — GET /onboard.
func (h *Handler) OnboardForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "onboard", onboardView{
		Prefectures:    prefectures,
		Products:       products,
		Certifications: certifications,
	})
}

// OnboardSubmit — POST /onboard. Создаёт запись и показывает подтверждение
// с proof-хешем; при ошибке валидации — форма с сообщением.
func (h *Handler) OnboardSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "некорректная форма", http.StatusBadRequest)
		return
	}

	input := model.FormInput{
		ProducerName:  r.PostFormValue("producer_name"),
		Prefecture:    r.PostFormValue("prefecture"),
		Product:       r.PostFormValue("product"),
		Certification: r.PostFormValue("certification"),
		LotSize:       r.PostFormValue("lot_size"),
		HarvestDate:   r.PostFormValue("harvest_date"),
		ContactEmail:  r.PostFormValue("contact_email"),
		WalletAddress: r.PostFormValue("wallet_address"),
		Notes:         r.PostFormValue("notes"),
	}

	rec, err := h.lifecycle.Submit(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.render(w, "onboard", onboardView{
				Prefectures:    prefectures,
				Products:       products,
				Certifications: certifications,
				Error:          err.Error(),
				Input:          input,
			})
			return
		}
		h.logger.Error("Ошибка submit через UI", slog.String("error", err.Error()))
		http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
		return
	}

	h.render(w, "confirm", rec)
}

// marketView — данные страницы marketplace.
type marketView struct {
	Records []*model.Record
}

// Market — GET /market. Одобренные записи, свежие — первыми.
func (h *Handler) Market(w http.ResponseWriter, r *http.Request) {
	records, err := h.listing.ListApproved(r.Context())
	if err != nil {
		h.logger.Error("Ошибка загрузки marketplace", slog.String("error", err.Error()))
		http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
		return
	}
	h.render(w, "market", marketView{Records: records})
}

// Listing — GET /listing/{id}. Карточка записи с proof-секцией.
func (h *Handler) Listing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	rec, err := h.listing.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		h.logger.Error("Ошибка загрузки записи", slog.Int64("id", id), slog.String("error", err.Error()))
		http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
		return
	}

	h.render(w, "listing", rec)
}

// adminView — данные admin-панели.
type adminView struct {
	Key      string
	Pending  []*model.Record
	Approved []*model.Record
}

// Admin — GET /admin. Без валидного ключа (?k=) — форма ввода ключа,
// с ключом — очередь review и список одобренных записей.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	key := middleware.AdminKeyFromRequest(r)
	if !h.authorizer.Authorize(key) {
		h.render(w, "admin_login", nil)
		return
	}

	pending, err := h.listing.ListPending(r.Context())
	if err != nil {
		h.logger.Error("Ошибка загрузки очереди review", slog.String("error", err.Error()))
		http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
		return
	}
	approved, err := h.listing.ListApproved(r.Context())
	if err != nil {
		h.logger.Error("Ошибка загрузки одобренных записей", slog.String("error", err.Error()))
		http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
		return
	}

	h.render(w, "admin", adminView{Key: key, Pending: pending, Approved: approved})
}

// AdminApprove — POST /admin/approve/{id}. Redirect обратно на панель.
func (h *Handler) AdminApprove(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, model.StatusApproved)
}

// AdminReject — POST /admin/reject/{id}.
func (h *Handler) AdminReject(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, model.StatusRejected)
}

// adminTransition выполняет переход статуса из admin-панели.
func (h *Handler) adminTransition(w http.ResponseWriter, r *http.Request, target model.Status) {
	key := middleware.AdminKeyFromRequest(r)
	authorized := h.authorizer.Authorize(key)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	if target == model.StatusApproved {
		_, err = h.lifecycle.Approve(r.Context(), id, authorized)
	} else {
		_, err = h.lifecycle.Reject(r.Context(), id, authorized)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			http.Error(w, "доступ запрещён", http.StatusForbidden)
		case errors.Is(err, service.ErrNotFound):
			h.NotFound(w, r)
		case errors.Is(err, service.ErrAlreadyReviewed):
			// Запись уже прошла review — возвращаем на панель без изменений.
			http.Redirect(w, r, "/admin?k="+url.QueryEscape(key), http.StatusFound)
		default:
			h.logger.Error("Ошибка admin-перехода",
				slog.Int64("id", id),
				slog.String("target", string(target)),
				slog.String("error", err.Error()),
			)
			http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, "/admin?k="+url.QueryEscape(key), http.StatusFound)
}

// NotFound — страница 404.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	if err := h.tmpl.ExecuteTemplate(w, "notfound", nil); err != nil {
		h.logger.Error("Ошибка рендеринга 404", slog.String("error", err.Error()))
	}
}

// render выполняет именованный шаблон с данными.
func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("Ошибка рендеринга шаблона",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}

// --- Template-функции ---

// formatDateTime приводит ISO-8601 метку к виду YYYY-MM-DD HH:MM.
// Неразбираемое значение возвращается как есть — это не ошибка.
func formatDateTime(value string) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format(displayTimeLayout)
}

// badgeClass возвращает CSS-класс бейджа для статуса.
func badgeClass(s model.Status) string {
	switch s {
	case model.StatusApproved:
		return "badge-approved"
	case model.StatusRejected:
		return "badge-rejected"
	}
	return "badge-pending"
}
