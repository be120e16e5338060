package bonushttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/hrpanel/hrpanel/internal/bonus"
	"github.com/hrpanel/hrpanel/internal/rbac"
	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/view"
)

const settingsPath = "/settings/bonus"

type bonusService interface {
	ListTiers(ctx context.Context) ([]bonus.Tier, error)
	SaveTier(ctx context.Context, t bonus.Tier) error
	DeleteTier(ctx context.Context, minSales decimal.Decimal) error
	ListRanges(ctx context.Context) ([]bonus.EvaluationRange, error)
	CreateRange(ctx context.Context, r bonus.EvaluationRange) (bonus.EvaluationRange, error)
	DeleteRange(ctx context.Context, id int64) error
}

// Handler serves the bonus settings page.
type Handler struct {
	logger    *slog.Logger
	service   bonusService
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
	validate  *validator.Validate
}

type pageData struct {
	Tiers  []bonus.Tier
	Ranges []bonus.EvaluationRange
}

type tierForm struct {
	MinSales     string `validate:"required,numeric"`
	BonusPercent string `validate:"required,numeric"`
}

type rangeForm struct {
	MinValue string `validate:"required,numeric"`
	MaxValue string `validate:"required,numeric"`
	Amount   string `validate:"required,numeric"`
}

// NewHandler constructs the bonus settings handler.
func NewHandler(logger *slog.Logger, service bonusService, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		rbac:      rbac,
		validate:  validator.New(),
	}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route(settingsPath, func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermBonusManage))
		r.Get("/", h.show)
		r.Post("/tiers", h.saveTier)
		r.Post("/tiers/delete", h.deleteTier)
		r.Post("/ranges", h.createRange)
		r.Post("/ranges/{id}/delete", h.deleteRange)
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.ListTiers(r.Context())
	if err != nil {
		h.logger.Error("list bonus tiers", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ranges, err := h.service.ListRanges(r.Context())
	if err != nil {
		h.logger.Error("list evaluation ranges", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/settings/bonus.html", "Bonus settings", pageData{Tiers: tiers, Ranges: ranges}, http.StatusOK)
}

func (h *Handler) saveTier(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := tierForm{
		MinSales:     strings.TrimSpace(r.PostFormValue("min_sales")),
		BonusPercent: strings.TrimSpace(r.PostFormValue("bonus_percent")),
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirectWithFlash(w, r, shared.FlashDanger, "Minimum sales and bonus percent must be numbers.")
		return
	}
	values, ok := parseDecimals(form.MinSales, form.BonusPercent)
	if !ok {
		h.redirectWithFlash(w, r, shared.FlashDanger, "Minimum sales and bonus percent must be numbers.")
		return
	}
	tier := bonus.Tier{MinSales: values[0], BonusPercent: values[1]}
	if err := h.service.SaveTier(r.Context(), tier); err != nil {
		h.logger.Warn("save bonus tier", slog.Any("error", err))
		h.redirectWithFlash(w, r, shared.FlashDanger, errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, "Sales bonus tier saved.")
}

func (h *Handler) deleteTier(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	minSales, err := decimal.NewFromString(strings.TrimSpace(r.PostFormValue("min_sales")))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteTier(r.Context(), minSales); err != nil {
		h.logger.Warn("delete bonus tier", slog.Any("error", err))
		h.redirectWithFlash(w, r, shared.FlashDanger, errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, "Sales bonus tier deleted.")
}

func (h *Handler) createRange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := rangeForm{
		MinValue: strings.TrimSpace(r.PostFormValue("min_value")),
		MaxValue: strings.TrimSpace(r.PostFormValue("max_value")),
		Amount:   strings.TrimSpace(r.PostFormValue("amount")),
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirectWithFlash(w, r, shared.FlashDanger, "Minimum, maximum and amount must be numbers.")
		return
	}
	values, ok := parseDecimals(form.MinValue, form.MaxValue, form.Amount)
	if !ok {
		h.redirectWithFlash(w, r, shared.FlashDanger, "Minimum, maximum and amount must be numbers.")
		return
	}
	_, err := h.service.CreateRange(r.Context(), bonus.EvaluationRange{
		MinValue: values[0],
		MaxValue: values[1],
		Amount:   values[2],
	})
	if err != nil {
		h.logger.Warn("create evaluation range", slog.Any("error", err))
		h.redirectWithFlash(w, r, shared.FlashDanger, errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, "Evaluation range added.")
}

func (h *Handler) deleteRange(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteRange(r.Context(), id); err != nil {
		h.logger.Warn("delete evaluation range", slog.Int64("id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, shared.FlashDanger, errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, "Evaluation range deleted.")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		UserID:      principal.UserID,
		Permissions: principal.Permissions,
		Data:        data,
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, settingsPath, http.StatusSeeOther)
}

func parseDecimals(raw ...string) ([]decimal.Decimal, bool) {
	out := make([]decimal.Decimal, 0, len(raw))
	for _, v := range raw {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, false
		}
		out = append(out, d)
	}
	return out, true
}

func errorMessage(err error) string {
	var vErr *bonus.ValidationError
	switch {
	case errors.As(err, &vErr):
		return strings.Join(vErr.Problems, "; ")
	case errors.Is(err, bonus.ErrRangeOverlap):
		return "That range overlaps an existing range."
	case errors.Is(err, bonus.ErrNotFound):
		return "That entry no longer exists."
	}
	return "Something went wrong. Please try again."
}
