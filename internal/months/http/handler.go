package monthshttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hrpanel/hrpanel/internal/months"
	"github.com/hrpanel/hrpanel/internal/rbac"
	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/view"
)

const monthsPath = "/months"

type monthsService interface {
	ListPeriods(ctx context.Context) ([]months.Period, error)
	CreatePeriod(ctx context.Context, in months.CreatePeriodInput) (months.Period, error)
	OpenPeriod(ctx context.Context, id, actorID int64) (months.OpenResult, error)
	ClosePeriod(ctx context.Context, id, actorID int64) (months.Period, error)
	UpdateNotes(ctx context.Context, id int64, notes string, actorID int64) (months.Period, error)
}

// Handler serves the payroll month management page.
type Handler struct {
	logger    *slog.Logger
	service   monthsService
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
	now       func() time.Time
}

type pageData struct {
	Form         formDefaults
	MonthOptions []int
	Periods      []periodRow
}

type formDefaults struct {
	Year  int
	Month int
}

type periodRow struct {
	Period months.Period
	Badge  badgeView
}

type badgeView struct {
	Label string
	Kind  string
}

// NewHandler constructs the months HTTP handler.
func NewHandler(logger *slog.Logger, service monthsService, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		rbac:      rbac,
		now:       time.Now,
	}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route(monthsPath, func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermMonthsManage))
		r.Get("/", h.list)
		r.Post("/", h.submit)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK)
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, status int) {
	periods, err := h.service.ListPeriods(r.Context())
	if err != nil {
		h.logger.Error("list months", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	rows := make([]periodRow, 0, len(periods))
	for _, p := range periods {
		rows = append(rows, periodRow{Period: p, Badge: badgeForPeriod(p)})
	}
	current := shared.NewYearMonth(h.now())
	h.render(w, r, "pages/months/index.html", "Payroll months", pageData{
		Form:         formDefaults{Year: current.Year, Month: current.Month},
		MonthOptions: monthOptions(),
		Periods:      rows,
	}, status)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	cmd, err := months.ParseCommand(r.PostForm)
	if err != nil {
		if errors.Is(err, months.ErrUnknownAction) {
			h.logger.Warn("months unknown action", slog.String("action", r.PostFormValue("action")))
			addFlash(r, shared.FlashDanger, "Unknown action.")
			h.renderList(w, r, http.StatusBadRequest)
			return
		}
		h.redirectWithFlash(w, r, shared.FlashDanger, errorMessage(err))
		return
	}

	switch c := cmd.(type) {
	case months.CreateCommand:
		h.create(w, r, c)
	case months.OpenCommand:
		h.open(w, r, c)
	case months.CloseCommand:
		h.close(w, r, c)
	case months.UpdateNotesCommand:
		h.updateNotes(w, r, c)
	default:
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, cmd months.CreateCommand) {
	period, err := h.service.CreatePeriod(r.Context(), months.CreatePeriodInput{
		Year:    cmd.Year,
		Month:   cmd.Month,
		Notes:   cmd.Notes,
		ActorID: actorID(r),
	})
	if err != nil {
		h.logger.Warn("create month", slog.Any("error", err))
		h.redirectWithFlash(w, r, shared.FlashDanger, errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, fmt.Sprintf("%s created.", period.Label()))
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request, cmd months.OpenCommand) {
	result, err := h.service.OpenPeriod(r.Context(), cmd.ID, actorID(r))
	if err != nil {
		h.logger.Warn("open month", slog.Int64("id", cmd.ID), slog.Any("error", err))
		h.redirectWithFlash(w, r, shared.FlashDanger, errorMessage(err))
		return
	}
	if result.Warning != nil {
		msg := fmt.Sprintf("%s opened, but the store snapshot for %s failed.", result.Period.Label(), result.Warning.Month.Label())
		if result.Warning.Scheduled {
			msg += " It will be retried in the background."
		}
		h.redirectWithFlash(w, r, shared.FlashWarning, msg)
		return
	}
	msg := fmt.Sprintf("%s opened. Archived %d shops for %s.", result.Period.Label(), result.Snapshot.Rows, result.Snapshot.Month.Label())
	if result.Snapshot.Skipped {
		msg = fmt.Sprintf("%s opened. Snapshot for %s %s.", result.Period.Label(), result.Snapshot.Month.Label(), result.Snapshot.Message)
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, msg)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request, cmd months.CloseCommand) {
	period, err := h.service.ClosePeriod(r.Context(), cmd.ID, actorID(r))
	if err != nil {
		h.logger.Warn("close month", slog.Int64("id", cmd.ID), slog.Any("error", err))
		h.redirectWithFlash(w, r, shared.FlashDanger, errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, fmt.Sprintf("%s closed.", period.Label()))
}

func (h *Handler) updateNotes(w http.ResponseWriter, r *http.Request, cmd months.UpdateNotesCommand) {
	period, err := h.service.UpdateNotes(r.Context(), cmd.ID, cmd.Notes, actorID(r))
	if err != nil {
		h.logger.Warn("update month notes", slog.Int64("id", cmd.ID), slog.Any("error", err))
		h.redirectWithFlash(w, r, shared.FlashDanger, errorMessage(err))
		return
	}
	h.redirectWithFlash(w, r, shared.FlashSuccess, fmt.Sprintf("Notes for %s saved.", period.Label()))
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
	addFlash(r, kind, message)
	http.Redirect(w, r, monthsPath, http.StatusSeeOther)
}

func addFlash(r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
}

func actorID(r *http.Request) int64 {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	return principal.UserID
}

func errorMessage(err error) string {
	var vErr *months.ValidationError
	switch {
	case errors.As(err, &vErr):
		return strings.Join(vErr.Problems, " ")
	case errors.Is(err, months.ErrNotFound):
		return "That month no longer exists."
	case errors.Is(err, months.ErrDuplicatePeriod):
		return "That month already exists."
	}
	return "Something went wrong. Please try again."
}

func badgeForPeriod(p months.Period) badgeView {
	if p.IsOpen {
		return badgeView{Label: "Open", Kind: "success"}
	}
	return badgeView{Label: "Closed", Kind: "secondary"}
}

func monthOptions() []int {
	out := make([]int, 12)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
