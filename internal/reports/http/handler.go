package reportshttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hrpanel/hrpanel/internal/months"
	"github.com/hrpanel/hrpanel/internal/rbac"
	"github.com/hrpanel/hrpanel/internal/reports"
	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/view"
)

const (
	salaryPath = "/reports/salary"
	storePath  = "/reports/store-management"
)

type reportService interface {
	Salary(ctx context.Context, month, year int) (reports.SalaryView, error)
	StoreManagement(ctx context.Context, month, year int) (reports.StoreView, error)
}

type pdfExporter interface {
	Render(ctx context.Context, t reports.Table) ([]byte, error)
}

// Handler serves the salary and store management reports and their exports.
type Handler struct {
	logger    *slog.Logger
	service   reportService
	pdf       pdfExporter
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

type salaryPageData struct {
	View   reports.SalaryView
	Picker pickerView
}

type storePageData struct {
	View   reports.StoreView
	Picker pickerView
}

type pickerView struct {
	Action       string
	Month        shared.YearMonth
	MonthOptions []int
	OpenPeriods  []months.Period
}

// NewHandler constructs the reports HTTP handler.
func NewHandler(logger *slog.Logger, service reportService, pdf pdfExporter, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		pdf:       pdf,
		templates: templates,
		csrf:      csrf,
		rbac:      rbac,
	}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermReportsSalaryView))
		r.Get(salaryPath, h.salary)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermReportsStoreView))
		r.Get(storePath, h.storeManagement)
	})
}

func (h *Handler) salary(w http.ResponseWriter, r *http.Request) {
	month, year := monthYear(r)
	v, err := h.service.Salary(r.Context(), month, year)
	if err != nil {
		h.logger.Error("salary report", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	format := exportFormat(r)
	if format != reports.FormatHTML {
		h.export(w, r, format, "salary-"+v.Month.String(), reports.SalaryTable(v))
		return
	}
	h.render(w, r, "pages/reports/salary.html", "Salary report", salaryPageData{
		View:   v,
		Picker: newPicker(salaryPath, v.Month, v.OpenPeriods),
	}, http.StatusOK)
}

func (h *Handler) storeManagement(w http.ResponseWriter, r *http.Request) {
	month, year := monthYear(r)
	v, err := h.service.StoreManagement(r.Context(), month, year)
	if err != nil {
		h.logger.Error("store management report", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	format := exportFormat(r)
	if format != reports.FormatHTML {
		h.export(w, r, format, "store-management-"+v.Month.String(), reports.StoreTable(v))
		return
	}
	h.render(w, r, "pages/reports/store.html", "Store management", storePageData{
		View:   v,
		Picker: newPicker(storePath, v.Month, v.OpenPeriods),
	}, http.StatusOK)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format, name string, table reports.Table) {
	var (
		buf         bytes.Buffer
		contentType string
		err         error
	)
	switch format {
	case reports.FormatCSV:
		contentType = "text/csv; charset=utf-8"
		err = reports.WriteCSV(&buf, table)
	case reports.FormatXLSX:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = reports.WriteXLSX(&buf, table)
	case reports.FormatPDF:
		contentType = "application/pdf"
		var pdf []byte
		pdf, err = h.pdf.Render(r.Context(), table)
		if err == nil {
			buf.Write(pdf)
		}
	default:
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("export report", slog.String("format", format), slog.Any("error", err))
		status := http.StatusInternalServerError
		if format == reports.FormatPDF {
			status = http.StatusBadGateway
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", name, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
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

func newPicker(action string, ym shared.YearMonth, open []months.Period) pickerView {
	options := make([]int, 12)
	for i := range options {
		options[i] = i + 1
	}
	return pickerView{Action: action, Month: ym, MonthOptions: options, OpenPeriods: open}
}

// monthYear reads the month and year query parameters; missing or malformed values are 0.
func monthYear(r *http.Request) (int, int) {
	q := r.URL.Query()
	month, _ := strconv.Atoi(strings.TrimSpace(q.Get("month")))
	year, _ := strconv.Atoi(strings.TrimSpace(q.Get("year")))
	return month, year
}

func exportFormat(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
}
