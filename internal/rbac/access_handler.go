package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/view"
)

type permissionLister interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// AccessHandler shows the signed-in user which permissions they hold.
type AccessHandler struct {
	logger    *slog.Logger
	service   permissionLister
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      Middleware
}

type accessRow struct {
	Name        string
	Description string
	Granted     bool
}

// NewAccessHandler builds an AccessHandler instance.
func NewAccessHandler(logger *slog.Logger, service permissionLister, templates *view.Engine, csrf *shared.CSRFManager, rbac Middleware) *AccessHandler {
	return &AccessHandler{logger: logger, service: service, templates: templates, csrf: csrf, rbac: rbac}
}

// MountRoutes registers the access page.
func (h *AccessHandler) MountRoutes(r chi.Router) {
	r.Get("/settings/access", h.show)
}

func (h *AccessHandler) show(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if !principal.Authenticated() {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	rows := make([]accessRow, 0, len(perms))
	for _, p := range perms {
		rows = append(rows, accessRow{Name: p.Name, Description: p.Description, Granted: principal.Can(p.Name)})
	}
	h.render(w, r, principal, map[string]any{"Rows": rows})
}

func (h *AccessHandler) render(w http.ResponseWriter, r *http.Request, principal Principal, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "My access",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		UserID:      principal.UserID,
		Permissions: principal.Permissions,
		Data:        data,
	}
	w.WriteHeader(http.StatusOK)
	if err := h.templates.Render(w, "pages/settings/access.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
