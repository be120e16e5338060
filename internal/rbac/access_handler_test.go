package rbac

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/view"
)

type stubLister struct {
	perms []Permission
}

func (s stubLister) ListPermissions(context.Context) ([]Permission, error) {
	return s.perms, nil
}

func TestAccessHandlerMarksGrantedPermissions(t *testing.T) {
	templates, err := view.NewEngine()
	require.NoError(t, err)
	lister := stubLister{perms: []Permission{
		{ID: 1, Name: PermBonusManage, Description: "Edit bonus tiers"},
		{ID: 2, Name: PermMonthsManage, Description: "Manage months"},
	}}
	h := NewAccessHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), lister, templates, shared.NewCSRFManager("secret"), Middleware{})

	req := httptest.NewRequest(http.MethodGet, "/settings/access", nil)
	ctx := shared.ContextWithSession(req.Context(), &shared.Session{ID: "s1"})
	ctx = ContextWithPrincipal(ctx, Principal{UserID: 5, Permissions: []string{PermMonthsManage}})
	rr := httptest.NewRecorder()
	h.show(rr, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Edit bonus tiers")
	assert.Contains(t, body, "Manage months")
	assert.Contains(t, body, ">Yes<")
	assert.Contains(t, body, ">No<")
}

func TestAccessHandlerRedirectsAnonymous(t *testing.T) {
	h := NewAccessHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), stubLister{}, nil, shared.NewCSRFManager("secret"), Middleware{})

	req := httptest.NewRequest(http.MethodGet, "/settings/access", nil)
	rr := httptest.NewRecorder()
	h.show(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
}
