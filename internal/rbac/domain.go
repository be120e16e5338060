package rbac

import (
	"context"
	"strings"
)

// Permission names enforced by the panel.
const (
	PermMonthsManage      = "months.manage"
	PermReportsSalaryView = "reports.salary.view"
	PermReportsStoreView  = "reports.store.view"
	PermBonusManage       = "bonus.manage"
)

// Permission represents an atomic capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Principal is the authenticated actor attached to a request.
type Principal struct {
	UserID      int64
	Permissions []string
}

// Authenticated reports whether the principal belongs to a logged-in user.
func (p Principal) Authenticated() bool {
	return p.UserID > 0
}

// Can reports whether the principal holds perm.
func (p Principal) Can(perm string) bool {
	return hasAnyPermission(p.Permissions, normalizePermissions([]string{perm}))
}

type principalKey struct{}

// ContextWithPrincipal stores the principal in ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the request principal, if one was loaded.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
