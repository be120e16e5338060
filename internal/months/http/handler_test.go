package monthshttp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrpanel/hrpanel/internal/months"
	"github.com/hrpanel/hrpanel/internal/rbac"
	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/view"
)

func TestListRendersPeriods(t *testing.T) {
	opened := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := &stubMonthsService{
		listFn: func(context.Context) ([]months.Period, error) {
			return []months.Period{
				{ID: 2, Year: 2024, Month: 3, IsOpen: true, OpenedAt: &opened, Notes: "march run"},
				{ID: 1, Year: 2024, Month: 2},
			}, nil
		},
	}
	handler, sessions := newTestHandler(t, svc)

	req := newRequest(t, sessions, http.MethodGet, nil)
	rr := httptest.NewRecorder()
	handler.list(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "March 2024")
	assert.Contains(t, body, "February 2024")
	assert.Contains(t, body, "march run")
	assert.Contains(t, body, "Close month")
	assert.Contains(t, body, "Open month")
}

func TestSubmitCreateUsesPrincipalAsActor(t *testing.T) {
	var got months.CreatePeriodInput
	svc := &stubMonthsService{
		createFn: func(_ context.Context, in months.CreatePeriodInput) (months.Period, error) {
			got = in
			return months.Period{ID: 9, Year: in.Year, Month: in.Month}, nil
		},
	}
	handler, sessions := newTestHandler(t, svc)

	req := newRequest(t, sessions, http.MethodPost, url.Values{
		"action": {"create"},
		"year":   {"2030"},
		"month":  {"4"},
		"notes":  {" spring "},
	})
	rr := httptest.NewRecorder()
	handler.submit(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/months", rr.Header().Get("Location"))
	assert.Equal(t, months.CreatePeriodInput{Year: 2030, Month: 4, Notes: "spring", ActorID: 42}, got)
	flash := popFlash(t, req)
	assert.Equal(t, shared.FlashSuccess, flash.Kind)
	assert.Equal(t, "April 2030 created.", flash.Message)
}

func TestSubmitCreateDuplicateFlashesDanger(t *testing.T) {
	svc := &stubMonthsService{
		createFn: func(context.Context, months.CreatePeriodInput) (months.Period, error) {
			return months.Period{}, months.ErrDuplicatePeriod
		},
	}
	handler, sessions := newTestHandler(t, svc)

	req := newRequest(t, sessions, http.MethodPost, url.Values{"action": {"create"}, "year": {"2030"}, "month": {"4"}})
	rr := httptest.NewRecorder()
	handler.submit(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	flash := popFlash(t, req)
	assert.Equal(t, shared.FlashDanger, flash.Kind)
	assert.Equal(t, "That month already exists.", flash.Message)
}

func TestSubmitCreateValidationListsProblems(t *testing.T) {
	handler, sessions := newTestHandler(t, &stubMonthsService{})

	req := newRequest(t, sessions, http.MethodPost, url.Values{"action": {"create"}, "year": {"abc"}, "month": {"x"}})
	rr := httptest.NewRecorder()
	handler.submit(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	flash := popFlash(t, req)
	assert.Equal(t, shared.FlashDanger, flash.Kind)
	assert.Contains(t, flash.Message, "year must be a number")
	assert.Contains(t, flash.Message, "month must be a number")
}

func TestSubmitOpenWithSnapshotWarning(t *testing.T) {
	svc := &stubMonthsService{
		openFn: func(_ context.Context, id, actor int64) (months.OpenResult, error) {
			assert.Equal(t, int64(5), id)
			assert.Equal(t, int64(42), actor)
			return months.OpenResult{
				Period: months.Period{ID: 5, Year: 2024, Month: 3, IsOpen: true},
				Warning: &months.SnapshotWarning{
					Month:     shared.YearMonth{Year: 2024, Month: 2},
					Err:       errors.New("connection reset"),
					Scheduled: true,
				},
			}, nil
		},
	}
	handler, sessions := newTestHandler(t, svc)

	req := newRequest(t, sessions, http.MethodPost, url.Values{"action": {"open"}, "id": {"5"}})
	rr := httptest.NewRecorder()
	handler.submit(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	flash := popFlash(t, req)
	assert.Equal(t, shared.FlashWarning, flash.Kind)
	assert.Contains(t, flash.Message, "March 2024 opened")
	assert.Contains(t, flash.Message, "February 2024 failed")
	assert.Contains(t, flash.Message, "retried")
}

func TestSubmitOpenReportsArchivedRows(t *testing.T) {
	svc := &stubMonthsService{
		openFn: func(context.Context, int64, int64) (months.OpenResult, error) {
			return months.OpenResult{
				Period:   months.Period{ID: 5, Year: 2025, Month: 1, IsOpen: true},
				Snapshot: months.SnapshotSummary{Month: shared.YearMonth{Year: 2024, Month: 12}, Rows: 3},
			}, nil
		},
	}
	handler, sessions := newTestHandler(t, svc)

	req := newRequest(t, sessions, http.MethodPost, url.Values{"action": {"open"}, "id": {"5"}})
	rr := httptest.NewRecorder()
	handler.submit(rr, req)

	flash := popFlash(t, req)
	assert.Equal(t, shared.FlashSuccess, flash.Kind)
	assert.Equal(t, "January 2025 opened. Archived 3 shops for December 2024.", flash.Message)
}

func TestSubmitCloseNotFound(t *testing.T) {
	svc := &stubMonthsService{
		closeFn: func(context.Context, int64, int64) (months.Period, error) {
			return months.Period{}, months.ErrNotFound
		},
	}
	handler, sessions := newTestHandler(t, svc)

	req := newRequest(t, sessions, http.MethodPost, url.Values{"action": {"close"}, "id": {"77"}})
	rr := httptest.NewRecorder()
	handler.submit(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	flash := popFlash(t, req)
	assert.Equal(t, shared.FlashDanger, flash.Kind)
	assert.Equal(t, "That month no longer exists.", flash.Message)
}

func TestSubmitUpdateNotes(t *testing.T) {
	var gotNotes string
	svc := &stubMonthsService{
		notesFn: func(_ context.Context, id int64, notes string, _ int64) (months.Period, error) {
			gotNotes = notes
			return months.Period{ID: id, Year: 2024, Month: 6, Notes: notes}, nil
		},
	}
	handler, sessions := newTestHandler(t, svc)

	req := newRequest(t, sessions, http.MethodPost, url.Values{"action": {"update_notes"}, "id": {"3"}, "notes": {"bonus paid late"}})
	rr := httptest.NewRecorder()
	handler.submit(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "bonus paid late", gotNotes)
	flash := popFlash(t, req)
	assert.Equal(t, "Notes for June 2024 saved.", flash.Message)
}

func TestSubmitUnknownActionReturnsBadRequest(t *testing.T) {
	handler, sessions := newTestHandler(t, &stubMonthsService{})

	req := newRequest(t, sessions, http.MethodPost, url.Values{"action": {"archive"}})
	rr := httptest.NewRecorder()
	handler.submit(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Unknown action.")
}

type stubMonthsService struct {
	listFn   func(context.Context) ([]months.Period, error)
	createFn func(context.Context, months.CreatePeriodInput) (months.Period, error)
	openFn   func(context.Context, int64, int64) (months.OpenResult, error)
	closeFn  func(context.Context, int64, int64) (months.Period, error)
	notesFn  func(context.Context, int64, string, int64) (months.Period, error)
}

func (s *stubMonthsService) ListPeriods(ctx context.Context) ([]months.Period, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubMonthsService) CreatePeriod(ctx context.Context, in months.CreatePeriodInput) (months.Period, error) {
	if s.createFn != nil {
		return s.createFn(ctx, in)
	}
	return months.Period{}, nil
}

func (s *stubMonthsService) OpenPeriod(ctx context.Context, id, actorID int64) (months.OpenResult, error) {
	if s.openFn != nil {
		return s.openFn(ctx, id, actorID)
	}
	return months.OpenResult{}, nil
}

func (s *stubMonthsService) ClosePeriod(ctx context.Context, id, actorID int64) (months.Period, error) {
	if s.closeFn != nil {
		return s.closeFn(ctx, id, actorID)
	}
	return months.Period{}, nil
}

func (s *stubMonthsService) UpdateNotes(ctx context.Context, id int64, notes string, actorID int64) (months.Period, error) {
	if s.notesFn != nil {
		return s.notesFn(ctx, id, notes, actorID)
	}
	return months.Period{}, nil
}

func newTestHandler(t *testing.T, svc *stubMonthsService) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, svc, templates, csrf, rbac.Middleware{})
	handler.now = func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) }
	return handler, sessions
}

func newRequest(t *testing.T, sessions *shared.SessionManager, method string, form url.Values) *http.Request {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, "/months", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, "/months", nil)
	}
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	ctx = rbac.ContextWithPrincipal(ctx, rbac.Principal{UserID: 42, Permissions: []string{rbac.PermMonthsManage}})
	return req.WithContext(ctx)
}

func popFlash(t *testing.T, req *http.Request) *shared.FlashMessage {
	t.Helper()
	sess := shared.SessionFromContext(req.Context())
	require.NotNil(t, sess)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	return flash
}
