package analytichttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/crediview/crediview/internal/analytics"
	"github.com/crediview/crediview/internal/titles"
)

type stubService struct {
	summary       analytics.Summary
	aging         []analytics.AgingBucket
	concentration analytics.ConcentrationReport
	risk          []analytics.CounterpartyRisk
	rows          []analytics.RankedRow
	titles        []titles.Title
	err           error

	lastFilter   titles.FilterCriteria
	lastSchedule analytics.BucketSchedule
	lastDim      analytics.Dimension
	lastLimit    int
}

func (s *stubService) GetSummary(ctx context.Context, filter titles.FilterCriteria) (analytics.Summary, error) {
	s.lastFilter = filter
	return s.summary, s.err
}

func (s *stubService) GetAging(ctx context.Context, filter titles.FilterCriteria, schedule analytics.BucketSchedule) ([]analytics.AgingBucket, error) {
	s.lastFilter = filter
	s.lastSchedule = schedule
	return s.aging, s.err
}

func (s *stubService) GetConcentration(ctx context.Context, filter titles.FilterCriteria) (analytics.ConcentrationReport, error) {
	s.lastFilter = filter
	return s.concentration, s.err
}

func (s *stubService) GetRisk(ctx context.Context, filter titles.FilterCriteria) ([]analytics.CounterpartyRisk, error) {
	s.lastFilter = filter
	return s.risk, s.err
}

func (s *stubService) GetBreakdown(ctx context.Context, filter titles.FilterCriteria, dim analytics.Dimension) ([]analytics.RankedRow, error) {
	s.lastFilter = filter
	s.lastDim = dim
	return s.rows, s.err
}

func (s *stubService) GetTitles(ctx context.Context, filter titles.FilterCriteria, limit int) ([]titles.Title, error) {
	s.lastFilter = filter
	s.lastLimit = limit
	return s.titles, s.err
}

type stubEnqueuer struct {
	taskID string
	err    error
	calls  int
}

func (s *stubEnqueuer) EnqueueRefresh(ctx context.Context) (string, error) {
	s.calls++
	return s.taskID, s.err
}

func newTestRouter(service *stubService, enqueuer RefreshEnqueuer) http.Handler {
	h := NewHandler(nil, service, enqueuer)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return r
}

func TestSummaryParsesFilters(t *testing.T) {
	service := &stubService{summary: analytics.Summary{Titles: 2}}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/summary?start=2026-01-01&end=2026-02-01&branch=SP&status=OVERDUE&q=acme", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "SP", service.lastFilter.Branch)
	require.Equal(t, titles.StatusOverdue, service.lastFilter.Status)
	require.Equal(t, "acme", service.lastFilter.Counterparty)
	require.NotNil(t, service.lastFilter.Start)
	require.Equal(t, "2026-01-01", service.lastFilter.Start.Format("2006-01-02"))

	var payload analytics.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, 2, payload.Titles)
}

func TestSummaryRejectsBadDate(t *testing.T) {
	router := newTestRouter(&stubService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/summary?start=01-2026", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryRejectsUnknownStatus(t *testing.T) {
	router := newTestRouter(&stubService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/summary?status=LATE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusBreakdown(t *testing.T) {
	service := &stubService{summary: analytics.Summary{Statuses: []analytics.StatusSlice{
		{Status: titles.StatusOverdue, Amount: 80, Count: 2, Pct: 80},
		{Status: titles.StatusPaid, Amount: 20, Count: 1, Pct: 20},
	}}}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload []analytics.StatusSlice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload, 2)
	require.Equal(t, titles.StatusOverdue, payload[0].Status)
}

func TestAgingSelectsSchedule(t *testing.T) {
	service := &stubService{}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/aging?schedule=due", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "due", service.lastSchedule.Name)
}

func TestAgingDefaultsToOverdueSchedule(t *testing.T) {
	service := &stubService{}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/aging", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "overdue", service.lastSchedule.Name)
}

func TestAgingRejectsUnknownSchedule(t *testing.T) {
	router := newTestRouter(&stubService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/aging?schedule=weekly", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBreakdownDimension(t *testing.T) {
	service := &stubService{}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/counterparties?by=branch", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, analytics.ByBranch, service.lastDim)

	// Default dimension is counterparty.
	req = httptest.NewRequest(http.MethodGet, "/api/dashboard/counterparties", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, analytics.ByCounterparty, service.lastDim)
}

func TestServiceErrorMapsTo500WithSafeMessage(t *testing.T) {
	router := newTestRouter(&stubService{err: errors.New("pool exhausted")}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/risk", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotContains(t, payload["error"], "pool exhausted")
}

func TestRefreshEnqueues(t *testing.T) {
	enqueuer := &stubEnqueuer{taskID: "task-123"}
	router := newTestRouter(&stubService{}, enqueuer)

	req := httptest.NewRequest(http.MethodPost, "/api/dataset/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, enqueuer.calls)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "task-123", payload["task_id"])
}

func TestTitlesDefaultsLimit(t *testing.T) {
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	service := &stubService{titles: []titles.Title{{
		Counterparty:       "Acme Ltda",
		Branch:             "SP",
		IssueDate:          time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		DueDate:            &due,
		OriginalAmount:     1500,
		OutstandingBalance: 1500,
	}}}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/titles?branch=SP", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 100, service.lastLimit)
	require.Equal(t, "SP", service.lastFilter.Branch)

	var payload []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload, 1)
	require.Equal(t, "Acme Ltda", payload[0]["counterparty"])
	require.Equal(t, "2026-04-01", payload[0]["due_date"])
	require.Equal(t, "2026-03-02", payload[0]["issue_date"])
	require.NotContains(t, payload[0], "payment_date")
}

func TestTitlesExplicitLimit(t *testing.T) {
	service := &stubService{}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/titles?limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, service.lastLimit)
}

func TestTitlesRejectsBadLimit(t *testing.T) {
	router := newTestRouter(&stubService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/titles?limit=many", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshWithoutEnqueuer(t *testing.T) {
	router := newTestRouter(&stubService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/dataset/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}
