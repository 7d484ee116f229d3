package analytichttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crediview/crediview/internal/analytics"
	"github.com/crediview/crediview/internal/shared"
	"github.com/crediview/crediview/internal/titles"
)

const requestTimeout = 5 * time.Second

// DashboardService defines the report contract used by the handler.
type DashboardService interface {
	GetSummary(ctx context.Context, filter titles.FilterCriteria) (analytics.Summary, error)
	GetAging(ctx context.Context, filter titles.FilterCriteria, schedule analytics.BucketSchedule) ([]analytics.AgingBucket, error)
	GetConcentration(ctx context.Context, filter titles.FilterCriteria) (analytics.ConcentrationReport, error)
	GetRisk(ctx context.Context, filter titles.FilterCriteria) ([]analytics.CounterpartyRisk, error)
	GetBreakdown(ctx context.Context, filter titles.FilterCriteria, dim analytics.Dimension) ([]analytics.RankedRow, error)
	GetTitles(ctx context.Context, filter titles.FilterCriteria, limit int) ([]titles.Title, error)
}

// RefreshEnqueuer schedules a dataset reload.
type RefreshEnqueuer interface {
	EnqueueRefresh(ctx context.Context) (string, error)
}

// Handler coordinates HTTP requests for the dashboard API.
type Handler struct {
	logger   *slog.Logger
	service  DashboardService
	refresh  RefreshEnqueuer
	validate *validator.Validate
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, refresh RefreshEnqueuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		refresh:  refresh,
		validate: validator.New(),
	}
}

// filterForm mirrors the query string; validated before conversion.
type filterForm struct {
	Start        string `validate:"omitempty,datetime=2006-01-02"`
	End          string `validate:"omitempty,datetime=2006-01-02"`
	Branch       string `validate:"omitempty,max=120"`
	Category     string `validate:"omitempty,max=120"`
	DocumentType string `validate:"omitempty,max=120"`
	Status       string `validate:"omitempty"`
	Counterparty string `validate:"omitempty,max=200"`
	Schedule     string `validate:"omitempty,oneof=overdue due"`
	Dimension    string `validate:"omitempty,oneof=counterparty branch category document_type"`
}

func (h *Handler) parseForm(r *http.Request) (filterForm, error) {
	q := r.URL.Query()
	form := filterForm{
		Start:        q.Get("start"),
		End:          q.Get("end"),
		Branch:       q.Get("branch"),
		Category:     q.Get("category"),
		DocumentType: q.Get("doc_type"),
		Status:       q.Get("status"),
		Counterparty: q.Get("q"),
		Schedule:     q.Get("schedule"),
		Dimension:    q.Get("by"),
	}
	if err := h.validate.Struct(form); err != nil {
		return form, fmt.Errorf("%w: %v", shared.ErrInvalidFilter, err)
	}
	if form.Status != "" && !titles.Status(form.Status).Valid() {
		return form, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidFilter, form.Status)
	}
	return form, nil
}

func (form filterForm) criteria() titles.FilterCriteria {
	c := titles.FilterCriteria{
		Branch:       form.Branch,
		Category:     form.Category,
		DocumentType: form.DocumentType,
		Status:       titles.Status(form.Status),
		Counterparty: form.Counterparty,
	}
	if form.Start != "" {
		t, _ := time.ParseInLocation("2006-01-02", form.Start, time.UTC)
		c.Start = &t
	}
	if form.End != "" {
		t, _ := time.ParseInLocation("2006-01-02", form.End, time.UTC)
		c.End = &t
	}
	return c
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, form filterForm) (interface{}, error) {
		return h.service.GetSummary(ctx, form.criteria())
	})
}

func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, form filterForm) (interface{}, error) {
		summary, err := h.service.GetSummary(ctx, form.criteria())
		if err != nil {
			return nil, err
		}
		return summary.Statuses, nil
	})
}

func (h *Handler) handleAging(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, form filterForm) (interface{}, error) {
		schedule, ok := analytics.ScheduleByName(form.Schedule)
		if !ok {
			return nil, fmt.Errorf("%w: unknown schedule %q", shared.ErrInvalidFilter, form.Schedule)
		}
		return h.service.GetAging(ctx, form.criteria(), schedule)
	})
}

func (h *Handler) handleConcentration(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, form filterForm) (interface{}, error) {
		return h.service.GetConcentration(ctx, form.criteria())
	})
}

func (h *Handler) handleRisk(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, form filterForm) (interface{}, error) {
		return h.service.GetRisk(ctx, form.criteria())
	})
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, form filterForm) (interface{}, error) {
		dim := analytics.Dimension(form.Dimension)
		if form.Dimension == "" {
			dim = analytics.ByCounterparty
		}
		return h.service.GetBreakdown(ctx, form.criteria(), dim)
	})
}

// defaultTitleLimit caps row listings unless the client narrows it.
const defaultTitleLimit = 100

// titleVM is the wire shape of one title row.
type titleVM struct {
	Counterparty       string  `json:"counterparty"`
	Branch             string  `json:"branch,omitempty"`
	Category           string  `json:"category,omitempty"`
	DocumentType       string  `json:"document_type,omitempty"`
	IssueDate          string  `json:"issue_date,omitempty"`
	DueDate            string  `json:"due_date,omitempty"`
	PaymentDate        string  `json:"payment_date,omitempty"`
	OriginalAmount     float64 `json:"original_amount"`
	OutstandingBalance float64 `json:"outstanding_balance"`
}

func (h *Handler) handleTitles(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, form filterForm) (interface{}, error) {
		limit := defaultTitleLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				return nil, fmt.Errorf("%w: bad limit %q", shared.ErrInvalidFilter, raw)
			}
			limit = parsed
		}
		set, err := h.service.GetTitles(ctx, form.criteria(), limit)
		if err != nil {
			return nil, err
		}
		rows := make([]titleVM, 0, len(set))
		for _, t := range set {
			rows = append(rows, newTitleVM(t))
		}
		return rows, nil
	})
}

func newTitleVM(t titles.Title) titleVM {
	vm := titleVM{
		Counterparty:       t.Counterparty,
		Branch:             t.Branch,
		Category:           t.Category,
		DocumentType:       t.DocumentType,
		OriginalAmount:     t.OriginalAmount,
		OutstandingBalance: t.OutstandingBalance,
	}
	if !t.IssueDate.IsZero() {
		vm.IssueDate = t.IssueDate.Format("2006-01-02")
	}
	if t.DueDate != nil {
		vm.DueDate = t.DueDate.Format("2006-01-02")
	}
	if t.PaymentDate != nil {
		vm.PaymentDate = t.PaymentDate.Format("2006-01-02")
	}
	return vm
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.refresh == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	taskID, err := h.refresh.EnqueueRefresh(ctx)
	if err != nil {
		h.logger.Error("enqueue refresh", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}
	h.respondJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, load func(context.Context, filterForm) (interface{}, error)) {
	if h.service == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	form, err := h.parseForm(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	payload, err := load(ctx, form)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidFilter) {
			h.respondError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("dashboard report", slog.String("path", r.URL.Path), slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}
	h.respondJSON(w, http.StatusOK, payload)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, err error) {
	h.respondJSON(w, status, map[string]string{"error": shared.UserSafeMessage(err)})
}
