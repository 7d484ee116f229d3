package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the dashboard API endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/summary", h.handleSummary)
		r.Get("/status", h.handleStatuses)
		r.Get("/aging", h.handleAging)
		r.Get("/concentration", h.handleConcentration)
		r.Get("/risk", h.handleRisk)
		r.Get("/counterparties", h.handleBreakdown)
		r.Get("/titles", h.handleTitles)
	})
	r.Route("/dataset", func(r chi.Router) {
		// Reloads are expensive; keep the trigger rate low.
		r.Use(httprate.Limit(5, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "dataset-refresh", nil
		})))
		r.Post("/refresh", h.handleRefresh)
	})
}
