package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crediview/crediview/internal/titles"
)

// Loader produces a complete title set from a data source. Loads are
// wholesale: the reporting layer never mutates or amends rows, a new load
// cycle replaces the previous set entirely.
type Loader interface {
	Load(ctx context.Context) ([]titles.Title, error)
}

// Bumper invalidates derived caches after a reload.
type Bumper interface {
	Bump(ctx context.Context) error
}

// Refresher runs a load cycle: source → store swap → cache bump.
type Refresher struct {
	loader Loader
	store  *titles.Store
	cache  Bumper
	logger *slog.Logger
}

// NewRefresher wires a Loader to the title store and cache.
func NewRefresher(loader Loader, store *titles.Store, cache Bumper, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{loader: loader, store: store, cache: cache, logger: logger}
}

// Refresh executes one load cycle. The store is only swapped after a fully
// successful load, so a failing source leaves the previous snapshot
// serving.
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.loader == nil {
		return fmt.Errorf("dataset: loader not configured")
	}
	set, err := r.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("dataset: load: %w", err)
	}
	snap := r.store.Replace(set)
	r.logger.Info("dataset reloaded",
		slog.String("snapshot", snap.ID.String()),
		slog.Int("titles", len(snap.Titles)))
	if r.cache != nil {
		if err := r.cache.Bump(ctx); err != nil {
			return fmt.Errorf("dataset: cache bump: %w", err)
		}
	}
	return nil
}
