package analytics

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crediview/crediview/internal/titles"
)

// Service answers dashboard report requests from the current title
// snapshot, consulting the cache first. All computations run against an
// immutable snapshot, so a concurrent reload never affects an in-flight
// report.
type Service struct {
	store *titles.Store
	cache *Cache
	group singleflight.Group
	now   func() time.Time
}

// NewService wires the title store with the cache helper.
func NewService(store *titles.Store, cache *Cache) *Service {
	return &Service{store: store, cache: cache, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Cache exposes the cache helper so callers can bump it after a reload.
func (s *Service) Cache() *Cache {
	return s.cache
}

func (s *Service) asOf() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// GetSummary returns headline totals and the status breakdown.
func (s *Service) GetSummary(ctx context.Context, filter titles.FilterCriteria) (Summary, error) {
	asOf := s.asOf()
	value, err := s.fetch(ctx, s.key("summary", filter, asOf), func(set []titles.Title) (interface{}, error) {
		return Summarize(set, asOf), nil
	}, &Summary{}, filter, asOf)
	if err != nil {
		return Summary{}, err
	}
	return *value.(*Summary), nil
}

// GetAging returns the aging buckets for the given schedule.
func (s *Service) GetAging(ctx context.Context, filter titles.FilterCriteria, schedule BucketSchedule) ([]AgingBucket, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	asOf := s.asOf()
	key := s.key("aging:"+schedule.Name, filter, asOf)
	value, err := s.fetch(ctx, key, func(set []titles.Title) (interface{}, error) {
		return Aging(set, schedule, asOf), nil
	}, &[]AgingBucket{}, filter, asOf)
	if err != nil {
		return nil, err
	}
	return *value.(*[]AgingBucket), nil
}

// GetConcentration returns the counterparty concentration report.
func (s *Service) GetConcentration(ctx context.Context, filter titles.FilterCriteria) (ConcentrationReport, error) {
	asOf := s.asOf()
	value, err := s.fetch(ctx, s.key("concentration", filter, asOf), func(set []titles.Title) (interface{}, error) {
		return Concentration(set), nil
	}, &ConcentrationReport{}, filter, asOf)
	if err != nil {
		return ConcentrationReport{}, err
	}
	return *value.(*ConcentrationReport), nil
}

// GetRisk returns counterparties ranked by exposure score.
func (s *Service) GetRisk(ctx context.Context, filter titles.FilterCriteria) ([]CounterpartyRisk, error) {
	asOf := s.asOf()
	value, err := s.fetch(ctx, s.key("risk", filter, asOf), func(set []titles.Title) (interface{}, error) {
		return Risk(set, asOf), nil
	}, &[]CounterpartyRisk{}, filter, asOf)
	if err != nil {
		return nil, err
	}
	return *value.(*[]CounterpartyRisk), nil
}

// GetTitles returns the filtered row subset, newest issue first, up to
// limit rows (0 means no cap). Row listings bypass the cache; they are a
// plain filter pass over the snapshot.
func (s *Service) GetTitles(ctx context.Context, filter titles.FilterCriteria, limit int) ([]titles.Title, error) {
	if s.store == nil {
		return nil, errors.New("analytics: store not configured")
	}
	set := filter.Apply(s.store.Current().Titles, s.asOf())
	sort.SliceStable(set, func(i, j int) bool {
		return set[i].IssueDate.After(set[j].IssueDate)
	})
	if limit > 0 && len(set) > limit {
		set = set[:limit]
	}
	return set, nil
}

// GetBreakdown returns the ranked table for one grouping dimension.
func (s *Service) GetBreakdown(ctx context.Context, filter titles.FilterCriteria, dim Dimension) ([]RankedRow, error) {
	if !ValidDimension(dim) {
		return nil, errors.New("analytics: unknown breakdown dimension")
	}
	asOf := s.asOf()
	key := s.key("breakdown:"+string(dim), filter, asOf)
	value, err := s.fetch(ctx, key, func(set []titles.Title) (interface{}, error) {
		return Breakdown(set, dim), nil
	}, &[]RankedRow{}, filter, asOf)
	if err != nil {
		return nil, err
	}
	return *value.(*[]RankedRow), nil
}

// fetch resolves one report through singleflight and the cache. dest must
// be a pointer; the shared singleflight result is that pointer.
func (s *Service) fetch(ctx context.Context, keyBase string, compute func([]titles.Title) (interface{}, error), dest interface{}, filter titles.FilterCriteria, asOf time.Time) (interface{}, error) {
	if s.store == nil {
		return nil, errors.New("analytics: store not configured")
	}
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		return nil, err
	}
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		loader := func(ctx context.Context) (interface{}, error) {
			snap := s.store.Current()
			return compute(filter.Apply(snap.Titles, asOf))
		}
		if err := s.cache.FetchJSON(ctx, key, dest, loader); err != nil {
			return nil, err
		}
		return dest, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}

// key builds the cache key base from the report name, the snapshot
// identity, and the filter fingerprint.
func (s *Service) key(report string, filter titles.FilterCriteria, asOf time.Time) string {
	snapID := "-"
	if s.store != nil {
		snapID = s.store.Current().ID.String()
	}
	return strings.Join([]string{"dashboard", report, snapID, filterToken(filter), asOf.Format("2006-01-02")}, ":")
}

func filterToken(c titles.FilterCriteria) string {
	parts := []string{
		dateToken(c.Start),
		dateToken(c.End),
		orDash(c.Branch),
		orDash(c.Category),
		orDash(c.DocumentType),
		orDash(string(c.Status)),
		orDash(titles.NormalizeSearchTerm(c.Counterparty)),
	}
	return strings.Join(parts, "|")
}

func dateToken(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
