package analytics

import (
	"fmt"
	"time"

	"github.com/crediview/crediview/internal/titles"
)

// UnclassifiedBucket collects open titles that carry no due date.
const UnclassifiedBucket = "Unclassified"

// BucketAxis selects which day count a schedule partitions on.
type BucketAxis string

const (
	// AxisOverdue buckets by days past due; not-yet-due balance is Current.
	AxisOverdue BucketAxis = "overdue"
	// AxisDue buckets by days until due; already-due balance is Overdue.
	AxisDue BucketAxis = "due"
)

// BucketSchedule defines aging bucket boundaries in days along one axis.
// Bounds must be strictly increasing; each bound closes a bucket
// inclusively, and a final open-ended bucket catches everything beyond the
// last bound.
type BucketSchedule struct {
	Name   string
	Axis   BucketAxis
	Bounds []int
}

// DefaultOverdueSchedule buckets overdue balances the way the delinquency
// report does.
var DefaultOverdueSchedule = BucketSchedule{Name: "overdue", Axis: AxisOverdue, Bounds: []int{30, 60, 90}}

// DueSchedule buckets upcoming maturities by days until due. Balance that
// is already past due collapses into a single Overdue bucket; the
// delinquency detail lives in DefaultOverdueSchedule.
var DueSchedule = BucketSchedule{Name: "due", Axis: AxisDue, Bounds: []int{7, 15, 30, 60}}

// ScheduleByName resolves a shipped schedule preset.
func ScheduleByName(name string) (BucketSchedule, bool) {
	switch name {
	case "", DefaultOverdueSchedule.Name:
		return DefaultOverdueSchedule, true
	case DueSchedule.Name:
		return DueSchedule, true
	default:
		return BucketSchedule{}, false
	}
}

// Validate reports whether the schedule bounds are usable.
func (s BucketSchedule) Validate() error {
	if len(s.Bounds) == 0 {
		return fmt.Errorf("aging schedule %q: at least one bound required", s.Name)
	}
	switch s.Axis {
	case "", AxisOverdue, AxisDue:
	default:
		return fmt.Errorf("aging schedule %q: unknown axis %q", s.Name, s.Axis)
	}
	prev := 0
	for i, b := range s.Bounds {
		if b <= prev {
			return fmt.Errorf("aging schedule %q: bound %d (%d) must exceed %d", s.Name, i, b, prev)
		}
		prev = b
	}
	return nil
}

// catchAllLabel is the leading bucket for balance before the first bound:
// not-yet-due balance on the overdue axis, already-due balance on the due
// axis.
func (s BucketSchedule) catchAllLabel() string {
	if s.Axis == AxisDue {
		return "Overdue"
	}
	return "Current"
}

// firstLower is the lowest day count inside the first bounded bucket. The
// due axis starts at 0 so titles due today count as maturing, not overdue.
func (s BucketSchedule) firstLower() int {
	if s.Axis == AxisDue {
		return 0
	}
	return 1
}

// Labels returns the ordered bucket labels for the schedule, not counting
// the Unclassified bucket.
func (s BucketSchedule) Labels() []string {
	labels := make([]string, 0, len(s.Bounds)+2)
	labels = append(labels, s.catchAllLabel())
	lower := s.firstLower()
	for _, b := range s.Bounds {
		labels = append(labels, fmt.Sprintf("%d-%d", lower, b))
		lower = b + 1
	}
	labels = append(labels, fmt.Sprintf("%d+", s.Bounds[len(s.Bounds)-1]))
	return labels
}

func (s BucketSchedule) bucketFor(days int) string {
	if days < s.firstLower() {
		return s.catchAllLabel()
	}
	lower := s.firstLower()
	for _, b := range s.Bounds {
		if days <= b {
			return fmt.Sprintf("%d-%d", lower, b)
		}
		lower = b + 1
	}
	return fmt.Sprintf("%d+", s.Bounds[len(s.Bounds)-1])
}

// AgingBucket summarises outstanding balance inside one bucket.
type AgingBucket struct {
	Bucket string  `json:"bucket"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
	Pct    float64 `json:"pct"`
}

// Aging partitions the outstanding balance of the given titles into the
// schedule's buckets, counting days past due or days until due per the
// schedule's axis. The partition is exhaustive: every unit of balance
// lands in exactly one bucket, with open titles lacking a due date routed
// to the Unclassified bucket. A zero total reports 0% across the board
// rather than dividing.
func Aging(set []titles.Title, schedule BucketSchedule, asOf time.Time) []AgingBucket {
	labels := append(schedule.Labels(), UnclassifiedBucket)
	sums := make(map[string]float64, len(labels))
	counts := make(map[string]int, len(labels))

	var total float64
	for _, t := range set {
		if !t.Open() {
			continue
		}
		label := UnclassifiedBucket
		if t.DueDate != nil {
			days := t.DaysOverdue(asOf)
			if schedule.Axis == AxisDue {
				days = t.DaysUntilDue(asOf)
			}
			label = schedule.bucketFor(days)
		}
		sums[label] += t.OutstandingBalance
		counts[label]++
		total += t.OutstandingBalance
	}

	buckets := make([]AgingBucket, 0, len(labels))
	for _, label := range labels {
		b := AgingBucket{Bucket: label, Amount: sums[label], Count: counts[label]}
		if total > 0 {
			b.Pct = b.Amount / total * 100
		}
		buckets = append(buckets, b)
	}
	return buckets
}
