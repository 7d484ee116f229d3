package titles

import (
	"time"
)

// Status enumerates due-date classifications for a title.
type Status string

const (
	StatusPaid                Status = "PAID"
	StatusOverdue             Status = "OVERDUE"
	StatusDueIn7Days          Status = "DUE_7"
	StatusDueIn15Days         Status = "DUE_15"
	StatusDueIn30Days         Status = "DUE_30"
	StatusDueIn60Days         Status = "DUE_60"
	StatusDueInMoreThan60Days Status = "DUE_60_PLUS"
	StatusUnclassified        Status = "UNCLASSIFIED"
)

// AllStatuses lists every status in report order.
var AllStatuses = []Status{
	StatusPaid,
	StatusOverdue,
	StatusDueIn7Days,
	StatusDueIn15Days,
	StatusDueIn30Days,
	StatusDueIn60Days,
	StatusDueInMoreThan60Days,
	StatusUnclassified,
}

// Valid reports whether s is a known status label.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Title is a single receivable or payable line item. Titles are read-only
// once loaded; a reload replaces the whole set.
type Title struct {
	Counterparty       string
	Branch             string
	Category           string
	DocumentType       string
	IssueDate          time.Time
	DueDate            *time.Time
	PaymentDate        *time.Time
	OriginalAmount     float64
	OutstandingBalance float64
}

// Open reports whether the title still carries an outstanding balance.
func (t Title) Open() bool {
	return t.OutstandingBalance > 0
}

// DaysOverdue returns how many days past due the title is as of the given
// date. Titles without a balance, without a due date, or not yet due
// report 0.
func (t Title) DaysOverdue(asOf time.Time) int {
	if !t.Open() || t.DueDate == nil {
		return 0
	}
	days := daysBetween(*t.DueDate, asOf)
	if days < 0 {
		return 0
	}
	return days
}

// DaysUntilDue returns how many days remain until the title falls due as
// of the given date. The result is negative once the due date has passed.
// Titles without a due date report 0.
func (t Title) DaysUntilDue(asOf time.Time) int {
	if t.DueDate == nil {
		return 0
	}
	return daysBetween(asOf, *t.DueDate)
}

// FilterCriteria narrows a title set. Zero-valued fields impose no
// constraint; each populated field narrows independently.
type FilterCriteria struct {
	Start        *time.Time
	End          *time.Time
	Branch       string
	Category     string
	DocumentType string
	Status       Status
	Counterparty string
}

func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
