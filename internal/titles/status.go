package titles

import "time"

// Classify derives the status of a title as of the given date. A settled
// balance wins over any due-date consideration; titles without a due date
// land in StatusUnclassified rather than being dropped or erroring.
func Classify(t Title, asOf time.Time) Status {
	if t.OutstandingBalance == 0 {
		return StatusPaid
	}
	if t.DueDate == nil {
		return StatusUnclassified
	}
	delta := daysBetween(asOf, *t.DueDate)
	switch {
	case delta < 0:
		return StatusOverdue
	case delta <= 7:
		return StatusDueIn7Days
	case delta <= 15:
		return StatusDueIn15Days
	case delta <= 30:
		return StatusDueIn30Days
	case delta <= 60:
		return StatusDueIn60Days
	default:
		return StatusDueInMoreThan60Days
	}
}
