package analytics

import (
	"sort"
	"time"

	"github.com/crediview/crediview/internal/titles"
)

// StatusSlice summarises one status label.
type StatusSlice struct {
	Status titles.Status `json:"status"`
	Amount float64       `json:"amount"`
	Count  int           `json:"count"`
	Pct    float64       `json:"pct"`
}

// Summary carries the headline numbers for the current filter.
type Summary struct {
	Titles             int           `json:"titles"`
	Counterparties     int           `json:"counterparties"`
	OriginalAmount     float64       `json:"original_amount"`
	OutstandingBalance float64       `json:"outstanding_balance"`
	OverdueBalance     float64       `json:"overdue_balance"`
	DSODays            float64       `json:"dso_days"`
	Statuses           []StatusSlice `json:"statuses"`
}

// Summarize computes the headline totals and the per-status breakdown of
// the given titles. Percentages are of total outstanding balance and are 0
// when the total is 0.
func Summarize(set []titles.Title, asOf time.Time) Summary {
	s := Summary{Titles: len(set)}
	sums := make(map[titles.Status]float64)
	counts := make(map[titles.Status]int)
	seen := make(map[string]struct{})

	for _, t := range set {
		status := titles.Classify(t, asOf)
		sums[status] += t.OutstandingBalance
		counts[status]++
		s.OriginalAmount += t.OriginalAmount
		s.OutstandingBalance += t.OutstandingBalance
		if t.DaysOverdue(asOf) > 0 {
			s.OverdueBalance += t.OutstandingBalance
		}
		if _, ok := seen[t.Counterparty]; !ok {
			seen[t.Counterparty] = struct{}{}
			s.Counterparties++
		}
	}

	for _, status := range titles.AllStatuses {
		slice := StatusSlice{Status: status, Amount: sums[status], Count: counts[status]}
		if s.OutstandingBalance > 0 {
			slice.Pct = slice.Amount / s.OutstandingBalance * 100
		}
		s.Statuses = append(s.Statuses, slice)
	}

	s.DSODays = DSO(set)
	return s
}

// DSO is the amount-weighted average days between issue and payment over
// settled titles. Titles still open, or missing either date, do not count.
func DSO(set []titles.Title) float64 {
	var weighted, paid float64
	for _, t := range set {
		if t.PaymentDate == nil || t.IssueDate.IsZero() || t.OriginalAmount <= 0 {
			continue
		}
		days := t.PaymentDate.Sub(t.IssueDate).Hours() / 24
		if days < 0 {
			continue
		}
		weighted += days * t.OriginalAmount
		paid += t.OriginalAmount
	}
	if paid == 0 {
		return 0
	}
	return weighted / paid
}

// Dimension selects the grouping key for ranked breakdowns.
type Dimension string

const (
	ByCounterparty Dimension = "counterparty"
	ByBranch       Dimension = "branch"
	ByCategory     Dimension = "category"
	ByDocumentType Dimension = "document_type"
)

// ValidDimension reports whether d names a known grouping.
func ValidDimension(d Dimension) bool {
	switch d {
	case ByCounterparty, ByBranch, ByCategory, ByDocumentType:
		return true
	}
	return false
}

// RankedRow is one line of a dimension breakdown table.
type RankedRow struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
	Pct    float64 `json:"pct"`
}

// Breakdown groups outstanding balance by the chosen dimension and returns
// rows ranked largest first.
func Breakdown(set []titles.Title, dim Dimension) []RankedRow {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var total float64
	for _, t := range set {
		if !t.Open() {
			continue
		}
		label := dimensionLabel(t, dim)
		sums[label] += t.OutstandingBalance
		counts[label]++
		total += t.OutstandingBalance
	}

	rows := make([]RankedRow, 0, len(sums))
	for label, amount := range sums {
		row := RankedRow{Label: label, Amount: amount, Count: counts[label]}
		if total > 0 {
			row.Pct = amount / total * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount != rows[j].Amount {
			return rows[i].Amount > rows[j].Amount
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}

func dimensionLabel(t titles.Title, dim Dimension) string {
	var label string
	switch dim {
	case ByBranch:
		label = t.Branch
	case ByCategory:
		label = t.Category
	case ByDocumentType:
		label = t.DocumentType
	default:
		label = t.Counterparty
	}
	if label == "" {
		return "Unassigned"
	}
	return label
}
