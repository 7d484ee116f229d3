package analytics

import (
	"sort"
	"time"

	"github.com/crediview/crediview/internal/titles"
)

// Risk score bands.
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskModerate = "MODERATE"
	RiskLow      = "LOW"
)

// Component weights of the counterparty risk score.
const (
	weightShare         = 0.25
	weightDaysOverdue   = 0.35
	weightOverduePct    = 0.25
	weightOverdueAmount = 0.15

	// daysOverdueCap saturates the days-overdue component.
	daysOverdueCap = 120
)

// CounterpartyRisk scores one counterparty's exposure, 0-100.
type CounterpartyRisk struct {
	Counterparty   string  `json:"counterparty"`
	Balance        float64 `json:"balance"`
	OverdueBalance float64 `json:"overdue_balance"`
	DaysOverdue    int     `json:"days_overdue"`
	SharePct       float64 `json:"share_pct"`
	Score          float64 `json:"score"`
	Band           string  `json:"band"`
}

// Risk ranks counterparties by a weighted exposure score. Components are
// normalised against the maxima of the current filtered set, so scores are
// relative to the active filter rather than absolute across time; that
// behaviour is what makes historical reports reproducible. Any normaliser
// that is 0 is substituted with 1, zeroing that component.
func Risk(set []titles.Title, asOf time.Time) []CounterpartyRisk {
	type exposure struct {
		balance     float64
		overdue     float64
		daysOverdue int
	}
	exposures := make(map[string]*exposure)
	for _, t := range set {
		if !t.Open() {
			continue
		}
		e := exposures[t.Counterparty]
		if e == nil {
			e = &exposure{}
			exposures[t.Counterparty] = e
		}
		e.balance += t.OutstandingBalance
		if days := t.DaysOverdue(asOf); days > 0 {
			e.overdue += t.OutstandingBalance
			if days > e.daysOverdue {
				e.daysOverdue = days
			}
		}
	}

	var total, maxShare, maxOverdue float64
	for _, e := range exposures {
		total += e.balance
		if e.overdue > maxOverdue {
			maxOverdue = e.overdue
		}
	}
	shares := make(map[string]float64, len(exposures))
	for name, e := range exposures {
		share := safeRatio(e.balance, total) * 100
		shares[name] = share
		if share > maxShare {
			maxShare = share
		}
	}

	ranked := make([]CounterpartyRisk, 0, len(exposures))
	for name, e := range exposures {
		capped := e.daysOverdue
		if capped > daysOverdueCap {
			capped = daysOverdueCap
		}
		score := weightShare*safeRatio(shares[name], maxShare)*100 +
			weightDaysOverdue*float64(capped)/daysOverdueCap*100 +
			weightOverduePct*safeRatio(e.overdue, e.balance)*100 +
			weightOverdueAmount*safeRatio(e.overdue, maxOverdue)*100
		ranked = append(ranked, CounterpartyRisk{
			Counterparty:   name,
			Balance:        e.balance,
			OverdueBalance: e.overdue,
			DaysOverdue:    e.daysOverdue,
			SharePct:       shares[name],
			Score:          score,
			Band:           classifyRisk(score),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Counterparty < ranked[j].Counterparty
	})
	return ranked
}

// safeRatio divides with a zero denominator replaced by 1, yielding a zero
// contribution instead of NaN.
func safeRatio(value, denom float64) float64 {
	if denom == 0 {
		denom = 1
	}
	return value / denom
}

func classifyRisk(score float64) string {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskModerate
	default:
		return RiskLow
	}
}
