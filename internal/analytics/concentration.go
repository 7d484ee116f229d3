package analytics

import (
	"sort"

	"github.com/crediview/crediview/internal/titles"
)

// Concentration classification bands.
const (
	HHILow      = "LOW"
	HHIModerate = "MODERATE"
	HHIHigh     = "HIGH"

	GiniLow      = "LOW"
	GiniModerate = "MODERATE"
	GiniHigh     = "HIGH"
	GiniVeryHigh = "VERY_HIGH"
)

// CounterpartyShare is one counterparty's slice of the outstanding total.
type CounterpartyShare struct {
	Counterparty string  `json:"counterparty"`
	Balance      float64 `json:"balance"`
	SharePct     float64 `json:"share_pct"`
}

// ConcentrationReport aggregates portfolio-level concentration indices.
type ConcentrationReport struct {
	TotalBalance   float64             `json:"total_balance"`
	Counterparties int                 `json:"counterparties"`
	Shares         []CounterpartyShare `json:"shares"`
	TopN           map[int]float64     `json:"top_n"`
	HHI            float64             `json:"hhi"`
	HHIBand        string              `json:"hhi_band"`
	Gini           float64             `json:"gini"`
	GiniBand       string              `json:"gini_band"`
}

// topNLevels are the concentration cut-offs reported by the dashboard.
var topNLevels = []int{1, 5, 10, 20}

// Concentration computes per-counterparty shares and the portfolio
// concentration indices over the outstanding balance of the given titles.
// Shares are sorted largest first. An empty or fully settled set yields a
// zeroed report with no division errors.
func Concentration(set []titles.Title) ConcentrationReport {
	balances := balanceByCounterparty(set)

	report := ConcentrationReport{
		Counterparties: len(balances),
		TopN:           make(map[int]float64, len(topNLevels)),
	}
	shares := make([]CounterpartyShare, 0, len(balances))
	for name, balance := range balances {
		report.TotalBalance += balance
		shares = append(shares, CounterpartyShare{Counterparty: name, Balance: balance})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Balance != shares[j].Balance {
			return shares[i].Balance > shares[j].Balance
		}
		return shares[i].Counterparty < shares[j].Counterparty
	})

	if report.TotalBalance > 0 {
		for i := range shares {
			shares[i].SharePct = shares[i].Balance / report.TotalBalance * 100
		}
	}
	report.Shares = shares

	for _, n := range topNLevels {
		report.TopN[n] = topShare(shares, n)
	}

	for _, s := range shares {
		report.HHI += s.SharePct * s.SharePct
	}
	report.HHIBand = classifyHHI(report.HHI)

	report.Gini = gini(shares)
	report.GiniBand = classifyGini(report.Gini)
	return report
}

func balanceByCounterparty(set []titles.Title) map[string]float64 {
	balances := make(map[string]float64)
	for _, t := range set {
		if !t.Open() {
			continue
		}
		balances[t.Counterparty] += t.OutstandingBalance
	}
	return balances
}

func topShare(shares []CounterpartyShare, n int) float64 {
	if n > len(shares) {
		n = len(shares)
	}
	var pct float64
	for _, s := range shares[:n] {
		pct += s.SharePct
	}
	return pct
}

// gini derives the coefficient from the Lorenz curve of cumulative balance
// share, integrated by trapezoids and clamped to [0,1]. With every balance
// equal the curve follows the diagonal and the coefficient is 0.
func gini(shares []CounterpartyShare) float64 {
	n := len(shares)
	if n == 0 {
		return 0
	}
	var total float64
	for _, s := range shares {
		total += s.Balance
	}
	if total <= 0 {
		return 0
	}

	// Lorenz curve wants the smallest holders first.
	ascending := make([]float64, n)
	for i, s := range shares {
		ascending[n-1-i] = s.Balance
	}

	var area, cumulative float64
	prev := 0.0
	for _, balance := range ascending {
		cumulative += balance / total
		area += (prev + cumulative) / 2 / float64(n)
		prev = cumulative
	}

	g := (0.5 - area) / 0.5
	if g < 0 {
		return 0
	}
	if g > 1 {
		return 1
	}
	return g
}

func classifyHHI(hhi float64) string {
	switch {
	case hhi < 1500:
		return HHILow
	case hhi <= 2500:
		return HHIModerate
	default:
		return HHIHigh
	}
}

func classifyGini(g float64) string {
	switch {
	case g < 0.3:
		return GiniLow
	case g < 0.5:
		return GiniModerate
	case g < 0.7:
		return GiniHigh
	default:
		return GiniVeryHigh
	}
}
