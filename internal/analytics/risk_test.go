package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crediview/crediview/internal/titles"
)

func TestRiskNoOverdueComponentsAreZero(t *testing.T) {
	set := []titles.Title{
		openTitle("A", 100),
		openTitle("B", 100),
		openTitle("C", 100),
	}
	ranked := Risk(set, asOf)
	require.Len(t, ranked, 3)
	for _, r := range ranked {
		require.Zero(t, r.OverdueBalance)
		require.Zero(t, r.DaysOverdue)
		// Equal shares normalised by the max share leave only the
		// concentration component: 0.25 * 100.
		require.InDelta(t, 25.0, r.Score, 1e-9)
		require.Equal(t, RiskLow, r.Band)
	}
}

func TestRiskMonotoneInDaysOverdue(t *testing.T) {
	build := func(days int) []titles.Title {
		return []titles.Title{
			overdueTitle("Target", 100, days),
			openTitle("Peer", 100),
		}
	}
	prev := -1.0
	for _, days := range []int{1, 15, 40, 90, 120, 200} {
		ranked := Risk(build(days), asOf)
		var target CounterpartyRisk
		for _, r := range ranked {
			if r.Counterparty == "Target" {
				target = r
			}
		}
		require.GreaterOrEqual(t, target.Score, prev, "days=%d", days)
		prev = target.Score
	}
}

func TestRiskDaysOverdueCapped(t *testing.T) {
	at120 := Risk([]titles.Title{overdueTitle("A", 100, 120)}, asOf)
	at500 := Risk([]titles.Title{overdueTitle("A", 100, 500)}, asOf)
	require.InDelta(t, at120[0].Score, at500[0].Score, 1e-9)
}

func TestRiskFullyOverdueSingleCounterparty(t *testing.T) {
	ranked := Risk([]titles.Title{overdueTitle("A", 100, 150)}, asOf)
	require.Len(t, ranked, 1)
	r := ranked[0]
	// All four components saturate: share=max, days capped, 100% of the
	// balance overdue, overdue amount = portfolio max.
	require.InDelta(t, 100.0, r.Score, 1e-9)
	require.Equal(t, RiskCritical, r.Band)
	require.Equal(t, 150, r.DaysOverdue)
}

func TestRiskBands(t *testing.T) {
	require.Equal(t, RiskCritical, classifyRisk(70))
	require.Equal(t, RiskHigh, classifyRisk(50))
	require.Equal(t, RiskHigh, classifyRisk(69.9))
	require.Equal(t, RiskModerate, classifyRisk(30))
	require.Equal(t, RiskLow, classifyRisk(29.9))
}

func TestRiskRankedByScoreDescending(t *testing.T) {
	set := []titles.Title{
		openTitle("Clean", 50),
		overdueTitle("Late", 50, 60),
		overdueTitle("VeryLate", 50, 119),
	}
	ranked := Risk(set, asOf)
	require.Equal(t, "VeryLate", ranked[0].Counterparty)
	require.Equal(t, "Late", ranked[1].Counterparty)
	require.Equal(t, "Clean", ranked[2].Counterparty)
}

func TestRiskEmptySet(t *testing.T) {
	require.Empty(t, Risk(nil, asOf))
	require.Empty(t, Risk([]titles.Title{{Counterparty: "Settled", OriginalAmount: 10}}, asOf))
}

func TestRiskAggregatesTitlesPerCounterparty(t *testing.T) {
	set := []titles.Title{
		overdueTitle("A", 60, 10),
		openTitle("A", 40),
	}
	ranked := Risk(set, asOf)
	require.Len(t, ranked, 1)
	require.InDelta(t, 100.0, ranked[0].Balance, 1e-9)
	require.InDelta(t, 60.0, ranked[0].OverdueBalance, 1e-9)
	require.Equal(t, 10, ranked[0].DaysOverdue)
}
