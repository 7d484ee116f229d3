package titles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleSet() []Title {
	issue := func(day int) time.Time {
		return time.Date(2026, 2, day, 0, 0, 0, 0, time.UTC)
	}
	return []Title{
		{Counterparty: "Açúcar União Ltda", Branch: "SP", Category: "Vendas", DocumentType: "NF", IssueDate: issue(1), DueDate: datePtr(asOf.AddDate(0, 0, -5)), OriginalAmount: 100, OutstandingBalance: 100},
		{Counterparty: "Mercado Central", Branch: "RJ", Category: "Vendas", DocumentType: "NF", IssueDate: issue(10), DueDate: datePtr(asOf.AddDate(0, 0, 10)), OriginalAmount: 200, OutstandingBalance: 150},
		{Counterparty: "Distribuidora Sao Jose", Branch: "SP", Category: "Serviços", DocumentType: "Boleto", IssueDate: issue(20), DueDate: datePtr(asOf.AddDate(0, 0, 40)), OriginalAmount: 300, OutstandingBalance: 0},
	}
}

func TestApplyNoCriteriaReturnsAll(t *testing.T) {
	set := sampleSet()
	got := FilterCriteria{}.Apply(set, asOf)
	require.Len(t, got, 3)
}

func TestApplyDateRange(t *testing.T) {
	set := sampleSet()
	start := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	got := FilterCriteria{Start: &start, End: &end}.Apply(set, asOf)
	require.Len(t, got, 1)
	require.Equal(t, "Mercado Central", got[0].Counterparty)
}

func TestApplyDimensions(t *testing.T) {
	set := sampleSet()

	got := FilterCriteria{Branch: "SP"}.Apply(set, asOf)
	require.Len(t, got, 2)

	got = FilterCriteria{Branch: "SP", Category: "Serviços"}.Apply(set, asOf)
	require.Len(t, got, 1)
	require.Equal(t, "Boleto", got[0].DocumentType)

	got = FilterCriteria{DocumentType: "NF", Status: StatusOverdue}.Apply(set, asOf)
	require.Len(t, got, 1)
	require.Equal(t, "Açúcar União Ltda", got[0].Counterparty)
}

func TestApplyCounterpartySearchFoldsAccentsAndCase(t *testing.T) {
	set := sampleSet()

	got := FilterCriteria{Counterparty: "acucar"}.Apply(set, asOf)
	require.Len(t, got, 1)
	require.Equal(t, "Açúcar União Ltda", got[0].Counterparty)

	// Accented query against unaccented data.
	got = FilterCriteria{Counterparty: "São José"}.Apply(set, asOf)
	require.Len(t, got, 1)
	require.Equal(t, "Distribuidora Sao Jose", got[0].Counterparty)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	set := sampleSet()
	before := make([]Title, len(set))
	copy(before, set)
	_ = FilterCriteria{Branch: "SP"}.Apply(set, asOf)
	require.Equal(t, before, set)
}
