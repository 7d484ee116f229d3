package titles

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var searchNormalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeSearchTerm lowercases a term and strips diacritics so that
// counterparty searches match regardless of accents ("São" vs "Sao").
func NormalizeSearchTerm(s string) string {
	folded, _, err := transform.String(searchNormalizer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// Apply returns the titles matching every populated criterion, classified
// against asOf when a status constraint is present. The input slice is
// never mutated.
func (c FilterCriteria) Apply(set []Title, asOf time.Time) []Title {
	term := ""
	if c.Counterparty != "" {
		term = NormalizeSearchTerm(c.Counterparty)
	}
	out := make([]Title, 0, len(set))
	for _, t := range set {
		if !c.matches(t, term, asOf) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (c FilterCriteria) matches(t Title, term string, asOf time.Time) bool {
	if c.Start != nil && t.IssueDate.Before(*c.Start) {
		return false
	}
	if c.End != nil && t.IssueDate.After(*c.End) {
		return false
	}
	if c.Branch != "" && t.Branch != c.Branch {
		return false
	}
	if c.Category != "" && t.Category != c.Category {
		return false
	}
	if c.DocumentType != "" && t.DocumentType != c.DocumentType {
		return false
	}
	if c.Status != "" && Classify(t, asOf) != c.Status {
		return false
	}
	if term != "" && !strings.Contains(NormalizeSearchTerm(t.Counterparty), term) {
		return false
	}
	return true
}
