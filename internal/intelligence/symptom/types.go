// Package symptom turns free-text patient complaints into canonical symptom
// sets.  It holds the synonym table, the negation detector, the parser and
// embedding backends, and the extractor that combines exact, fuzzy and
// semantic matching.
package symptom

import "sort"

// Set is an unordered collection of unique strings.  It is used both for
// negated phrases and for extracted canonical symptoms.
type Set map[string]struct{}

// NewSet builds a Set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Add inserts item.
func (s Set) Add(item string) { s[item] = struct{}{} }

// Has reports whether item is present.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items.
func (s Set) Len() int { return len(s) }

// Sorted returns the items in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// MatchMethod records which extraction step found a symptom.
type MatchMethod string

const (
	MatchExact    MatchMethod = "exact"
	MatchFuzzy    MatchMethod = "fuzzy"
	MatchSemantic MatchMethod = "semantic"
	MatchCompound MatchMethod = "compound"
)

// Match explains why a canonical symptom was extracted.
type Match struct {
	Symptom string      `json:"symptom"`
	Method  MatchMethod `json:"method"`
	// Evidence is the synonym, description token or compound pair that matched.
	Evidence string  `json:"evidence,omitempty"`
	Score    float64 `json:"score"`
}

// Extraction is the full result of analysing one description.
type Extraction struct {
	Cleaned  string   `json:"cleaned"`
	Negated  []string `json:"negated"`
	Symptoms Set      `json:"-"`
	Matches  []Match  `json:"matches"`
	// Truncated lists symptoms dropped by the maximum-size cap.
	Truncated []string `json:"truncated,omitempty"`
}
