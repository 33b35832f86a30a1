package symptom

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ----------------------------------------------------------------------------
// Text normalisation
// ----------------------------------------------------------------------------

// nonWordRe matches everything except letters, digits, underscore, whitespace
// and hyphens.
var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s\-]`)

// Preprocess lowercases text, replaces punctuation other than hyphens with
// spaces and collapses runs of whitespace.  Compatibility forms (full-width
// letters, ligatures) are folded with NFKC first.
func Preprocess(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// Words returns the unique whitespace-delimited tokens of cleaned text in
// first-seen order.
func Words(cleaned string) []string {
	fields := strings.Fields(cleaned)
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// sharesToken reports whether a and b have at least one whitespace token in
// common.
func sharesToken(a, b string) bool {
	ta := strings.Fields(a)
	if len(ta) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		set[t] = struct{}{}
	}
	for _, t := range strings.Fields(b) {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// isNegationCue reports whether a lowercased token negates its head.
// Contractions are recognised with straight and curly apostrophes.
func isNegationCue(lower string) bool {
	switch lower {
	case "not", "never", "n't", "n’t", "cannot":
		return true
	}
	return strings.HasSuffix(lower, "n't") || strings.HasSuffix(lower, "n’t")
}

// containsNegationWord reports whether a phrase contains a negation cue or
// the determiner "no".  Such phrases are lexicalised complaints ("no energy",
// "can't breathe") and must not negate themselves.
func containsNegationWord(phrase string) bool {
	for _, tok := range tokenRe.FindAllString(strings.ToLower(phrase), -1) {
		if tok == "no" || tok == "without" || isNegationCue(tok) {
			return true
		}
	}
	return false
}
