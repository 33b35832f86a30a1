package symptom

import (
	"context"
	"regexp"
	"strings"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

// ----------------------------------------------------------------------------
// Negation detection
// ----------------------------------------------------------------------------

// noListRe captures "no <item list>" up to the next sentence boundary.  The
// leading word boundary keeps "no" inside words such as "nose" from opening a
// list.
var noListRe = regexp.MustCompile(`(?i)\bno ([\w\s,]+?)(?:\.|,|;|$)`)

// listSepRe splits a captured list into items.
var listSepRe = regexp.MustCompile(`\bor\b|\band\b|,`)

// NegationDetector finds phrases a description marks as absent.
type NegationDetector struct {
	parser Parser
	tables TableProvider
}

// NewNegationDetector creates a detector.  tables may be nil, in which case
// no synonym phrase is protected from negating itself.
func NewNegationDetector(parser Parser, tables TableProvider) *NegationDetector {
	if parser == nil {
		parser = NewRuleParser()
	}
	return &NegationDetector{parser: parser, tables: tables}
}

// DetectNegated returns the lowercase phrases and lemmas judged negated in
// text.  It combines the dependency parse (negation modifiers and the
// subtree of their head) with a regex pass over "no ..." enumerations.
func (d *NegationDetector) DetectNegated(ctx context.Context, text string) (Set, error) {
	var table *SynonymTable
	if d.tables != nil {
		table = d.tables.Table()
	}
	return d.detect(ctx, text, table)
}

func (d *NegationDetector) detect(ctx context.Context, text string, table *SynonymTable) (Set, error) {
	negated := NewSet()
	if strings.TrimSpace(text) == "" {
		return negated, nil
	}

	protected := table.protectedSpans(text)

	doc, err := d.parser.Parse(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, errors.ErrCodeParserFailed, "dependency parse failed")
	}

	for _, tok := range doc.Tokens {
		if tok.Dep != DepNeg || inSpans(protected, tok.Start) {
			continue
		}
		if tok.Head < 0 || tok.Head >= len(doc.Tokens) {
			continue
		}
		head := doc.Tokens[tok.Head]
		for i := head.LeftEdge; i <= head.RightEdge && i < len(doc.Tokens); i++ {
			t := doc.Tokens[i]
			if isNegatableWord(t, table) {
				negated.Add(strings.ToLower(t.Lemma))
			}
		}
		if span := strings.ToLower(doc.SpanText(head.LeftEdge, head.RightEdge)); span != "" {
			negated.Add(span)
		}
	}

	for _, m := range noListRe.FindAllStringSubmatchIndex(text, -1) {
		if inSpans(protected, m[0]) {
			continue
		}
		list := strings.ToLower(text[m[2]:m[3]])
		for _, item := range listSepRe.Split(list, -1) {
			if item = strings.TrimSpace(item); item != "" {
				negated.Add(item)
			}
		}
	}
	return negated, nil
}

func isNegatableWord(t Token, table *SynonymTable) bool {
	switch t.POS {
	case POSNoun, POSPropn, POSAdj:
		return true
	}
	return table != nil && table.Has(strings.ToLower(t.Lemma))
}

func inSpans(spans [][]int, offset int) bool {
	for _, s := range spans {
		if offset >= s[0] && offset < s[1] {
			return true
		}
	}
	return false
}
