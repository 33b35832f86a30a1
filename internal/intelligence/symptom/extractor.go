package symptom

import (
	"context"
	"sort"
	"strings"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// ----------------------------------------------------------------------------
// Configuration
// ----------------------------------------------------------------------------

// CompoundRule adds Symptom when both First and Second occur as whole words
// and neither appears in a negated phrase.
type CompoundRule struct {
	First   string `mapstructure:"first" yaml:"first"`
	Second  string `mapstructure:"second" yaml:"second"`
	Symptom string `mapstructure:"symptom" yaml:"symptom"`
}

// DefaultCompoundRules are the built-in two-word heuristics.
var DefaultCompoundRules = []CompoundRule{
	{First: "sharp", Second: "pain", Symptom: "abdominal pain"},
	{First: "burning", Second: "urination", Symptom: "burning urination"},
	{First: "decreased", Second: "appetite", Symptom: "appetite loss"},
	{First: "unusual", Second: "tiredness", Symptom: "fatigue"},
}

// ExtractorConfig tunes the matching steps.
type ExtractorConfig struct {
	// FuzzyCutoff is the minimum sequence ratio for a token/synonym match.
	FuzzyCutoff float64
	// SemanticThreshold must be exceeded by the description/symptom cosine.
	SemanticThreshold float64
	// MaxSymptoms caps the result; the longest names are kept.
	MaxSymptoms int
	Compounds   []CompoundRule
}

// DefaultExtractorConfig returns the production settings.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		FuzzyCutoff:       0.85,
		SemanticThreshold: 0.6,
		MaxSymptoms:       10,
		Compounds:         append([]CompoundRule(nil), DefaultCompoundRules...),
	}
}

func (c ExtractorConfig) withDefaults() ExtractorConfig {
	def := DefaultExtractorConfig()
	if c.FuzzyCutoff <= 0 {
		c.FuzzyCutoff = def.FuzzyCutoff
	}
	if c.SemanticThreshold <= 0 {
		c.SemanticThreshold = def.SemanticThreshold
	}
	if c.MaxSymptoms <= 0 {
		c.MaxSymptoms = def.MaxSymptoms
	}
	if c.Compounds == nil {
		c.Compounds = def.Compounds
	}
	return c
}

// ----------------------------------------------------------------------------
// Extractor
// ----------------------------------------------------------------------------

// Extractor maps a description to canonical symptoms.  It holds no mutable
// state; concurrent calls are safe as long as the embedder is.
type Extractor struct {
	tables   TableProvider
	negation *NegationDetector
	embedder Embedder
	cfg      ExtractorConfig
	logger   logging.Logger
}

// NewExtractor creates an Extractor.  A nil negation detector gets a
// RuleParser-backed one; a nil embedder disables the semantic fallback.
func NewExtractor(tables TableProvider, negation *NegationDetector, embedder Embedder, cfg ExtractorConfig, logger logging.Logger) *Extractor {
	if negation == nil {
		negation = NewNegationDetector(NewRuleParser(), tables)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Extractor{
		tables:   tables,
		negation: negation,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Extract returns the canonical symptoms found in description.
func (e *Extractor) Extract(ctx context.Context, description string) (Set, error) {
	res, err := e.Analyze(ctx, description)
	if err != nil {
		return nil, err
	}
	return res.Symptoms, nil
}

// Analyze is Extract with the intermediate results kept for callers that
// explain their output.
func (e *Extractor) Analyze(ctx context.Context, description string) (*Extraction, error) {
	table := e.tables.Table()
	if table == nil {
		return nil, errors.New(errors.ErrCodeSynonymTableInvalid, "no synonym table loaded")
	}

	cleaned := Preprocess(description)
	words := Words(cleaned)
	wordSet := NewSet(words...)

	negated, err := e.negation.detect(ctx, description, table)
	if err != nil {
		return nil, err
	}
	negatedList := negated.Sorted()

	sem := &semanticScorer{embedder: e.embedder, text: cleaned}

	found := NewSet()
	var matches []Match
	for _, entry := range table.Entries() {
		if isNegatedEntry(entry, negatedList) {
			continue
		}
		if m, ok := e.lexicalMatch(entry, cleaned, words); ok {
			found.Add(entry.Canonical)
			matches = append(matches, m)
			continue
		}
		score, err := sem.score(ctx, entry.Canonical)
		if err != nil {
			return nil, err
		}
		if score > e.cfg.SemanticThreshold {
			found.Add(entry.Canonical)
			matches = append(matches, Match{Symptom: entry.Canonical, Method: MatchSemantic, Evidence: entry.Canonical, Score: score})
		}
	}

	for _, rule := range e.cfg.Compounds {
		if !wordSet.Has(rule.First) || !wordSet.Has(rule.Second) {
			continue
		}
		if compoundNegated(rule, negatedList) || found.Has(rule.Symptom) {
			continue
		}
		found.Add(rule.Symptom)
		matches = append(matches, Match{Symptom: rule.Symptom, Method: MatchCompound, Evidence: rule.First + "+" + rule.Second, Score: 1})
	}

	truncated := capByLength(found, e.cfg.MaxSymptoms)
	if len(truncated) > 0 {
		kept := matches[:0]
		for _, m := range matches {
			if found.Has(m.Symptom) {
				kept = append(kept, m)
			}
		}
		matches = kept
		e.logger.Debug("symptom set truncated",
			logging.Int("max", e.cfg.MaxSymptoms),
			logging.Strings("dropped", truncated))
	}

	return &Extraction{
		Cleaned:   cleaned,
		Negated:   negatedList,
		Symptoms:  found,
		Matches:   matches,
		Truncated: truncated,
	}, nil
}

// lexicalMatch tries each phrase in order: substring of the cleaned
// description first, then fuzzy comparison against every description word.
func (e *Extractor) lexicalMatch(entry Entry, cleaned string, words []string) (Match, bool) {
	for i, form := range entry.forms {
		if form == "" {
			continue
		}
		if strings.Contains(cleaned, form) {
			return Match{Symptom: entry.Canonical, Method: MatchExact, Evidence: entry.Phrases[i], Score: 1}, true
		}
		for _, w := range words {
			if r, ok := closeMatch(w, form, e.cfg.FuzzyCutoff); ok {
				return Match{Symptom: entry.Canonical, Method: MatchFuzzy, Evidence: w, Score: r}, true
			}
		}
	}
	return Match{}, false
}

// isNegatedEntry reports whether any phrase of entry overlaps a negated
// phrase: substring in either direction or a shared token.  One negated
// mention suppresses the symptom even if it is also stated positively.
func isNegatedEntry(entry Entry, negated []string) bool {
	for _, syn := range entry.Phrases {
		for _, n := range negated {
			if strings.Contains(n, syn) || strings.Contains(syn, n) || sharesToken(syn, n) {
				return true
			}
		}
	}
	return false
}

func compoundNegated(rule CompoundRule, negated []string) bool {
	for _, n := range negated {
		if strings.Contains(n, rule.First) || strings.Contains(n, rule.Second) {
			return true
		}
	}
	return false
}

// capByLength removes all but the limit longest names from s, breaking ties
// alphabetically, and returns the removed names in lexical order.
func capByLength(s Set, limit int) []string {
	if limit <= 0 || s.Len() <= limit {
		return nil
	}
	names := s.Sorted()
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})
	dropped := append([]string(nil), names[limit:]...)
	for _, n := range dropped {
		delete(s, n)
	}
	sort.Strings(dropped)
	return dropped
}

// semanticScorer embeds the description at most once, on first use.
type semanticScorer struct {
	embedder Embedder
	text     string
	vec      []float32
	done     bool
}

func (s *semanticScorer) score(ctx context.Context, symptom string) (float64, error) {
	if s.embedder == nil || s.text == "" {
		return 0, nil
	}
	if !s.done {
		vec, err := s.embedder.Embed(ctx, s.text)
		if err != nil {
			return 0, embedError(ctx, err, "embed description")
		}
		s.vec, s.done = vec, true
	}
	vec, err := s.embedder.Embed(ctx, symptom)
	if err != nil {
		return 0, embedError(ctx, err, "embed symptom name")
	}
	return Cosine(s.vec, vec), nil
}

func embedError(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.Wrap(err, errors.ErrCodeEmbeddingFailed, msg)
}
