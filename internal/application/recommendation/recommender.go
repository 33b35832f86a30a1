package recommendation

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// ----------------------------------------------------------------------------
// Configuration
// ----------------------------------------------------------------------------

const (
	DefaultCandidateLimit = 10
	DefaultPerDisease     = 5
	DefaultRelevanceRatio = 0.5
)

// Config bounds the recommendation lists.
type Config struct {
	// CandidateLimit caps the ranked list before history filtering.
	CandidateLimit int
	// PerDisease caps the list returned after filtering.
	PerDisease int
	// RelevanceRatio is the share of disease words that must appear in a
	// medication's instructions or dosage.
	RelevanceRatio float64
}

func (c Config) withDefaults() Config {
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = DefaultCandidateLimit
	}
	if c.PerDisease <= 0 {
		c.PerDisease = DefaultPerDisease
	}
	if c.RelevanceRatio <= 0 {
		c.RelevanceRatio = DefaultRelevanceRatio
	}
	return c
}

// ----------------------------------------------------------------------------
// Recommender
// ----------------------------------------------------------------------------

// Recommender ranks catalog medications for a disease.
type Recommender struct {
	catalog      MedicationCatalog
	interactions InteractionRepository
	cfg          Config
	logger       logging.Logger
}

// NewRecommender creates a Recommender.  interactions may be nil, in which
// case no interactions are ever reported.
func NewRecommender(catalog MedicationCatalog, interactions InteractionRepository, cfg Config, logger logging.Logger) *Recommender {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Recommender{
		catalog:      catalog,
		interactions: interactions,
		cfg:          cfg.withDefaults(),
		logger:       logger.Named("recommender"),
	}
}

// Recommend returns medications for disease, screened against history.
//
// Catalog diseases are matched exactly, then after normalisation, then by
// containment in either direction.  Medications whose text does not mention
// enough of the disease words are skipped.  The rest are ranked by how
// complete their entry is, the top CandidateLimit are filtered by history
// and at most PerDisease are returned.
func (r *Recommender) Recommend(ctx context.Context, disease string, history *PatientHistory) ([]Medication, error) {
	names, err := r.catalog.Diseases(ctx)
	if err != nil {
		return nil, catalogError(err)
	}
	matches := matchDiseases(disease, names)
	if len(matches) == 0 {
		r.logger.Debug("no catalog disease matched", logging.String("disease", disease))
		return nil, nil
	}

	words := diseaseWords(disease)
	var candidates []Medication
	for _, name := range matches {
		meds, err := r.catalog.MedicationsFor(ctx, name)
		if err != nil {
			return nil, catalogError(err)
		}
		for _, med := range meds {
			if isRelevant(med, words, r.cfg.RelevanceRatio) {
				candidates = append(candidates, med)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return completeness(candidates[i]) > completeness(candidates[j])
	})
	if len(candidates) > r.cfg.CandidateLimit {
		candidates = candidates[:r.cfg.CandidateLimit]
	}

	kept := FilterByHistory(candidates, history)
	if dropped := len(candidates) - len(kept); dropped > 0 {
		r.logger.Debug("medications excluded by patient history",
			logging.String("disease", disease),
			logging.Int("excluded", dropped))
	}
	if len(kept) > r.cfg.PerDisease {
		kept = kept[:r.cfg.PerDisease]
	}
	return kept, nil
}

// CheckInteractions looks up every unordered pair drawn from prescribed and
// current.  Pairs naming the same medication are skipped.
func (r *Recommender) CheckInteractions(ctx context.Context, prescribed, current []string) ([]Interaction, error) {
	if r.interactions == nil {
		return nil, nil
	}

	all := make([]string, 0, len(prescribed)+len(current))
	all = append(all, prescribed...)
	all = append(all, current...)

	var found []Interaction
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if strings.EqualFold(all[i], all[j]) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			it, ok, err := r.interactions.FindInteraction(ctx, all[i], all[j])
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInteractionLookup, "drug interaction lookup failed").
					WithDetailf("pair=%s/%s", all[i], all[j])
			}
			if !ok {
				continue
			}
			out := *it
			out.Medication1, out.Medication2 = all[i], all[j]
			found = append(found, out)
		}
	}
	return found, nil
}

func catalogError(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.Wrap(err, errors.ErrCodeCatalogUnavailable, "medication catalog unavailable")
}

// ----------------------------------------------------------------------------
// Matching helpers
// ----------------------------------------------------------------------------

var punctRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// normalizeText lowercases text and strips punctuation.
func normalizeText(text string) string {
	return strings.TrimSpace(punctRe.ReplaceAllString(strings.ToLower(text), ""))
}

// matchDiseases returns the catalog names matching disease in priority
// order without duplicates.
func matchDiseases(disease string, catalog []string) []string {
	target := normalizeText(disease)
	if target == "" {
		return nil
	}

	seen := make(map[string]struct{}, len(catalog))
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, name := range catalog {
		if name == disease {
			add(name)
		}
	}
	for _, name := range catalog {
		if normalizeText(name) == target {
			add(name)
		}
	}
	for _, name := range catalog {
		n := normalizeText(name)
		if n != "" && (strings.Contains(n, target) || strings.Contains(target, n)) {
			add(name)
		}
	}
	return out
}

func diseaseWords(disease string) []string {
	fields := strings.Fields(normalizeText(disease))
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; !ok {
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// isRelevant reports whether at least ratio of words occur in the
// medication's instructions or dosage.
func isRelevant(med Medication, words []string, ratio float64) bool {
	text := strings.ToLower(med.Instructions + " " + med.Dosage)
	hits := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			hits++
		}
	}
	return float64(hits) >= float64(len(words))*ratio
}

// completeness scores how much of the entry is filled in.
func completeness(med Medication) int {
	score := 0
	if med.Dosage != "" {
		score += 2
	}
	if med.Instructions != "" {
		score += 2
	}
	if med.GenericName != "" {
		score++
	}
	return score
}
