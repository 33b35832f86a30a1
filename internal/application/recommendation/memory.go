package recommendation

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

// StaticCatalog is an in-memory MedicationCatalog.  It backs the CLI and
// deployments without a database.
type StaticCatalog struct {
	diseases []string
	meds     map[string][]Medication
}

// NewStaticCatalog copies entries into a catalog.  Disease names are listed
// in lexical order.
func NewStaticCatalog(entries map[string][]Medication) *StaticCatalog {
	c := &StaticCatalog{meds: make(map[string][]Medication, len(entries))}
	for disease, meds := range entries {
		c.diseases = append(c.diseases, disease)
		c.meds[disease] = append([]Medication(nil), meds...)
	}
	sort.Strings(c.diseases)
	return c
}

// DecodeCatalog reads a JSON object mapping disease names to medication
// lists.
func DecodeCatalog(r io.Reader) (*StaticCatalog, error) {
	var entries map[string][]Medication
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogUnavailable, "decode medication catalog")
	}
	return NewStaticCatalog(entries), nil
}

// LoadCatalogFile reads a catalog written in the DecodeCatalog format.
func LoadCatalogFile(path string) (*StaticCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogUnavailable, "open medication catalog").WithDetail(path)
	}
	defer f.Close()
	return DecodeCatalog(f)
}

// Diseases implements MedicationCatalog.
func (c *StaticCatalog) Diseases(context.Context) ([]string, error) {
	return append([]string(nil), c.diseases...), nil
}

// MedicationsFor implements MedicationCatalog.
func (c *StaticCatalog) MedicationsFor(_ context.Context, disease string) ([]Medication, error) {
	return append([]Medication(nil), c.meds[disease]...), nil
}

// StaticInteractions is an in-memory InteractionRepository.
type StaticInteractions struct {
	pairs map[string]Interaction
}

// NewStaticInteractions indexes interactions by their unordered,
// case-insensitive medication pair.
func NewStaticInteractions(interactions ...Interaction) *StaticInteractions {
	s := &StaticInteractions{pairs: make(map[string]Interaction, len(interactions))}
	for _, it := range interactions {
		s.pairs[PairKey(it.Medication1, it.Medication2)] = it
	}
	return s
}

// FindInteraction implements InteractionRepository.
func (s *StaticInteractions) FindInteraction(_ context.Context, a, b string) (*Interaction, bool, error) {
	it, ok := s.pairs[PairKey(a, b)]
	if !ok {
		return nil, false, nil
	}
	return &it, true, nil
}

// PairKey returns the canonical key of an unordered medication pair.
func PairKey(a, b string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

var (
	_ MedicationCatalog     = (*StaticCatalog)(nil)
	_ InteractionRepository = (*StaticInteractions)(nil)
)
