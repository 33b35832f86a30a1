package symptom

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

//go:embed data/synonyms.yaml
var defaultSynonymsYAML []byte

// Entry is one canonical symptom and its surface forms.
type Entry struct {
	Canonical string
	// Phrases are lowercase surface forms as maintained in the data file.
	Phrases []string
	// forms are Phrases passed through Preprocess, aligned by index.
	forms []string
}

// SynonymTable maps canonical symptom names to surface phrases.  It is
// immutable after construction and safe for concurrent readers.
type SynonymTable struct {
	entries []Entry
	index   map[string]int
	// negative holds phrases that contain a negation word ("no energy").
	negative   []string
	negativeRe *regexp.Regexp
}

// TableProvider yields the synonym table snapshot to use for one request.
type TableProvider interface {
	Table() *SynonymTable
}

// Table lets a *SynonymTable serve as its own static TableProvider.
func (t *SynonymTable) Table() *SynonymTable { return t }

// NewSynonymTable validates raw and builds a table.  Canonical names and
// phrases are lowercased and trimmed, empty phrases are dropped, and every
// canonical name is included among its own phrases.
func NewSynonymTable(raw map[string][]string) (*SynonymTable, error) {
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeSynonymTableInvalid, "synonym table is empty")
	}

	merged := make(map[string]map[string]struct{}, len(raw))
	for key, phrases := range raw {
		canonical := strings.ToLower(strings.TrimSpace(key))
		if canonical == "" {
			return nil, errors.New(errors.ErrCodeSynonymTableInvalid, "synonym table contains an empty canonical name")
		}
		set, ok := merged[canonical]
		if !ok {
			set = map[string]struct{}{canonical: {}}
			merged[canonical] = set
		}
		for _, p := range phrases {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" {
				set[p] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	t := &SynonymTable{
		entries: make([]Entry, 0, len(names)),
		index:   make(map[string]int, len(names)),
	}
	negative := map[string]struct{}{}
	for _, name := range names {
		phrases := make([]string, 0, len(merged[name]))
		for p := range merged[name] {
			phrases = append(phrases, p)
		}
		sort.Strings(phrases)

		forms := make([]string, len(phrases))
		for i, p := range phrases {
			forms[i] = Preprocess(p)
			if containsNegationWord(p) {
				negative[p] = struct{}{}
			}
		}
		t.index[name] = len(t.entries)
		t.entries = append(t.entries, Entry{Canonical: name, Phrases: phrases, forms: forms})
	}
	for p := range negative {
		t.negative = append(t.negative, p)
	}
	sort.Strings(t.negative)
	t.negativeRe = phraseRegexp(t.negative)
	return t, nil
}

// ParseSynonymTable decodes a YAML mapping of canonical name to phrase list.
func ParseSynonymTable(data []byte) (*SynonymTable, error) {
	raw := map[string][]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSynonymTableInvalid, "decode synonym table")
	}
	return NewSynonymTable(raw)
}

// LoadSynonymTable reads a YAML synonym table from path.
func LoadSynonymTable(path string) (*SynonymTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSynonymTableInvalid, "read synonym table").
			WithDetail(fmt.Sprintf("path=%s", path))
	}
	return ParseSynonymTable(data)
}

// DefaultSynonymTable returns the table compiled into the binary.
func DefaultSynonymTable() *SynonymTable {
	t, err := ParseSynonymTable(defaultSynonymsYAML)
	if err != nil {
		panic(fmt.Sprintf("symptom: embedded synonym table is invalid: %v", err))
	}
	return t
}

// Len returns the number of canonical symptoms.
func (t *SynonymTable) Len() int { return len(t.entries) }

// Entries returns entries sorted by canonical name.  Callers must not mutate
// the returned phrase slices.
func (t *SynonymTable) Entries() []Entry { return t.entries }

// Canonicals returns the canonical names in lexical order.
func (t *SynonymTable) Canonicals() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Canonical
	}
	return out
}

// Has reports whether canonical is a key of the table.
func (t *SynonymTable) Has(canonical string) bool {
	_, ok := t.index[canonical]
	return ok
}

// Phrases returns the surface forms of canonical, or nil.
func (t *SynonymTable) Phrases(canonical string) []string {
	i, ok := t.index[canonical]
	if !ok {
		return nil
	}
	return t.entries[i].Phrases
}

// protectedSpans returns the byte ranges of text occupied by negative
// phrases, matched case-insensitively.
func (t *SynonymTable) protectedSpans(text string) [][]int {
	if t == nil || t.negativeRe == nil {
		return nil
	}
	return t.negativeRe.FindAllStringIndex(text, -1)
}

func phraseRegexp(phrases []string) *regexp.Regexp {
	if len(phrases) == 0 {
		return nil
	}
	sorted := append([]string(nil), phrases...)
	// Longest first so that overlapping phrases claim the widest range.
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	alts := make([]string, len(sorted))
	for i, p := range sorted {
		alt := regexp.QuoteMeta(p)
		if wordByte(p[0]) {
			alt = `\b` + alt
		}
		if wordByte(p[len(p)-1]) {
			alt += `\b`
		}
		alts[i] = alt
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}

func wordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
