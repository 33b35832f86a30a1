package disease

import (
	"sort"

	"github.com/turtacn/SymptomSense/internal/intelligence/symptom"
)

// VocabularyReport compares the synonym table with a model vocabulary.
type VocabularyReport struct {
	// Unmapped symptoms can be extracted but never influence a prediction.
	Unmapped []string `json:"unmapped"`
	// Unreachable features can never be set by extraction.
	Unreachable []string `json:"unreachable"`
}

// VocabularyGaps returns the canonical symptoms of table that are missing
// from featureNames, in lexical order.
func VocabularyGaps(table *symptom.SynonymTable, featureNames []string) []string {
	return CompareVocabulary(table, featureNames, nil).Unmapped
}

// CompareVocabulary builds a VocabularyReport.  extra lists symptoms produced
// outside the table (compound rules) that count as reachable.
func CompareVocabulary(table *symptom.SynonymTable, featureNames []string, extra []string) VocabularyReport {
	features := symptom.NewSet(featureNames...)
	reachable := symptom.NewSet(extra...)

	var rep VocabularyReport
	if table != nil {
		for _, c := range table.Canonicals() {
			reachable.Add(c)
			if !features.Has(c) {
				rep.Unmapped = append(rep.Unmapped, c)
			}
		}
	}
	for _, f := range featureNames {
		if !reachable.Has(f) {
			rep.Unreachable = append(rep.Unreachable, f)
		}
	}
	sort.Strings(rep.Unreachable)
	return rep
}
