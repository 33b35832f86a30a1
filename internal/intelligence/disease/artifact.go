// Package disease maps canonical symptom sets to ranked disease predictions
// using a frozen multi-class classifier artifact.
package disease

import (
	"context"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

// Classifier returns one probability row per input row, one column per
// class.  Column order is the artifact's label order.
type Classifier interface {
	PredictProba(ctx context.Context, X [][]float64) ([][]float64, error)
}

// Shaped is implemented by classifiers that know their input and output
// widths, so an artifact can be checked before it serves traffic.
type Shaped interface {
	NumFeatures() int
	NumClasses() int
}

// ModelArtifact is a trained classifier with its feature and label
// vocabularies.  It is read-only after loading.
type ModelArtifact struct {
	Classifier   Classifier
	FeatureNames []string
	LabelNames   []string
	// Type names the classifier family ("logistic_regression", ...).
	Type string
}

// Validate checks that the artifact is complete and internally consistent.
func (m *ModelArtifact) Validate() error {
	if m == nil || m.Classifier == nil {
		return errors.New(errors.ErrCodeModelNotLoaded, "model artifact has no classifier")
	}
	if err := uniqueNonEmpty("feature_names", m.FeatureNames); err != nil {
		return err
	}
	if err := uniqueNonEmpty("label_names", m.LabelNames); err != nil {
		return err
	}
	if s, ok := m.Classifier.(Shaped); ok {
		if s.NumFeatures() != len(m.FeatureNames) {
			return errors.Newf(errors.ErrCodeModelNotLoaded,
				"classifier expects %d features, artifact names %d", s.NumFeatures(), len(m.FeatureNames))
		}
		if s.NumClasses() != len(m.LabelNames) {
			return errors.Newf(errors.ErrCodeModelNotLoaded,
				"classifier has %d classes, artifact names %d labels", s.NumClasses(), len(m.LabelNames))
		}
	}
	return nil
}

// HasFeature reports whether name is part of the model vocabulary.
func (m *ModelArtifact) HasFeature(name string) bool {
	for _, f := range m.FeatureNames {
		if f == name {
			return true
		}
	}
	return false
}

func uniqueNonEmpty(field string, names []string) error {
	if len(names) == 0 {
		return errors.Newf(errors.ErrCodeModelNotLoaded, "model artifact %s is empty", field)
	}
	seen := make(map[string]struct{}, len(names))
	for i, n := range names {
		if n == "" {
			return errors.Newf(errors.ErrCodeModelNotLoaded, "model artifact %s[%d] is empty", field, i)
		}
		if _, dup := seen[n]; dup {
			return errors.Newf(errors.ErrCodeModelNotLoaded, "model artifact %s has duplicate %q", field, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
