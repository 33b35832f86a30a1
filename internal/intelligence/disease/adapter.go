package disease

import (
	"context"
	"sort"

	"github.com/turtacn/SymptomSense/internal/intelligence/symptom"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// DefaultTopK is the number of ranked labels returned by Predict.
const DefaultTopK = 3

// Prediction is one ranked disease label.
type Prediction struct {
	Disease     string  `json:"disease"`
	Probability float64 `json:"confidence"`
}

// BuildFeatureVector returns a {0,1} vector aligned to featureNames.
// Symptoms outside the vocabulary are ignored.
func BuildFeatureVector(symptoms symptom.Set, featureNames []string) []float64 {
	vec := make([]float64, len(featureNames))
	for i, name := range featureNames {
		if symptoms.Has(name) {
			vec[i] = 1
		}
	}
	return vec
}

// Predict returns the DefaultTopK most probable labels for symptoms.
func Predict(ctx context.Context, symptoms symptom.Set, model *ModelArtifact) ([]Prediction, error) {
	return PredictTopK(ctx, symptoms, model, DefaultTopK)
}

// PredictTopK ranks labels by probability, highest first, and keeps k of
// them.  Equal probabilities keep label order.
func PredictTopK(ctx context.Context, symptoms symptom.Set, model *ModelArtifact, k int) ([]Prediction, error) {
	if model == nil || model.Classifier == nil {
		return nil, errors.New(errors.ErrCodeModelNotLoaded, "model is not loaded")
	}
	vec := BuildFeatureVector(symptoms, model.FeatureNames)
	if len(vec) != len(model.FeatureNames) {
		return nil, errors.Newf(errors.ErrCodeInvalidFeatureVector,
			"feature vector has length %d, model expects %d", len(vec), len(model.FeatureNames))
	}

	rows, err := model.Classifier.PredictProba(ctx, [][]float64{vec})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeModelInference, "classifier failed")
	}
	if len(rows) != 1 || len(rows[0]) != len(model.LabelNames) {
		return nil, errors.New(errors.ErrCodeModelInference, "classifier output does not match label vocabulary")
	}
	probs := rows[0]

	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })
	if k > 0 && k < len(idx) {
		idx = idx[:k]
	}

	out := make([]Prediction, len(idx))
	for i, j := range idx {
		out[i] = Prediction{Disease: model.LabelNames[j], Probability: probs[j]}
	}
	return out, nil
}
