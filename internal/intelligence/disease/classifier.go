package disease

import (
	"context"
	"math"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

// Classifier families understood by the artifact codec.
const (
	TypeLogisticRegression   = "logistic_regression"
	TypeGradientBoostedTrees = "gradient_boosted_trees"
)

// ----------------------------------------------------------------------------
// Multinomial logistic regression
// ----------------------------------------------------------------------------

// LogisticRegression is a softmax classifier: p = softmax(W·x + b).
type LogisticRegression struct {
	// Weights[class][feature].
	Weights    [][]float64 `json:"weights"`
	Intercepts []float64   `json:"intercepts"`
}

// NumFeatures implements Shaped.
func (m *LogisticRegression) NumFeatures() int {
	if len(m.Weights) == 0 {
		return 0
	}
	return len(m.Weights[0])
}

// NumClasses implements Shaped.
func (m *LogisticRegression) NumClasses() int { return len(m.Weights) }

func (m *LogisticRegression) check() error {
	if len(m.Weights) == 0 {
		return errors.New(errors.ErrCodeModelNotLoaded, "logistic regression has no weights")
	}
	if len(m.Intercepts) != len(m.Weights) {
		return errors.Newf(errors.ErrCodeModelNotLoaded,
			"logistic regression has %d intercepts for %d classes", len(m.Intercepts), len(m.Weights))
	}
	width := len(m.Weights[0])
	for c, row := range m.Weights {
		if len(row) != width || width == 0 {
			return errors.Newf(errors.ErrCodeModelNotLoaded, "logistic regression weight row %d has width %d", c, len(row))
		}
	}
	return nil
}

// PredictProba implements Classifier.
func (m *LogisticRegression) PredictProba(ctx context.Context, X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for r, x := range X {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(x) != m.NumFeatures() {
			return nil, errors.Newf(errors.ErrCodeInvalidFeatureVector, "row %d has %d features, want %d", r, len(x), m.NumFeatures())
		}
		scores := make([]float64, len(m.Weights))
		for c, w := range m.Weights {
			s := m.Intercepts[c]
			for i, v := range x {
				s += w[i] * v
			}
			scores[c] = s
		}
		out[r] = softmax(scores)
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Gradient-boosted trees
// ----------------------------------------------------------------------------

// TreeNode is one node of a regression tree in flat array form.  A node with
// Leaf set is terminal; otherwise rows with x[Feature] < Threshold go to
// Left and the rest to Right.
type TreeNode struct {
	Feature   int      `json:"feature,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
	Left      int      `json:"left,omitempty"`
	Right     int      `json:"right,omitempty"`
	Leaf      *float64 `json:"leaf,omitempty"`
}

// Tree is a regression tree rooted at Nodes[0].
type Tree struct {
	Class int        `json:"class"`
	Nodes []TreeNode `json:"nodes"`
}

// GradientBoostedTrees is a multi-class boosted ensemble: each class sums the
// leaves of its trees on top of BaseScore and the margins go through
// softmax.
type GradientBoostedTrees struct {
	Features  int     `json:"num_features"`
	Classes   int     `json:"num_classes"`
	BaseScore float64 `json:"base_score"`
	Trees     []Tree  `json:"trees"`
}

// NumFeatures implements Shaped.
func (m *GradientBoostedTrees) NumFeatures() int { return m.Features }

// NumClasses implements Shaped.
func (m *GradientBoostedTrees) NumClasses() int { return m.Classes }

func (m *GradientBoostedTrees) check() error {
	if m.Features <= 0 || m.Classes < 2 {
		return errors.Newf(errors.ErrCodeModelNotLoaded,
			"boosted trees need features > 0 and classes >= 2, got %d/%d", m.Features, m.Classes)
	}
	if len(m.Trees) == 0 {
		return errors.New(errors.ErrCodeModelNotLoaded, "boosted trees has no trees")
	}
	for t, tree := range m.Trees {
		if tree.Class < 0 || tree.Class >= m.Classes {
			return errors.Newf(errors.ErrCodeModelNotLoaded, "tree %d targets class %d", t, tree.Class)
		}
		if len(tree.Nodes) == 0 {
			return errors.Newf(errors.ErrCodeModelNotLoaded, "tree %d is empty", t)
		}
		for n, node := range tree.Nodes {
			if node.Leaf != nil {
				continue
			}
			// Children must come after their parent, which also rules out cycles.
			if node.Feature < 0 || node.Feature >= m.Features ||
				node.Left <= n || node.Left >= len(tree.Nodes) ||
				node.Right <= n || node.Right >= len(tree.Nodes) {
				return errors.Newf(errors.ErrCodeModelNotLoaded, "tree %d node %d is malformed", t, n)
			}
		}
	}
	return nil
}

// PredictProba implements Classifier.
func (m *GradientBoostedTrees) PredictProba(ctx context.Context, X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for r, x := range X {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(x) != m.Features {
			return nil, errors.Newf(errors.ErrCodeInvalidFeatureVector, "row %d has %d features, want %d", r, len(x), m.Features)
		}
		margins := make([]float64, m.Classes)
		for c := range margins {
			margins[c] = m.BaseScore
		}
		for _, tree := range m.Trees {
			margins[tree.Class] += tree.score(x)
		}
		out[r] = softmax(margins)
	}
	return out, nil
}

func (t Tree) score(x []float64) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Leaf != nil {
			return *node.Leaf
		}
		if x[node.Feature] < node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// softmax is numerically stable for large margins.
func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
