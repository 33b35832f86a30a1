package disease

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

func leaf(v float64) TreeNode { return TreeNode{Leaf: &v} }

func sampleTrees() *GradientBoostedTrees {
	return &GradientBoostedTrees{
		Features:  2,
		Classes:   2,
		BaseScore: 0.5,
		Trees: []Tree{
			{Class: 0, Nodes: []TreeNode{{Feature: 0, Threshold: 0.5, Left: 1, Right: 2}, leaf(-1), leaf(1)}},
			{Class: 1, Nodes: []TreeNode{leaf(0.25)}},
		},
	}
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	t.Parallel()

	m := &LogisticRegression{Weights: [][]float64{{1, 0}, {0, 1}}, Intercepts: []float64{0, 0}}
	require.NoError(t, m.check())

	rows, err := m.PredictProba(context.Background(), [][]float64{{1, 0}, {0, 0}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 0.7310585786, rows[0][0], 1e-9)
	assert.InDelta(t, 1.0, rows[0][0]+rows[0][1], 1e-12)
	assert.InDelta(t, 0.5, rows[1][0], 1e-12)

	_, err = m.PredictProba(context.Background(), [][]float64{{1}})
	assert.True(t, errors.IsInvalidFeatureVector(err))
}

func TestLogisticRegression_Check(t *testing.T) {
	t.Parallel()

	bad := []*LogisticRegression{
		{},
		{Weights: [][]float64{{1}}, Intercepts: []float64{0, 1}},
		{Weights: [][]float64{{1, 2}, {1}}, Intercepts: []float64{0, 0}},
	}
	for _, m := range bad {
		assert.True(t, errors.IsModelNotLoaded(m.check()))
	}
}

func TestGradientBoostedTrees_PredictProba(t *testing.T) {
	t.Parallel()

	m := sampleTrees()
	require.NoError(t, m.check())

	rows, err := m.PredictProba(context.Background(), [][]float64{{1, 0}, {0, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 0.6791786992, rows[0][0], 1e-9)
	assert.InDelta(t, 0.2227001388, rows[1][0], 1e-9)
}

func TestGradientBoostedTrees_Check(t *testing.T) {
	t.Parallel()

	cycle := sampleTrees()
	cycle.Trees[0].Nodes[0].Left = 0
	assert.True(t, errors.IsModelNotLoaded(cycle.check()))

	badClass := sampleTrees()
	badClass.Trees[1].Class = 7
	assert.True(t, errors.IsModelNotLoaded(badClass.check()))

	badFeature := sampleTrees()
	badFeature.Trees[0].Nodes[0].Feature = 2
	assert.True(t, errors.IsModelNotLoaded(badFeature.check()))
}

func TestSoftmax_LargeMargins(t *testing.T) {
	t.Parallel()

	p := softmax([]float64{1000, 1000})
	assert.InDelta(t, 0.5, p[0], 1e-12)
	assert.InDelta(t, 0.5, p[1], 1e-12)
}

func TestPredictProba_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sampleTrees().PredictProba(ctx, [][]float64{{0, 0}})
	assert.ErrorIs(t, err, context.Canceled)
}
