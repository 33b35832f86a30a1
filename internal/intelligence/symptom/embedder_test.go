package symptom

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

const sampleVectors = `3 2
fever 1.0 0.0
high 0.0 1.0
cough -1 0
`

func TestParseWordVectors(t *testing.T) {
	t.Parallel()

	wv, err := ParseWordVectors("sample", strings.NewReader(sampleVectors))
	require.NoError(t, err)
	assert.Equal(t, "sample", wv.ModelID())
	assert.Equal(t, 2, wv.Dim())
	assert.Equal(t, 3, wv.Len())
}

func TestParseWordVectors_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"empty":        "",
		"ragged":       "a 1 2\nb 1\n",
		"not a number": "a 1 x\n",
		"word only":    "a\n",
		"header only":  "10 300\n",
	}
	for name, input := range tests {
		input := input
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseWordVectors("bad", strings.NewReader(input))
			assert.True(t, errors.IsCode(err, errors.ErrCodeVectorsInvalid), "got %v", err)
		})
	}
}

func TestLoadWordVectors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "glove.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleVectors), 0o644))

	wv, err := LoadWordVectors(path)
	require.NoError(t, err)
	assert.Equal(t, "glove.txt", wv.ModelID())

	_, err = LoadWordVectors(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeVectorsInvalid))
}

func TestWordVectors_Embed(t *testing.T) {
	t.Parallel()

	wv, err := ParseWordVectors("sample", strings.NewReader(sampleVectors))
	require.NoError(t, err)

	vec, err := wv.Embed(context.Background(), "High fever!")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.5, 0.5}, vec, 1e-6)

	vec, err = wv.Embed(context.Background(), "unknown words")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, vec)
	assert.Zero(t, Cosine(vec, []float32{1, 0}))
}

func TestNewWordVectors_DimensionMismatch(t *testing.T) {
	t.Parallel()

	_, err := NewWordVectors("x", map[string][]float32{"a": {1, 2}, "b": {1}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeVectorsInvalid))
}

func TestCachedEmbedder(t *testing.T) {
	t.Parallel()

	inner := &stubEmbedder{def: []float32{1, 2}}
	cached := NewCachedEmbedder(inner, 2)

	for i := 0; i < 3; i++ {
		vec, err := cached.Embed(context.Background(), "fever")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2}, vec)
	}
	assert.Equal(t, 1, inner.calls)

	// Mutating a returned vector must not poison the cache.
	vec, _ := cached.Embed(context.Background(), "fever")
	vec[0] = 42
	again, _ := cached.Embed(context.Background(), "fever")
	assert.Equal(t, float32(1), again[0])

	_, _ = cached.Embed(context.Background(), "cough")
	_, _ = cached.Embed(context.Background(), "rash")
	assert.Equal(t, 2, cached.Len())
	_, _ = cached.Embed(context.Background(), "fever")
	assert.Equal(t, 4, inner.calls, "oldest entry was evicted")
	assert.Equal(t, "stub", cached.ModelID())
}

func TestCachedEmbedder_ErrorNotCached(t *testing.T) {
	t.Parallel()

	inner := &stubEmbedder{err: assert.AnError}
	cached := NewCachedEmbedder(inner, 0)
	_, err := cached.Embed(context.Background(), "fever")
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, cached.Len())
}
