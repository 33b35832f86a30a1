package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymptomSense/internal/intelligence/disease"
	"github.com/turtacn/SymptomSense/internal/testutil"
	apperrors "github.com/turtacn/SymptomSense/pkg/errors"
)

var cacheMiss = apperrors.New(apperrors.ErrCodeNotFound, "cache miss")

func sampleResult() *Result {
	return &Result{
		Symptoms:    []string{"fever"},
		Predictions: []disease.Prediction{{Disease: "influenza", Probability: 0.8}},
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	base := CacheKey("No fever, cough")
	assert.Equal(t, base, CacheKey("  no FEVER,   cough "))
	assert.NotEqual(t, base, CacheKey("no fever cough"), "punctuation changes negation scope")
	assert.Contains(t, base, "prediction:")
	assert.Len(t, base, len("prediction:")+64)
}

func TestCachedPredictor_MissStoresResult(t *testing.T) {
	t.Parallel()

	key := CacheKey("fever")
	cache := new(MockCache)
	cache.On("Get", mock.Anything, key, mock.Anything).Return(cacheMiss)
	cache.On("Set", mock.Anything, key, sampleResult(), time.Minute).Return(nil)
	inner := new(MockPredictor)
	inner.On("PredictFromText", mock.Anything, "fever").Return(sampleResult(), nil)
	metrics := &recordingMetrics{}

	cp := NewCachedPredictor(inner, cache, time.Minute, metrics, nil)
	res, err := cp.PredictFromText(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), res)
	cache.AssertExpectations(t)
	assert.Equal(t, []bool{false}, metrics.hits)
}

func TestCachedPredictor_HitSkipsPipeline(t *testing.T) {
	t.Parallel()

	cache := new(MockCache)
	cache.On("Get", mock.Anything, CacheKey("fever"), mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(2).(*Result) = *sampleResult()
		}).
		Return(nil)
	inner := new(MockPredictor)
	metrics := &recordingMetrics{}

	cp := NewCachedPredictor(inner, cache, 0, metrics, nil)
	res, err := cp.PredictFromText(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), res)
	inner.AssertNotCalled(t, "PredictFromText", mock.Anything, mock.Anything)
	assert.Equal(t, []bool{true}, metrics.hits)
}

func TestCachedPredictor_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	cache := new(MockCache)
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(cacheMiss)
	inner := new(MockPredictor)
	inner.On("PredictFromText", mock.Anything, "no fever").
		Return(nil, apperrors.New(apperrors.ErrCodeNoSymptomsDetected, "none"))

	cp := NewCachedPredictor(inner, cache, time.Minute, nil, nil)
	_, err := cp.PredictFromText(context.Background(), "no fever")
	assert.True(t, apperrors.IsNoSymptomsDetected(err))
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedPredictor_CacheFailuresAreBypassed(t *testing.T) {
	t.Parallel()

	unavailable := apperrors.New(apperrors.ErrCodeCacheError, "connection refused")
	cache := new(MockCache)
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(unavailable)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(unavailable)
	inner := new(MockPredictor)
	inner.On("PredictFromText", mock.Anything, "fever").Return(sampleResult(), nil)
	logger := testutil.NewMockLogger()

	cp := NewCachedPredictor(inner, cache, time.Minute, nil, logger)
	res, err := cp.PredictFromText(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), res)
	assert.True(t, logger.HasMessage("warn", "prediction cache read failed"))
	assert.True(t, logger.HasMessage("warn", "prediction cache write failed"))
}
