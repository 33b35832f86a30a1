package prediction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/SymptomSense/pkg/errors"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	// CacheKeyPrefix starts every key written by CachedPredictor.
	CacheKeyPrefix = "prediction:"
)

// ResultCache stores serialised results.  Get reports a miss with an
// ErrCodeNotFound error.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheMetrics counts cache lookups.
type CacheMetrics interface {
	ObserveCacheLookup(hit bool)
}

// CachedPredictor serves repeated descriptions from a ResultCache.  Only
// successful results are stored and cache failures never fail a request.
type CachedPredictor struct {
	inner   Predictor
	cache   ResultCache
	ttl     time.Duration
	metrics CacheMetrics
	logger  logging.Logger
}

// NewCachedPredictor wraps inner.  metrics and logger may be nil.
func NewCachedPredictor(inner Predictor, cache ResultCache, ttl time.Duration, metrics CacheMetrics, logger logging.Logger) *CachedPredictor {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CachedPredictor{inner: inner, cache: cache, ttl: ttl, metrics: metrics, logger: logger.Named("prediction-cache")}
}

// PredictFromText implements Predictor.
func (c *CachedPredictor) PredictFromText(ctx context.Context, description string) (*Result, error) {
	key := CacheKey(description)

	var cached Result
	err := c.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		c.observe(true)
		return &cached, nil
	case apperrors.IsNotFound(err):
		c.observe(false)
	default:
		c.observe(false)
		c.logger.Warn("prediction cache read failed", logging.Err(err))
	}

	res, err := c.inner.PredictFromText(ctx, description)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, res, c.ttl); err != nil {
		c.logger.Warn("prediction cache write failed", logging.Err(err))
	}
	return res, nil
}

func (c *CachedPredictor) observe(hit bool) {
	if c.metrics != nil {
		c.metrics.ObserveCacheLookup(hit)
	}
}

// CacheKey derives the cache key for a description.  Case and whitespace
// runs are folded; punctuation is kept because it bounds negation scope.
func CacheKey(description string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(norm.NFKC.String(description))), " ")
	sum := sha256.Sum256([]byte(normalized))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}

var _ Predictor = (*CachedPredictor)(nil)
