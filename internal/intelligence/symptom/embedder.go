package symptom

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

// Embedder maps text to a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelID() string
}

// ----------------------------------------------------------------------------
// WordVectors
// ----------------------------------------------------------------------------

// WordVectors is a static word-vector table in the GloVe/word2vec text
// layout: one word per line followed by its components.  Text is embedded as
// the mean of its in-vocabulary token vectors.
type WordVectors struct {
	id      string
	dim     int
	vectors map[string][]float32
}

// LoadWordVectors reads a vector file.  The model id is the file's base name.
func LoadWordVectors(path string) (*WordVectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorsInvalid, "open word vectors").
			WithDetail(fmt.Sprintf("path=%s", path))
	}
	defer f.Close()
	return ParseWordVectors(filepath.Base(path), f)
}

// ParseWordVectors reads vectors from r.  A word2vec header line ("<count>
// <dim>") is skipped.  Every vector must have the same dimension.
func ParseWordVectors(id string, r io.Reader) (*WordVectors, error) {
	wv := &WordVectors{id: id, vectors: map[string][]float32{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && len(fields) == 2 && isDigits(fields[0]) && isDigits(fields[1]) {
			continue
		}
		if len(fields) < 2 {
			return nil, errors.Newf(errors.ErrCodeVectorsInvalid, "line %d has no components", line)
		}
		vec := make([]float32, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrCodeVectorsInvalid, "line %d component %d", line, i+1)
			}
			vec[i] = float32(v)
		}
		if wv.dim == 0 {
			wv.dim = len(vec)
		} else if len(vec) != wv.dim {
			return nil, errors.Newf(errors.ErrCodeVectorsInvalid, "line %d has dimension %d, want %d", line, len(vec), wv.dim)
		}
		wv.vectors[strings.ToLower(fields[0])] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorsInvalid, "read word vectors")
	}
	if len(wv.vectors) == 0 {
		return nil, errors.New(errors.ErrCodeVectorsInvalid, "word vector table is empty")
	}
	return wv, nil
}

// NewWordVectors builds a table from an in-memory map.
func NewWordVectors(id string, vectors map[string][]float32) (*WordVectors, error) {
	wv := &WordVectors{id: id, vectors: make(map[string][]float32, len(vectors))}
	for w, v := range vectors {
		if wv.dim == 0 {
			wv.dim = len(v)
		}
		if len(v) == 0 || len(v) != wv.dim {
			return nil, errors.Newf(errors.ErrCodeVectorsInvalid, "vector for %q has dimension %d", w, len(v))
		}
		wv.vectors[strings.ToLower(w)] = append([]float32(nil), v...)
	}
	if len(wv.vectors) == 0 {
		return nil, errors.New(errors.ErrCodeVectorsInvalid, "word vector table is empty")
	}
	return wv, nil
}

// ModelID implements Embedder.
func (w *WordVectors) ModelID() string { return w.id }

// Dim returns the vector dimension.
func (w *WordVectors) Dim() int { return w.dim }

// Len returns the vocabulary size.
func (w *WordVectors) Len() int { return len(w.vectors) }

// Embed implements Embedder.  Text with no known token maps to the zero
// vector.
func (w *WordVectors) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float32, w.dim)
	n := 0
	for _, tok := range strings.Fields(Preprocess(text)) {
		vec, ok := w.vectors[tok]
		if !ok {
			continue
		}
		for i, v := range vec {
			out[i] += v
		}
		n++
	}
	if n > 0 {
		for i := range out {
			out[i] /= float32(n)
		}
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// CachedEmbedder
// ----------------------------------------------------------------------------

// DefaultEmbeddingCacheSize bounds CachedEmbedder when no size is given.
const DefaultEmbeddingCacheSize = 4096

// CachedEmbedder memoises another Embedder.  Symptom names are embedded on
// every request, so their vectors are almost always cache hits.
type CachedEmbedder struct {
	inner Embedder
	max   int

	mu    sync.RWMutex
	cache map[string][]float32
	order []string
}

// NewCachedEmbedder wraps inner with a FIFO cache of at most size vectors.
func NewCachedEmbedder(inner Embedder, size int) *CachedEmbedder {
	if size <= 0 {
		size = DefaultEmbeddingCacheSize
	}
	return &CachedEmbedder{inner: inner, max: size, cache: make(map[string][]float32, size)}
}

// ModelID implements Embedder.
func (c *CachedEmbedder) ModelID() string { return c.inner.ModelID() }

// Embed implements Embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	c.mu.RLock()
	vec, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cloneVector(vec), nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if _, exists := c.cache[key]; !exists {
		if len(c.order) >= c.max {
			delete(c.cache, c.order[0])
			c.order = c.order[1:]
		}
		c.cache[key] = cloneVector(vec)
		c.order = append(c.order, key)
	}
	c.mu.Unlock()
	return vec, nil
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, c.inner.ModelID())
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

func cloneVector(v []float32) []float32 {
	return append([]float32(nil), v...)
}
