package disease

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// ArtifactSource opens the serialized model artifact.
type ArtifactSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Describe identifies the source in logs ("file:/models/x.json").
	Describe() string
}

// FileSource reads the artifact from the local filesystem.
type FileSource struct {
	Path string
}

// Open implements ArtifactSource.
func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

// Describe implements ArtifactSource.
func (s FileSource) Describe() string { return "file:" + s.Path }

// LoadObserver is notified after every load attempt.
type LoadObserver func(source string, d time.Duration, err error)

// ModelLoader loads the artifact once and shares it.  Concurrent callers that
// arrive before the first load completes wait for that single load.  A failed
// load is not cached; the next call tries again.
type ModelLoader struct {
	source   ArtifactSource
	logger   logging.Logger
	observer LoadObserver

	group   singleflight.Group
	current atomic.Pointer[ModelArtifact]
	loads   atomic.Int64
}

// NewModelLoader creates a loader.  observer may be nil.
func NewModelLoader(source ArtifactSource, logger logging.Logger, observer LoadObserver) *ModelLoader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ModelLoader{source: source, logger: logger.Named("model-loader"), observer: observer}
}

// NewStaticLoader serves an artifact that is already in memory.
func NewStaticLoader(m *ModelArtifact) *ModelLoader {
	l := NewModelLoader(nil, nil, nil)
	l.current.Store(m)
	return l
}

// Get returns the loaded artifact, loading it on first use.
func (l *ModelLoader) Get(ctx context.Context) (*ModelArtifact, error) {
	if m := l.current.Load(); m != nil {
		return m, nil
	}
	return l.load(ctx, false)
}

// Reload replaces the served artifact.  The previous artifact stays in
// service if the new one fails to load.
func (l *ModelLoader) Reload(ctx context.Context) (*ModelArtifact, error) {
	return l.load(ctx, true)
}

// Loaded reports whether an artifact is being served.
func (l *ModelLoader) Loaded() bool { return l.current.Load() != nil }

// Loads returns the number of completed load attempts.
func (l *ModelLoader) Loads() int64 { return l.loads.Load() }

func (l *ModelLoader) load(ctx context.Context, force bool) (*ModelArtifact, error) {
	if l.source == nil {
		if m := l.current.Load(); m != nil {
			return m, nil
		}
		return nil, errors.New(errors.ErrCodeModelNotLoaded, "no model source configured")
	}

	key := "load"
	if force {
		key = "reload"
	}
	// The shared load must not die with the first caller's request.
	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		if !force {
			if m := l.current.Load(); m != nil {
				return m, nil
			}
		}
		return l.loadOnce(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ModelArtifact), nil
	}
}

func (l *ModelLoader) loadOnce(ctx context.Context) (*ModelArtifact, error) {
	start := time.Now()
	src := l.source.Describe()

	m, err := func() (*ModelArtifact, error) {
		rc, err := l.source.Open(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeModelNotLoaded, "open model artifact").WithDetail(src)
		}
		defer rc.Close()
		return DecodeArtifact(rc)
	}()

	elapsed := time.Since(start)
	l.loads.Add(1)
	if l.observer != nil {
		l.observer(src, elapsed, err)
	}
	if err != nil {
		l.logger.Error("model artifact load failed",
			logging.String("source", src), logging.Bool("alert", true), logging.Err(err))
		return nil, err
	}

	l.current.Store(m)
	l.logger.Info("model artifact loaded",
		logging.String("source", src),
		logging.String("type", m.Type),
		logging.Int("features", len(m.FeatureNames)),
		logging.Int("labels", len(m.LabelNames)),
		logging.Duration("elapsed", elapsed))
	return m, nil
}
