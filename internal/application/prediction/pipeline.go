// Package prediction is the application service that turns a free-text
// complaint into detected symptoms and ranked disease predictions.  It is
// the boundary between the intelligence packages and the HTTP/CLI surfaces:
// everything it returns is either a typed user-facing error or a masked
// internal one.
package prediction

import (
	"context"
	"errors"
	"time"

	"github.com/turtacn/SymptomSense/internal/intelligence/disease"
	"github.com/turtacn/SymptomSense/internal/intelligence/symptom"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/SymptomSense/pkg/errors"
)

const (
	DefaultMinConfidence = 0.1
	DefaultTopK          = disease.DefaultTopK
)

// Outcome labels passed to Metrics.
const (
	OutcomeOK                    = "ok"
	OutcomeNoSymptoms            = "no_symptoms"
	OutcomeNoConfidentPrediction = "no_confident_prediction"
	OutcomeModelNotLoaded        = "model_not_loaded"
	OutcomeCanceled              = "canceled"
	OutcomeError                 = "error"
)

// Predictor is the contract consumed by the HTTP and CLI surfaces.
type Predictor interface {
	PredictFromText(ctx context.Context, description string) (*Result, error)
}

// SymptomExtractor extracts canonical symptoms from a description.
type SymptomExtractor interface {
	Extract(ctx context.Context, description string) (symptom.Set, error)
}

// ModelProvider hands out the served model artifact.
type ModelProvider interface {
	Get(ctx context.Context) (*disease.ModelArtifact, error)
}

// Metrics receives pipeline observations.
type Metrics interface {
	ObservePrediction(outcome string, d time.Duration)
	ObserveSymptoms(n int)
	ObserveTopConfidence(p float64)
}

type noopMetrics struct{}

func (noopMetrics) ObservePrediction(string, time.Duration) {}
func (noopMetrics) ObserveSymptoms(int)                     {}
func (noopMetrics) ObserveTopConfidence(float64)            {}

// Result is the pipeline output.
type Result struct {
	// Symptoms are sorted lexically.
	Symptoms []string `json:"symptoms"`
	// Predictions are ordered by descending confidence.
	Predictions []disease.Prediction `json:"predictions"`
}

// Config holds the pipeline thresholds.
type Config struct {
	MinConfidence float64
	TopK          int
}

func (c Config) withDefaults() Config {
	if c.MinConfidence <= 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	return c
}

// Pipeline runs extraction followed by classification.
type Pipeline struct {
	extractor SymptomExtractor
	models    ModelProvider
	cfg       Config
	metrics   Metrics
	logger    logging.Logger
}

// NewPipeline wires a pipeline.  metrics and logger may be nil.
func NewPipeline(extractor SymptomExtractor, models ModelProvider, cfg Config, metrics Metrics, logger logging.Logger) *Pipeline {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pipeline{
		extractor: extractor,
		models:    models,
		cfg:       cfg.withDefaults(),
		metrics:   metrics,
		logger:    logger.Named("prediction"),
	}
}

// PredictFromText extracts symptoms from description and predicts the most
// likely diseases.
//
// Errors:
//   - NoSymptomsDetected when nothing non-negated was recognised
//   - NoConfidentPrediction when every prediction is below MinConfidence
//   - ModelNotLoaded when no model artifact can be served
//   - Internal for everything else; the cause is logged, not returned
func (p *Pipeline) PredictFromText(ctx context.Context, description string) (*Result, error) {
	start := time.Now()
	res, err := p.run(ctx, description)
	if err != nil {
		err = p.boundary(err)
	}
	p.metrics.ObservePrediction(outcome(err), time.Since(start))
	return res, err
}

func (p *Pipeline) run(ctx context.Context, description string) (*Result, error) {
	symptoms, err := p.extractor.Extract(ctx, description)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveSymptoms(symptoms.Len())
	if symptoms.Len() == 0 {
		return nil, apperrors.New(apperrors.ErrCodeNoSymptomsDetected, apperrors.DefaultMessageForCode(apperrors.ErrCodeNoSymptomsDetected))
	}
	names := symptoms.Sorted()
	p.logger.Debug("symptoms detected", logging.Strings("symptoms", names))

	// The model is only needed once there is something to classify, so an
	// empty description never triggers the lazy load.
	model, err := p.models.Get(ctx)
	if err != nil {
		return nil, err
	}

	ranked, err := disease.PredictTopK(ctx, symptoms, model, p.cfg.TopK)
	if err != nil {
		return nil, err
	}

	confident := make([]disease.Prediction, 0, len(ranked))
	for _, pred := range ranked {
		if pred.Probability >= p.cfg.MinConfidence {
			confident = append(confident, pred)
		}
	}
	if len(ranked) > 0 {
		p.metrics.ObserveTopConfidence(ranked[0].Probability)
	}
	if len(confident) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeNoConfidentPrediction, apperrors.DefaultMessageForCode(apperrors.ErrCodeNoConfidentPrediction)).
			WithDetailf("min_confidence=%.2f", p.cfg.MinConfidence)
	}

	return &Result{Symptoms: names, Predictions: confident}, nil
}

// boundary maps an error from the inner steps to what callers may see.
func (p *Pipeline) boundary(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case apperrors.IsNoSymptomsDetected(err), apperrors.IsNoConfidentPrediction(err):
		return err
	case apperrors.IsModelNotLoaded(err):
		p.logger.Error("prediction model unavailable", logging.Err(err), logging.Bool("alert", true))
		return err
	case apperrors.IsInvalidFeatureVector(err):
		p.logger.Error("feature vector rejected by model", logging.Err(err), stackField(err))
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, apperrors.DefaultMessageForCode(apperrors.ErrCodeInternal))
	default:
		p.logger.Error("prediction failed", logging.Err(err), logging.String("code", apperrors.GetCode(err).String()), stackField(err))
		return apperrors.Internal(apperrors.DefaultMessageForCode(apperrors.ErrCodeInternal))
	}
}

func stackField(err error) logging.Field {
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return logging.String("stack", ae.Stack)
	}
	return logging.String("stack", "")
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case apperrors.IsNoSymptomsDetected(err):
		return OutcomeNoSymptoms
	case apperrors.IsNoConfidentPrediction(err):
		return OutcomeNoConfidentPrediction
	case apperrors.IsModelNotLoaded(err):
		return OutcomeModelNotLoaded
	default:
		return OutcomeError
	}
}

var _ Predictor = (*Pipeline)(nil)
