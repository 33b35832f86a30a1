package prediction

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/SymptomSense/internal/intelligence/disease"
	"github.com/turtacn/SymptomSense/internal/intelligence/symptom"
	"github.com/turtacn/SymptomSense/internal/infrastructure/messaging/kafka"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, description string) (symptom.Set, error) {
	args := m.Called(ctx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(symptom.Set), args.Error(1)
}

type MockModelProvider struct {
	mock.Mock
}

func (m *MockModelProvider) Get(ctx context.Context) (*disease.ModelArtifact, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*disease.ModelArtifact), args.Error(1)
}

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) PredictFromText(ctx context.Context, description string) (*Result, error) {
	args := m.Called(ctx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg *kafka.ProducerMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// rowClassifier returns probs for every row.
type rowClassifier struct {
	probs []float64
	err   error
}

func (c rowClassifier) PredictProba(_ context.Context, X [][]float64) ([][]float64, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = c.probs
	}
	return out, nil
}

func fourLabelModel(probs ...float64) *disease.ModelArtifact {
	return &disease.ModelArtifact{
		Classifier:   rowClassifier{probs: probs},
		FeatureNames: []string{"fever", "cough"},
		LabelNames:   []string{"label0", "label1", "label2", "label3"},
	}
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
	counts   []int
	top      []float64
	hits     []bool
}

func (r *recordingMetrics) ObservePrediction(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingMetrics) ObserveSymptoms(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, n)
}

func (r *recordingMetrics) ObserveTopConfidence(p float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.top = append(r.top, p)
}

func (r *recordingMetrics) ObserveCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = append(r.hits, hit)
}
