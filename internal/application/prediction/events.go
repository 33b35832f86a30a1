package prediction

import (
	"context"
	"time"

	"github.com/turtacn/SymptomSense/internal/intelligence/disease"
	"github.com/turtacn/SymptomSense/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
)

// MessagePublisher writes one record to the event bus.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
}

// AnalyzedPayload is the body of a symptom.analyzed event.  The patient's
// description is never included.
type AnalyzedPayload struct {
	Symptoms    []string             `json:"symptoms"`
	Predictions []disease.Prediction `json:"predictions"`
	AnalyzedAt  time.Time            `json:"analyzed_at"`
}

// EventPublisher emits a symptom.analyzed event for every successful
// prediction.  Publish failures are logged and do not fail the request.
type EventPublisher struct {
	inner     Predictor
	publisher MessagePublisher
	topic     string
	source    string
	timeout   time.Duration
	logger    logging.Logger
}

// NewEventPublisher wraps inner.  An empty topic selects
// kafka.TopicSymptomAnalyzed.
func NewEventPublisher(inner Predictor, publisher MessagePublisher, topic, source string, logger logging.Logger) *EventPublisher {
	if topic == "" {
		topic = kafka.TopicSymptomAnalyzed
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EventPublisher{
		inner:     inner,
		publisher: publisher,
		topic:     topic,
		source:    source,
		timeout:   2 * time.Second,
		logger:    logger.Named("prediction-events"),
	}
}

// PredictFromText implements Predictor.
func (e *EventPublisher) PredictFromText(ctx context.Context, description string) (*Result, error) {
	res, err := e.inner.PredictFromText(ctx, description)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, res)
	return res, nil
}

func (e *EventPublisher) publish(ctx context.Context, res *Result) {
	env, err := kafka.NewEventEnvelope(kafka.EventSymptomAnalyzed, e.source, AnalyzedPayload{
		Symptoms:    res.Symptoms,
		Predictions: res.Predictions,
		AnalyzedAt:  time.Now().UTC(),
	})
	if err != nil {
		e.logger.Warn("failed to build analysis event", logging.Err(err))
		return
	}
	msg, err := env.ToMessage(e.topic)
	if err != nil {
		e.logger.Warn("failed to encode analysis event", logging.Err(err))
		return
	}

	// The response is already computed; a client disconnect must not drop
	// the event.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()
	if err := e.publisher.Publish(pubCtx, msg); err != nil {
		e.logger.Warn("failed to publish analysis event",
			logging.String("event_id", env.EventID),
			logging.String("topic", e.topic),
			logging.Err(err))
		return
	}
	e.logger.Debug("analysis event published", logging.String("event_id", env.EventID))
}

var _ Predictor = (*EventPublisher)(nil)
