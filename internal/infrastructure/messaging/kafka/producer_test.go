package kafka

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymptomSense/internal/testutil"
	apperrors "github.com/turtacn/SymptomSense/pkg/errors"
)

// mockKafkaWriter
type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closeFunc func() error
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func newTestProducer(w WriterInterface) *Producer {
	return newProducer(w, ProducerConfig{Brokers: []string{"localhost:9092"}}, testutil.NewMockLogger())
}

func TestValidateProducerConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     ProducerConfig
		wantErr bool
	}{
		{"valid", ProducerConfig{Brokers: []string{"b:9092"}}, false},
		{"acks all", ProducerConfig{Brokers: []string{"b:9092"}, RequiredAcks: -1}, false},
		{"no brokers", ProducerConfig{}, true},
		{"negative retries", ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}, true},
		{"bad acks", ProducerConfig{Brokers: []string{"b:9092"}, RequiredAcks: 2}, true},
		{"sasl without credentials", ProducerConfig{Brokers: []string{"b:9092"}, SASLMechanism: "PLAIN"}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateProducerConfig(tt.cfg)
			if tt.wantErr {
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewProducer(t *testing.T) {
	t.Parallel()

	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, SASLMechanism: "SCRAM-SHA-512", SASLUsername: "u", SASLPassword: "p"}, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Close())

	_, err = NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, SASLMechanism: "GSSAPI", SASLUsername: "u", SASLPassword: "p"}, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfigInvalid))

	badCA := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(badCA, []byte("not a certificate"), 0o600))
	_, err = NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, TLSEnabled: true, TLSCAPath: badCA}, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfigInvalid))
}

func TestPublish_Success(t *testing.T) {
	t.Parallel()

	var captured []kafka.Message
	p := newTestProducer(&mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			captured = msgs
			return nil
		},
	})
	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   "test",
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: map[string]string{"event_type": "x"},
	})
	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, "test", captured[0].Topic)
	assert.Equal(t, "k", string(captured[0].Key))
	assert.Equal(t, "v", string(captured[0].Value))
	assert.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte("x")}}, captured[0].Headers)
	assert.False(t, captured[0].Time.IsZero())
	assert.Equal(t, int64(1), p.Sent())
}

func TestPublish_Rejects(t *testing.T) {
	t.Parallel()

	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.True(t, apperrors.IsCode(p.Publish(ctx, nil), apperrors.ErrCodeValidation))
	assert.True(t, apperrors.IsCode(p.Publish(ctx, &ProducerMessage{Value: []byte("v")}), apperrors.ErrCodeValidation))
	assert.True(t, apperrors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t"}), apperrors.ErrCodeValidation))
	big := make([]byte, 1024*1024+1)
	assert.True(t, apperrors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t", Value: big}), apperrors.ErrCodeValidation))
}

func TestPublish_Failure(t *testing.T) {
	t.Parallel()

	writeErr := errors.New("write failed")
	p := newTestProducer(&mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error { return writeErr },
	})
	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMessagingError))
	assert.ErrorIs(t, err, writeErr)
	assert.Equal(t, int64(1), p.Failed())
}

func TestClose(t *testing.T) {
	t.Parallel()

	closes := 0
	p := newTestProducer(&mockKafkaWriter{closeFunc: func() error { closes++; return nil }})
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, closes)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.ErrorIs(t, err, ErrProducerClosed)
}
