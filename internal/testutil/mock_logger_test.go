package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/internal/testutil"
)

func TestMockLogger_RecordsByLevel(t *testing.T) {
	t.Parallel()
	logger := testutil.NewMockLogger()

	logger.Debug("cache miss")
	logger.Info("prediction complete", logging.String("disease", "flu"))
	logger.Error("model load failed")
	logger.Error("catalog load failed")

	assert.Equal(t, 1, logger.CountLevel("debug"))
	assert.Equal(t, 2, logger.CountLevel("error"))
	assert.True(t, logger.HasMessage("error", "model load failed"))
	assert.False(t, logger.HasMessage("info", "model load failed"))

	msg, ok := logger.Find("info", "prediction complete")
	require.True(t, ok)
	disease, ok := msg.Field("disease")
	assert.True(t, ok)
	assert.Equal(t, "flu", disease)
	_, ok = msg.Field("missing")
	assert.False(t, ok)

	logger.Clear()
	assert.Empty(t, logger.GetMessages())
}

func TestMockLogger_Children(t *testing.T) {
	t.Parallel()
	logger := testutil.NewMockLogger()

	child := logger.Named("pipeline").With(logging.String("request_id", "r1"))
	child.Warn("slow", logging.Int("ms", 900))

	msg, ok := logger.Find("warn", "slow")
	require.True(t, ok)
	assert.Equal(t, "pipeline", msg.Logger)
	id, _ := msg.Field("request_id")
	assert.Equal(t, "r1", id)
	ms, _ := msg.Field("ms")
	assert.Equal(t, 900, ms)
}
