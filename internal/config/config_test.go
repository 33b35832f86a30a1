package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultMinConfidence, cfg.Pipeline.MinConfidence)
	assert.Equal(t, 3, cfg.Pipeline.TopK)
	assert.Equal(t, 10, cfg.Pipeline.MaxSymptoms)
	assert.Equal(t, 0.85, cfg.Pipeline.FuzzyCutoff)
	assert.Equal(t, 0.6, cfg.Pipeline.SemanticThreshold)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Pipeline.TopK = 5
	cfg.Model.Source = "minio"

	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Pipeline.TopK)
	assert.Equal(t, "minio", cfg.Model.Source)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)
}

func TestApplyDefaults_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"confidence", func(c *Config) { c.Pipeline.MinConfidence = 1.5 }, "min_confidence"},
		{"fuzzy", func(c *Config) { c.Pipeline.FuzzyCutoff = 2 }, "fuzzy_cutoff"},
		{"top k", func(c *Config) { c.Pipeline.TopK = -1 }, "top_k"},
		{"model source", func(c *Config) { c.Model.Source = "s3" }, "model.source"},
		{"model path", func(c *Config) { c.Model.Path = "" }, "model.path"},
		{"minio bucket", func(c *Config) { c.Model.Source = "minio"; c.MinIO.Bucket = "" }, "minio.bucket"},
		{"http parser", func(c *Config) { c.NLP.Parser = "http"; c.NLP.Endpoint = "" }, "nlp.endpoint"},
		{"parser", func(c *Config) { c.NLP.Parser = "spacy" }, "nlp.parser"},
		{"postgres", func(c *Config) { c.Database.Postgres.Enabled = true; c.Database.Postgres.DBName = "" }, "postgres"},
		{"neo4j", func(c *Config) { c.Database.Neo4j.Enabled = true; c.Database.Neo4j.URI = "" }, "neo4j.uri"},
		{"redis", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"kafka", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Topic = "" }, "kafka.topic"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "text" }, "log.format"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
