// Package config provides configuration loading, defaults, and validation for
// SymptomSense.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Section configs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	// CORSAllowedOrigins enables CORS for the listed origins ("*" for any).
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// PipelineConfig holds the extraction and prediction thresholds.
type PipelineConfig struct {
	MinConfidence         float64       `mapstructure:"min_confidence"`
	TopK                  int           `mapstructure:"top_k"`
	MaxSymptoms           int           `mapstructure:"max_symptoms"`
	FuzzyCutoff           float64       `mapstructure:"fuzzy_cutoff"`
	SemanticThreshold     float64       `mapstructure:"semantic_threshold"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	MedicationsPerDisease int           `mapstructure:"medications_per_disease"`
}

// SynonymsConfig locates the synonym table.  An empty path selects the
// table compiled into the binary.
type SynonymsConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// ModelConfig locates the classifier artifact.
type ModelConfig struct {
	// Source is "file" or "minio".
	Source      string        `mapstructure:"source"`
	Path        string        `mapstructure:"path"`
	Object      string        `mapstructure:"object"`
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
	// Eager loads the artifact during startup instead of on first request.
	Eager bool `mapstructure:"eager"`
}

// NLPConfig selects the parser and embedding backends.
type NLPConfig struct {
	// Parser is "rule" or "http".
	Parser             string        `mapstructure:"parser"`
	Endpoint           string        `mapstructure:"endpoint"`
	Timeout            time.Duration `mapstructure:"timeout"`
	VectorsPath        string        `mapstructure:"vectors_path"`
	EmbeddingCacheSize int           `mapstructure:"embedding_cache_size"`
}

// PostgresConfig holds the medication catalog database parameters.
type PostgresConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"dbname"`
	SSLMode          string        `mapstructure:"sslmode"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	AutoMigrate      bool          `mapstructure:"auto_migrate"`
}

// Neo4jConfig holds the drug interaction graph parameters.
type Neo4jConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	// MaxPoolSize caps driver connections.  Zero keeps the driver default.
	MaxPoolSize int `mapstructure:"max_pool_size"`
}

// DatabaseConfig groups the data stores backing recommendations.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
}

// RedisConfig holds prediction cache parameters.
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// MinIOConfig holds object storage parameters for model artifacts.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	// CreateBucket makes the bucket on startup when it is missing.
	CreateBucket bool `mapstructure:"create_bucket"`
}

// KafkaConfig holds analysis event publishing parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	ClientID     string        `mapstructure:"client_id"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
	// SASLMechanism is "", "plain", "scram-sha-256" or "scram-sha-512".
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	TLSCAPath     string `mapstructure:"tls_ca_path"`
}

// RecommendationConfig holds medication recommendation parameters.  When
// the Postgres catalog is disabled CatalogPath supplies a JSON catalog; an
// empty path disables recommendations.
type RecommendationConfig struct {
	CatalogPath    string  `mapstructure:"catalog_path"`
	CandidateLimit int     `mapstructure:"candidate_limit"`
	RelevanceRatio float64 `mapstructure:"relevance_ratio"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Log      logging.LogConfig `mapstructure:"log"`
	Pipeline PipelineConfig    `mapstructure:"pipeline"`
	Synonyms SynonymsConfig    `mapstructure:"synonyms"`
	Model    ModelConfig       `mapstructure:"model"`
	NLP      NLPConfig         `mapstructure:"nlp"`
	Database DatabaseConfig    `mapstructure:"database"`
	Redis    RedisConfig       `mapstructure:"redis"`
	MinIO    MinIOConfig       `mapstructure:"minio"`
	Kafka    KafkaConfig       `mapstructure:"kafka"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`

	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

// NewDefaultConfig returns a Config with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation and returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.MaxBodyBytes < 1 {
		return fmt.Errorf("config: server.max_body_bytes must be ≥ 1, got %d", c.Server.MaxBodyBytes)
	}

	p := c.Pipeline
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("config: pipeline.min_confidence %.3f is out of range [0, 1]", p.MinConfidence)
	}
	if p.FuzzyCutoff <= 0 || p.FuzzyCutoff > 1 {
		return fmt.Errorf("config: pipeline.fuzzy_cutoff %.3f is out of range (0, 1]", p.FuzzyCutoff)
	}
	if p.SemanticThreshold < -1 || p.SemanticThreshold > 1 {
		return fmt.Errorf("config: pipeline.semantic_threshold %.3f is out of range [-1, 1]", p.SemanticThreshold)
	}
	if p.TopK < 1 {
		return fmt.Errorf("config: pipeline.top_k must be ≥ 1, got %d", p.TopK)
	}
	if p.MaxSymptoms < 1 {
		return fmt.Errorf("config: pipeline.max_symptoms must be ≥ 1, got %d", p.MaxSymptoms)
	}

	switch c.Model.Source {
	case "file":
		if c.Model.Path == "" {
			return fmt.Errorf("config: model.path is required when model.source is file")
		}
	case "minio":
		if c.Model.Object == "" {
			return fmt.Errorf("config: model.object is required when model.source is minio")
		}
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.endpoint and minio.bucket are required when model.source is minio")
		}
	default:
		return fmt.Errorf("config: model.source %q is invalid; expected file|minio", c.Model.Source)
	}

	switch c.NLP.Parser {
	case "rule":
	case "http":
		if c.NLP.Endpoint == "" {
			return fmt.Errorf("config: nlp.endpoint is required when nlp.parser is http")
		}
	default:
		return fmt.Errorf("config: nlp.parser %q is invalid; expected rule|http", c.NLP.Parser)
	}

	if pg := c.Database.Postgres; pg.Enabled {
		if pg.Host == "" || pg.DBName == "" {
			return fmt.Errorf("config: database.postgres.host and dbname are required when enabled")
		}
		if pg.Port < 1 || pg.Port > 65535 {
			return fmt.Errorf("config: database.postgres.port %d is out of range [1, 65535]", pg.Port)
		}
	}
	if c.Database.Neo4j.Enabled && c.Database.Neo4j.URI == "" {
		return fmt.Errorf("config: database.neo4j.uri is required when enabled")
	}
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when enabled")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when enabled")
		}
		switch c.Kafka.RequiredAcks {
		case -1, 0, 1:
		default:
			return fmt.Errorf("config: kafka.required_acks %d is invalid; expected -1|0|1", c.Kafka.RequiredAcks)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
