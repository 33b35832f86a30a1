package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 15 * time.Second
	DefaultServerShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes          = 1 << 20

	DefaultMinConfidence         = 0.1
	DefaultTopK                  = 3
	DefaultMaxSymptoms           = 10
	DefaultFuzzyCutoff           = 0.85
	DefaultSemanticThreshold     = 0.6
	DefaultRequestTimeout        = 10 * time.Second
	DefaultMedicationsPerDisease = 5

	DefaultModelSource      = "file"
	DefaultModelPath        = "models/disease_predictor.json"
	DefaultModelObject      = "disease_predictor.json"
	DefaultModelLoadTimeout = 60 * time.Second

	DefaultNLPParser          = "rule"
	DefaultNLPTimeout         = 5 * time.Second
	DefaultEmbeddingCacheSize = 4096

	DefaultPostgresHost            = "localhost"
	DefaultPostgresPort            = 5432
	DefaultPostgresDBName          = "symsense"
	DefaultPostgresSSLMode         = "disable"
	DefaultPostgresMaxOpenConns    = 25
	DefaultPostgresMaxIdleConns    = 5
	DefaultPostgresConnMaxLifetime = 30 * time.Minute
	DefaultPostgresConnMaxIdleTime = 5 * time.Minute
	DefaultPostgresStmtTimeout     = 30 * time.Second

	DefaultNeo4jURI      = "bolt://localhost:7687"
	DefaultNeo4jDatabase = "neo4j"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "symsense:"
	DefaultRedisCacheTTL  = 15 * time.Minute

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "symsense-models"

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaTopic        = "symptom.analyzed"
	DefaultKafkaClientID     = "symsense"
	DefaultKafkaBatchTimeout = 100 * time.Millisecond
	DefaultKafkaRequiredAcks = -1

	DefaultCandidateLimit = 10
	DefaultRelevanceRatio = 0.5

	DefaultMetricsNamespace = "symsense"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg.  Explicit values win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	setString(&cfg.Server.Host, DefaultServerHost)
	setInt(&cfg.Server.Port, DefaultServerPort)
	setString(&cfg.Server.Mode, DefaultServerMode)
	setDuration(&cfg.Server.ReadTimeout, DefaultServerReadTimeout)
	setDuration(&cfg.Server.WriteTimeout, DefaultServerWriteTimeout)
	setDuration(&cfg.Server.ShutdownTimeout, DefaultServerShutdownTimeout)
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	setFloat(&cfg.Pipeline.MinConfidence, DefaultMinConfidence)
	setInt(&cfg.Pipeline.TopK, DefaultTopK)
	setInt(&cfg.Pipeline.MaxSymptoms, DefaultMaxSymptoms)
	setFloat(&cfg.Pipeline.FuzzyCutoff, DefaultFuzzyCutoff)
	setFloat(&cfg.Pipeline.SemanticThreshold, DefaultSemanticThreshold)
	setDuration(&cfg.Pipeline.RequestTimeout, DefaultRequestTimeout)
	setInt(&cfg.Pipeline.MedicationsPerDisease, DefaultMedicationsPerDisease)

	// ── Model / NLP ───────────────────────────────────────────────────────────
	setString(&cfg.Model.Source, DefaultModelSource)
	setString(&cfg.Model.Path, DefaultModelPath)
	setString(&cfg.Model.Object, DefaultModelObject)
	setDuration(&cfg.Model.LoadTimeout, DefaultModelLoadTimeout)
	setString(&cfg.NLP.Parser, DefaultNLPParser)
	setDuration(&cfg.NLP.Timeout, DefaultNLPTimeout)
	setInt(&cfg.NLP.EmbeddingCacheSize, DefaultEmbeddingCacheSize)

	// ── Databases ─────────────────────────────────────────────────────────────
	pg := &cfg.Database.Postgres
	setString(&pg.Host, DefaultPostgresHost)
	setInt(&pg.Port, DefaultPostgresPort)
	setString(&pg.DBName, DefaultPostgresDBName)
	setString(&pg.SSLMode, DefaultPostgresSSLMode)
	setInt(&pg.MaxOpenConns, DefaultPostgresMaxOpenConns)
	setInt(&pg.MaxIdleConns, DefaultPostgresMaxIdleConns)
	setDuration(&pg.ConnMaxLifetime, DefaultPostgresConnMaxLifetime)
	setDuration(&pg.ConnMaxIdleTime, DefaultPostgresConnMaxIdleTime)
	setDuration(&pg.StatementTimeout, DefaultPostgresStmtTimeout)
	setString(&cfg.Database.Neo4j.URI, DefaultNeo4jURI)
	setString(&cfg.Database.Neo4j.Database, DefaultNeo4jDatabase)

	// ── Redis / MinIO / Kafka ─────────────────────────────────────────────────
	setString(&cfg.Redis.Addr, DefaultRedisAddr)
	setString(&cfg.Redis.KeyPrefix, DefaultRedisKeyPrefix)
	setDuration(&cfg.Redis.CacheTTL, DefaultRedisCacheTTL)
	setString(&cfg.MinIO.Endpoint, DefaultMinIOEndpoint)
	setString(&cfg.MinIO.Bucket, DefaultMinIOBucket)
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	setString(&cfg.Kafka.Topic, DefaultKafkaTopic)
	setString(&cfg.Kafka.ClientID, DefaultKafkaClientID)
	setDuration(&cfg.Kafka.BatchTimeout, DefaultKafkaBatchTimeout)
	if cfg.Kafka.RequiredAcks == 0 {
		cfg.Kafka.RequiredAcks = DefaultKafkaRequiredAcks
	}

	// ── Recommendation ────────────────────────────────────────────────────────
	setInt(&cfg.Recommendation.CandidateLimit, DefaultCandidateLimit)
	setFloat(&cfg.Recommendation.RelevanceRatio, DefaultRelevanceRatio)

	// ── Metrics / Log ─────────────────────────────────────────────────────────
	setString(&cfg.Metrics.Namespace, DefaultMetricsNamespace)
	setString(&cfg.Metrics.Path, DefaultMetricsPath)
	setString(&cfg.Log.Level, DefaultLogLevel)
	setString(&cfg.Log.Format, DefaultLogFormat)
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}
