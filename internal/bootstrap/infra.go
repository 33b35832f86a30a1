package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/turtacn/SymptomSense/internal/config"
	neo4jdriver "github.com/turtacn/SymptomSense/internal/infrastructure/database/neo4j"
	"github.com/turtacn/SymptomSense/internal/infrastructure/database/postgres"
	redisclient "github.com/turtacn/SymptomSense/internal/infrastructure/database/redis"
	"github.com/turtacn/SymptomSense/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	minioclient "github.com/turtacn/SymptomSense/internal/infrastructure/storage/minio"
)

// Dial retry policy for dependencies that may start after the service.
const (
	dialAttempts   = 5
	dialBackoff    = 500 * time.Millisecond
	dialMaxBackoff = 5 * time.Second
)

// dial runs connect until it succeeds, ctx ends or the attempts run out.
// Inference never goes through here; only startup connections do.
func dial(ctx context.Context, name string, logger logging.Logger, connect func(ctx context.Context) error) error {
	b := retry.NewExponential(dialBackoff)
	b = retry.WithCappedDuration(dialMaxBackoff, b)
	b = retry.WithMaxRetries(dialAttempts-1, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := connect(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("dependency not reachable, retrying",
			logging.String("dependency", name), logging.Int("attempt", attempt), logging.Err(err))
		return retry.RetryableError(err)
	})
}

// ConnectPostgres opens the medication catalog database.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig, logger logging.Logger) (*postgres.Connection, error) {
	var conn *postgres.Connection
	err := dial(ctx, "postgres", logger, func(ctx context.Context) error {
		c, err := postgres.NewConnection(ctx, cfg, logger)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}

// ConnectNeo4j opens the drug interaction graph.
func ConnectNeo4j(ctx context.Context, cfg config.Neo4jConfig, logger logging.Logger) (*neo4jdriver.Driver, error) {
	var drv *neo4jdriver.Driver
	err := dial(ctx, "neo4j", logger, func(ctx context.Context) error {
		d, err := neo4jdriver.NewDriver(ctx, cfg, logger)
		if err != nil {
			return err
		}
		drv = d
		return nil
	})
	return drv, err
}

// ConnectRedis opens the prediction cache.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (*redisclient.Client, error) {
	var client *redisclient.Client
	err := dial(ctx, "redis", logger, func(ctx context.Context) error {
		c, err := redisclient.NewClient(ctx, &redisclient.RedisConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}, logger)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	return client, err
}

// ConnectMinIO opens the model artifact bucket.
func ConnectMinIO(ctx context.Context, cfg config.MinIOConfig, logger logging.Logger) (*minioclient.MinIOClient, error) {
	var client *minioclient.MinIOClient
	err := dial(ctx, "minio", logger, func(ctx context.Context) error {
		c, err := minioclient.NewMinIOClient(ctx, &minioclient.MinIOConfig{
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			UseSSL:          cfg.UseSSL,
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			CreateBucket:    cfg.CreateBucket,
		}, logger)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	return client, err
}

// NewProducer builds the analysis event producer.  kafka-go connects
// lazily, so there is nothing to retry here.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*kafka.Producer, error) {
	return kafka.NewProducer(kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      cfg.ClientID,
		RequiredAcks:  cfg.RequiredAcks,
		BatchTimeout:  cfg.BatchTimeout,
		SASLMechanism: cfg.SASLMechanism,
		SASLUsername:  cfg.SASLUsername,
		SASLPassword:  cfg.SASLPassword,
		TLSEnabled:    cfg.TLSEnabled,
		TLSCAPath:     cfg.TLSCAPath,
	}, logger)
}

// infrastructure holds the optional external clients.  Nil fields are
// disabled in configuration.
type infrastructure struct {
	pg    *postgres.Connection
	neo4j *neo4jdriver.Driver
	redis *redisclient.Client
	minio *minioclient.MinIOClient
	kafka *kafka.Producer
}

func (i *infrastructure) Close(logger logging.Logger) {
	closeAll := []struct {
		name string
		fn   func() error
	}{
		{"kafka", func() error {
			if i.kafka == nil {
				return nil
			}
			return i.kafka.Close()
		}},
		{"redis", func() error {
			if i.redis == nil {
				return nil
			}
			return i.redis.Close()
		}},
		{"neo4j", func() error {
			if i.neo4j == nil {
				return nil
			}
			return i.neo4j.Close()
		}},
		{"postgres", func() error {
			if i.pg == nil {
				return nil
			}
			return i.pg.Close()
		}},
		{"minio", func() error {
			if i.minio == nil {
				return nil
			}
			return i.minio.Close()
		}},
	}
	for _, c := range closeAll {
		if err := c.fn(); err != nil {
			logger.Warn("close failed", logging.String("dependency", c.name), logging.Err(err))
		}
	}
}

func initInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger) (*infrastructure, error) {
	infra := &infrastructure{}
	var err error

	if cfg.Database.Postgres.Enabled {
		if infra.pg, err = ConnectPostgres(ctx, cfg.Database.Postgres, logger); err != nil {
			return nil, err
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := migrateUp(infra.pg, logger); err != nil {
				infra.Close(logger)
				return nil, err
			}
		}
	}
	if cfg.Database.Neo4j.Enabled {
		if infra.neo4j, err = ConnectNeo4j(ctx, cfg.Database.Neo4j, logger); err != nil {
			infra.Close(logger)
			return nil, err
		}
	}
	if cfg.Redis.Enabled {
		if infra.redis, err = ConnectRedis(ctx, cfg.Redis, logger); err != nil {
			infra.Close(logger)
			return nil, err
		}
	}
	if cfg.Model.Source == "minio" {
		if infra.minio, err = ConnectMinIO(ctx, cfg.MinIO, logger); err != nil {
			infra.Close(logger)
			return nil, err
		}
	}
	if cfg.Kafka.Enabled {
		if infra.kafka, err = NewProducer(cfg.Kafka, logger); err != nil {
			infra.Close(logger)
			return nil, err
		}
	}

	logger.Info("infrastructure initialized",
		logging.Bool("postgres", infra.pg != nil),
		logging.Bool("neo4j", infra.neo4j != nil),
		logging.Bool("redis", infra.redis != nil),
		logging.Bool("minio", infra.minio != nil),
		logging.Bool("kafka", infra.kafka != nil))
	return infra, nil
}

// migrateUp applies pending migrations.  The migrator is not closed because
// closing it would close the shared pool.
func migrateUp(conn *postgres.Connection, logger logging.Logger) error {
	m, err := postgres.NewMigrator(conn, logger)
	if err != nil {
		return err
	}
	return m.Up()
}
