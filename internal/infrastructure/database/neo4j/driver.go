// Package neo4j holds the connection to the drug interaction graph.
//
// Repositories see only DriverInterface and Transaction, so the graph can be
// exercised in tests without a running server.
package neo4j

import (
	"context"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/SymptomSense/internal/config"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

const (
	defaultDatabase = "neo4j"
	verifyTimeout   = 10 * time.Second
	pingCypher      = "RETURN 1 AS health"
)

// Result is the cursor returned by Transaction.Run.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
	Consume(ctx context.Context) (neo4j.ResultSummary, error)
}

// Transaction runs Cypher inside a managed transaction.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// TransactionWork may be retried by the driver on transient failures and
// must therefore be idempotent.
type TransactionWork func(Transaction) (interface{}, error)

// DriverInterface is what repositories depend on.
type DriverInterface interface {
	ExecuteRead(ctx context.Context, work TransactionWork) (interface{}, error)
	ExecuteWrite(ctx context.Context, work TransactionWork) (interface{}, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

type session interface {
	ExecuteRead(ctx context.Context, work func(Transaction) (any, error)) (any, error)
	ExecuteWrite(ctx context.Context, work func(Transaction) (any, error)) (any, error)
	Close(ctx context.Context) error
}

type backend interface {
	VerifyConnectivity(ctx context.Context) error
	NewSession(ctx context.Context, cfg neo4j.SessionConfig) session
	Close(ctx context.Context) error
}

// graphBackend adapts neo4j.DriverWithContext to backend.
type graphBackend struct{ d neo4j.DriverWithContext }

func (b graphBackend) VerifyConnectivity(ctx context.Context) error { return b.d.VerifyConnectivity(ctx) }
func (b graphBackend) Close(ctx context.Context) error              { return b.d.Close(ctx) }

func (b graphBackend) NewSession(ctx context.Context, cfg neo4j.SessionConfig) session {
	return graphSession{s: b.d.NewSession(ctx, cfg)}
}

type graphSession struct{ s neo4j.SessionWithContext }

func (s graphSession) ExecuteRead(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
	return s.s.ExecuteRead(ctx, managed(work))
}

func (s graphSession) ExecuteWrite(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
	return s.s.ExecuteWrite(ctx, managed(work))
}

func (s graphSession) Close(ctx context.Context) error { return s.s.Close(ctx) }

func managed(work func(Transaction) (any, error)) neo4j.ManagedTransactionWork {
	return func(tx neo4j.ManagedTransaction) (any, error) {
		return work(graphTx{tx: tx})
	}
}

type graphTx struct{ tx neo4j.ManagedTransaction }

func (t graphTx) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Driver is a pooled connection to one graph database.
type Driver struct {
	backend  backend
	database string
	log      logging.Logger
	closed   sync.Once
}

// NewDriver connects to cfg.URI and verifies the server is reachable.
func NewDriver(ctx context.Context, cfg config.Neo4jConfig, log logging.Logger) (*Driver, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "neo4j uri is required")
	}
	d, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *neo4j.Config) {
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "create neo4j driver")
	}

	verifyCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	if err := d.VerifyConnectivity(verifyCtx); err != nil {
		_ = d.Close(context.Background())
		return nil, errors.Wrapf(err, errors.ErrCodeDatabaseError, "neo4j unreachable at %s", cfg.URI)
	}

	drv := newDriver(graphBackend{d: d}, cfg.Database, log)
	drv.log.Info("interaction graph connected", logging.String("uri", cfg.URI), logging.String("database", drv.database))
	return drv, nil
}

func newDriver(b backend, database string, log logging.Logger) *Driver {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if database == "" {
		database = defaultDatabase
	}
	return &Driver{backend: b, database: database, log: log.Named("neo4j")}
}

func (d *Driver) execute(ctx context.Context, mode neo4j.AccessMode, work TransactionWork) (interface{}, error) {
	s := d.backend.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database, AccessMode: mode})
	defer s.Close(ctx)

	var (
		out interface{}
		err error
	)
	if mode == neo4j.AccessModeRead {
		out, err = s.ExecuteRead(ctx, work)
	} else {
		out, err = s.ExecuteWrite(ctx, work)
	}
	if err != nil {
		d.log.Warn("graph transaction failed", logging.Bool("write", mode == neo4j.AccessModeWrite), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j transaction failed")
	}
	return out, nil
}

func (d *Driver) ExecuteRead(ctx context.Context, work TransactionWork) (interface{}, error) {
	return d.execute(ctx, neo4j.AccessModeRead, work)
}

func (d *Driver) ExecuteWrite(ctx context.Context, work TransactionWork) (interface{}, error) {
	return d.execute(ctx, neo4j.AccessModeWrite, work)
}

// HealthCheck verifies connectivity and runs a trivial read.
func (d *Driver) HealthCheck(ctx context.Context) error {
	if err := d.backend.VerifyConnectivity(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j connectivity check failed")
	}
	_, err := d.ExecuteRead(ctx, func(tx Transaction) (interface{}, error) {
		res, err := tx.Run(ctx, pingCypher, nil)
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

// Close releases the pool. Calls after the first are no-ops.
func (d *Driver) Close() error {
	var err error
	d.closed.Do(func() {
		if err = d.backend.Close(context.Background()); err != nil {
			d.log.Error("closing neo4j driver", logging.Err(err))
		}
	})
	return err
}

// First maps the first record of res. ok is false when res is empty.
func First[T any](ctx context.Context, res Result, mapper func(*neo4j.Record) T) (v T, ok bool, err error) {
	if res.Next(ctx) {
		return mapper(res.Record()), true, nil
	}
	return v, false, res.Err()
}

var _ DriverInterface = (*Driver)(nil)
