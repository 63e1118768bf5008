// Package neo4j runs read-only Cypher queries against a term graph.
package neo4j

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/pkg/errors"
)

const (
	defaultDatabase       = "neo4j"
	defaultPoolSize       = 10
	defaultConnectTimeout = 10 * time.Second
)

type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	Username              string        `mapstructure:"username"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectTimeout        time.Duration `mapstructure:"connect_timeout"`
	// FetchSize is the number of records pulled per batch; 0 keeps the
	// driver default and -1 pulls everything at once.
	FetchSize             int           `mapstructure:"fetch_size"`
}

// Result is the part of neo4j.ResultWithContext that readers consume.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// Transaction runs Cypher inside a read transaction.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// ReadWork is retried by the driver on transient failures, so it must not
// have side effects outside the transaction.
type ReadWork func(tx Transaction) (any, error)

// Reader is what repositories depend on.
type Reader interface {
	ExecuteRead(ctx context.Context, work ReadWork) (any, error)
	Close() error
}

// graphSession and graphDriver are the seams tests replace.
type graphSession interface {
	ExecuteRead(ctx context.Context, work ReadWork) (any, error)
	Close(ctx context.Context) error
}

type graphDriver interface {
	VerifyConnectivity(ctx context.Context) error
	NewSession(ctx context.Context, config neo4j.SessionConfig) graphSession
	Close(ctx context.Context) error
}

type boltTransaction struct{ tx neo4j.ManagedTransaction }

func (t boltTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type boltSession struct{ s neo4j.SessionWithContext }

func (s boltSession) ExecuteRead(ctx context.Context, work ReadWork) (any, error) {
	return s.s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(boltTransaction{tx: tx})
	})
}

func (s boltSession) Close(ctx context.Context) error { return s.s.Close(ctx) }

type boltDriver struct{ d neo4j.DriverWithContext }

func (d boltDriver) VerifyConnectivity(ctx context.Context) error { return d.d.VerifyConnectivity(ctx) }

func (d boltDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) graphSession {
	return boltSession{s: d.d.NewSession(ctx, config)}
}

func (d boltDriver) Close(ctx context.Context) error { return d.d.Close(ctx) }

// Driver is a read-only Reader over one database.
type Driver struct {
	graph     graphDriver
	database  string
	fetchSize int
	logger    logging.Logger
	once      sync.Once
}

var _ Reader = (*Driver)(nil)

// NewDriver connects to cfg.URI and verifies connectivity within
// cfg.ConnectTimeout.  Connection failures carry ErrCodeDatabaseError.
func NewDriver(ctx context.Context, cfg Neo4jConfig, log logging.Logger) (*Driver, error) {
	if cfg.URI == "" {
		return nil, errors.NewValidationError("neo4j.uri", "neo4j uri is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	poolSize := cfg.MaxConnectionPoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	d, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = poolSize
		})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "invalid neo4j driver settings").
			WithDetail("uri=" + cfg.URI)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := d.VerifyConnectivity(vctx); err != nil {
		_ = d.Close(ctx)
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j unreachable").
			WithDetail("uri=" + cfg.URI)
	}

	drv := newDriver(boltDriver{d: d}, cfg, log)
	drv.logger.Info("connected", logging.String("uri", cfg.URI), logging.String("database", drv.database))
	return drv, nil
}

func newDriver(g graphDriver, cfg Neo4jConfig, log logging.Logger) *Driver {
	database := cfg.Database
	if database == "" {
		database = defaultDatabase
	}
	return &Driver{
		graph:     g,
		database:  database,
		fetchSize: cfg.FetchSize,
		logger:    log.Named("neo4j"),
	}
}

// ExecuteRead runs work in a read transaction on a fresh session.  An
// *errors.AppError returned by work is passed through; anything else becomes
// ErrCodeDatabaseError.
func (d *Driver) ExecuteRead(ctx context.Context, work ReadWork) (any, error) {
	session := d.graph.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: d.database,
		AccessMode:   neo4j.AccessModeRead,
		FetchSize:    d.fetchSize,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, work)
	if err != nil {
		var ae *errors.AppError
		if stderrors.As(err, &ae) {
			return nil, err
		}
		d.logger.Debug("read transaction failed", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j read failed").
			WithDetail("database=" + d.database)
	}
	return result, nil
}

// Close releases the connection pool.  Only the first call has an effect.
func (d *Driver) Close() error {
	var err error
	d.once.Do(func() {
		if err = d.graph.Close(context.Background()); err != nil {
			d.logger.Warn("closing driver failed", logging.Err(err))
		}
	})
	return err
}

// CollectRecords maps every remaining record of result, stopping at the
// first mapping error.
func CollectRecords[T any](ctx context.Context, result Result, mapper func(*neo4j.Record) (T, error)) ([]T, error) {
	var items []T
	for result.Next(ctx) {
		item, err := mapper(result.Record())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

//Personal.AI order the ending
