// Package postgres connects to a PostgreSQL database holding a term closure
// table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/pkg/errors"
)

const (
	applicationName         = "termsim"
	defaultMaxOpenConns     = 4
	defaultConnectTimeout   = 5 * time.Second
	defaultStatementTimeout = 30 * time.Second
	connMaxLifetime         = 30 * time.Minute
)

// openDB turns a parsed config into a pool.  Tests swap in sqlmock.
var openDB = func(cc pgx.ConnConfig) *sql.DB {
	return stdlib.OpenDB(cc)
}

type PostgresConfig struct {
	Host             string
	Port             int
	Database         string
	Username         string
	Password         string
	SSLMode          string
	MaxOpenConns     int
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
}

// Connection owns a database/sql pool backed by pgx.
type Connection struct {
	db     *sql.DB
	logger logging.Logger
	once   sync.Once
}

// NewConnection opens a pool and pings the server within cfg.ConnectTimeout.
// Failures carry ErrCodeDatabaseError.
func NewConnection(ctx context.Context, cfg PostgresConfig, log logging.Logger) (*Connection, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	cc, err := connConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "invalid postgres settings")
	}

	db := openDB(*cc)
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cc.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres unreachable").
			WithDetail(fmt.Sprintf("host=%s port=%d", cfg.Host, cfg.Port))
	}

	log = log.Named("postgres")
	log.Info("connected",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.Database))
	return &Connection{db: db, logger: log}, nil
}

// NewConnectionWithDB wraps an open pool.
func NewConnectionWithDB(db *sql.DB, log logging.Logger) *Connection {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Connection{db: db, logger: log}
}

func (c *Connection) DB() *sql.DB { return c.db }

// Close closes the pool.  Only the first call has an effect.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		if err = c.db.Close(); err != nil {
			c.logger.Warn("closing pool failed", logging.Err(err))
		}
	})
	return err
}

// connConfig parses cfg through pgx so that TLS and runtime parameters are
// validated before any connection is attempted.
func connConfig(cfg PostgresConfig) (*pgx.ConnConfig, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     cfg.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	cc, err := pgx.ParseConfig(u.String())
	if err != nil {
		return nil, err
	}

	cc.ConnectTimeout = cfg.ConnectTimeout
	if cc.ConnectTimeout <= 0 {
		cc.ConnectTimeout = defaultConnectTimeout
	}
	statementTimeout := cfg.StatementTimeout
	if statementTimeout <= 0 {
		statementTimeout = defaultStatementTimeout
	}
	cc.RuntimeParams["statement_timeout"] = strconv.FormatInt(statementTimeout.Milliseconds(), 10)
	cc.RuntimeParams["application_name"] = applicationName
	return cc, nil
}

//Personal.AI order the ending
