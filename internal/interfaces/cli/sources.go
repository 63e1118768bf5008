package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/turtacn/termsim/internal/config"
	"github.com/turtacn/termsim/internal/domain/association"
	"github.com/turtacn/termsim/internal/domain/closure"
	neo4jdriver "github.com/turtacn/termsim/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/termsim/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/termsim/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/termsim/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/internal/infrastructure/source"
	"github.com/turtacn/termsim/internal/infrastructure/storage/minio"
	"github.com/turtacn/termsim/pkg/errors"
)

// scoreDeps builds the external backends of a run.  Tests replace them with
// in-memory fakes.
type scoreDeps struct {
	// newObjectStore returns nil when no object store is configured.
	newObjectStore func(cfg *config.Config, logger logging.Logger) (minio.ObjectStore, error)
	// newClosureRepo connects to the database named by closure.backend.
	newClosureRepo func(ctx context.Context, cfg *config.Config, logger logging.Logger) (closure.Repository, io.Closer, error)
	newPublisher   func(cfg *config.Config, logger logging.Logger) (recordPublisher, error)
}

func defaultScoreDeps() scoreDeps {
	return scoreDeps{
		newObjectStore: newMinIOObjectStore,
		newClosureRepo: newDatabaseClosureRepo,
		newPublisher:   newKafkaPublisher,
	}
}

func newMinIOObjectStore(cfg *config.Config, logger logging.Logger) (minio.ObjectStore, error) {
	if cfg.MinIO.Endpoint == "" {
		return nil, nil
	}
	client, err := minio.NewMinIOClient(&minio.MinIOConfig{
		Endpoint:        cfg.MinIO.Endpoint,
		AccessKeyID:     cfg.MinIO.AccessKey,
		SecretAccessKey: cfg.MinIO.SecretKey,
		UseSSL:          cfg.MinIO.UseSSL,
		Region:          cfg.MinIO.Region,
	}, logger)
	if err != nil {
		return nil, err
	}
	return minio.NewObjectStore(client, logger), nil
}

func newDatabaseClosureRepo(ctx context.Context, cfg *config.Config, logger logging.Logger) (closure.Repository, io.Closer, error) {
	switch cfg.Closure.Backend {
	case config.ClosureBackendNeo4j:
		return newNeo4jClosureRepo(ctx, cfg, logger)
	case config.ClosureBackendPostgres:
		return newPostgresClosureRepo(ctx, cfg, logger)
	default:
		return nil, nil, errors.NewValidationError("closure.backend",
			fmt.Sprintf("%q has no database repository", cfg.Closure.Backend))
	}
}

func newNeo4jClosureRepo(ctx context.Context, cfg *config.Config, logger logging.Logger) (closure.Repository, io.Closer, error) {
	d, err := neo4jdriver.NewDriver(ctx, neo4jdriver.Neo4jConfig{
		URI:                   cfg.Neo4j.URI,
		Username:              cfg.Neo4j.User,
		Password:              cfg.Neo4j.Password,
		Database:              cfg.Neo4j.Database,
		MaxConnectionPoolSize: cfg.Neo4j.MaxConnectionPoolSize,
		ConnectTimeout:        cfg.Neo4j.ConnectionTimeout,
		FetchSize:             cfg.Neo4j.FetchSize,
	}, logger)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeDatabaseError) {
			return nil, nil, errors.SourceRead(neo4jrepo.SourceName, err)
		}
		return nil, nil, err
	}
	return neo4jrepo.NewNeo4jClosureRepo(d, cfg.Neo4j.ClosureQuery, logger), d, nil
}

func newPostgresClosureRepo(ctx context.Context, cfg *config.Config, logger logging.Logger) (closure.Repository, io.Closer, error) {
	conn, err := postgres.NewConnection(ctx, postgres.PostgresConfig{
		Host:             cfg.Postgres.Host,
		Port:             cfg.Postgres.Port,
		Database:         cfg.Postgres.Database,
		Username:         cfg.Postgres.User,
		Password:         cfg.Postgres.Password,
		SSLMode:          cfg.Postgres.SSLMode,
		MaxOpenConns:     cfg.Postgres.MaxOpenConns,
		ConnectTimeout:   cfg.Postgres.ConnectTimeout,
		StatementTimeout: cfg.Postgres.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, nil, errors.SourceRead(pgrepo.SourceName, err)
	}
	return pgrepo.NewPostgresClosureRepo(conn.DB(), cfg.Postgres.ClosureQuery, logger), conn, nil
}

// closureSourceName names the configured closure backend in records and logs.
func closureSourceName(cfg *config.Config) string {
	switch cfg.Closure.Backend {
	case config.ClosureBackendNeo4j:
		return neo4jrepo.SourceName
	case config.ClosureBackendPostgres:
		return pgrepo.SourceName
	default:
		return cfg.Sources.Closure
	}
}

// runSources holds the opened record sources of a command.
type runSources struct {
	opener  *source.Opener
	objects minio.ObjectStore
	closers []io.Closer
	logger  logging.Logger
}

func newRunSources(cfg *config.Config, deps scoreDeps, stdin io.Reader, logger logging.Logger) (*runSources, error) {
	objects, err := deps.newObjectStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	opener := source.NewOpener(objects, cfg.Sources.Delimiter, logger)
	if stdin != nil {
		opener.Stdin = stdin
	}
	return &runSources{opener: opener, objects: objects, logger: logger}, nil
}

// open opens a delimited source by URI.
func (s *runSources) open(ctx context.Context, uri string) (association.RecordSource, error) {
	r, err := s.opener.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, r)
	return r, nil
}

// openClosure opens the closure relation from the configured backend.
func (s *runSources) openClosure(ctx context.Context, cfg *config.Config, deps scoreDeps) (association.RecordSource, error) {
	if cfg.Closure.Backend == config.ClosureBackendFile {
		return s.open(ctx, cfg.Sources.Closure)
	}

	repo, closer, err := deps.newClosureRepo(ctx, cfg, s.logger)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	records, err := repo.LoadClosure(ctx)
	if err != nil {
		return nil, err
	}
	return association.FromRecords(closureSourceName(cfg), records), nil
}

func (s *runSources) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Warn("closing record source failed", logging.Err(err))
		}
	}
	s.closers = nil
}

// checkStdinUse rejects reading both sources from stdin.
func checkStdinUse(cfg *config.Config, candidates bool) error {
	closureFromStdin := cfg.Closure.Backend == config.ClosureBackendFile && cfg.Sources.Closure == source.StdinURI
	if candidates && closureFromStdin && cfg.Sources.Candidates == source.StdinURI {
		return errors.NewValidationError("sources", "candidates and closure cannot both be read from stdin")
	}
	return nil
}

//Personal.AI order the ending
