package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/termsim/internal/domain/association"
	"github.com/turtacn/termsim/internal/domain/closure"
	driver "github.com/turtacn/termsim/internal/infrastructure/database/neo4j"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/pkg/errors"
)

// DefaultClosureQuery returns every term paired with itself and each of its
// transitive SUBCLASS_OF ancestors.
const DefaultClosureQuery = `MATCH (t:Term)-[:SUBCLASS_OF*0..]->(a:Term)
RETURN t.id AS term, a.id AS related`

// Column names a closure query must return.
const (
	ColumnTerm    = "term"
	ColumnRelated = "related"
)

// SourceName identifies closure rows read from the graph in errors and logs.
const SourceName = "neo4j"

type neo4jClosureRepo struct {
	driver driver.Reader
	query  string
	log    logging.Logger
}

// NewNeo4jClosureRepo returns a closure.Repository running query, or
// DefaultClosureQuery when query is blank.
func NewNeo4jClosureRepo(d driver.Reader, query string, log logging.Logger) closure.Repository {
	if strings.TrimSpace(query) == "" {
		query = DefaultClosureQuery
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &neo4jClosureRepo{
		driver: d,
		query:  query,
		log:    log,
	}
}

func (r *neo4jClosureRepo) LoadClosure(ctx context.Context) ([]association.Record, error) {
	start := time.Now()

	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, r.query, nil)
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, result, mapClosureRow)
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeDatabaseError) {
			return nil, errors.SourceRead(SourceName, err)
		}
		return nil, err
	}

	records, _ := res.([]association.Record)
	r.log.Info("closure loaded from graph",
		logging.Int("rows", len(records)),
		logging.Duration("duration", time.Since(start)))
	return records, nil
}

func mapClosureRow(rec *neo4j.Record) (association.Record, error) {
	term, err := stringColumn(rec, ColumnTerm)
	if err != nil {
		return association.Record{}, err
	}
	related, err := stringColumn(rec, ColumnRelated)
	if err != nil {
		return association.Record{}, err
	}
	return association.Record{Key: term, Value: related}, nil
}

func stringColumn(rec *neo4j.Record, key string) (string, error) {
	v, ok := rec.Get(key)
	if !ok {
		return "", errors.New(errors.ErrCodeMalformedRecord, "closure query result is missing a column").
			WithDetail(fmt.Sprintf("source=%s column=%s", SourceName, key))
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New(errors.ErrCodeMalformedRecord, "closure query column is not a string").
			WithDetail(fmt.Sprintf("source=%s column=%s type=%T", SourceName, key, v))
	}
	return s, nil
}

//Personal.AI order the ending
