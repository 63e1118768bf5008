// Package repositories reads the term closure relation from PostgreSQL.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/termsim/internal/domain/association"
	"github.com/turtacn/termsim/internal/domain/closure"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/pkg/errors"
)

// DefaultClosureQuery reads a two-column closure table.  The table holds one
// row per (term, related term) pair, self pairs included.
const DefaultClosureQuery = "SELECT term, related FROM term_closure"

// SourceName identifies closure rows read from PostgreSQL in errors and logs.
const SourceName = "postgres"

// Querier is the subset of *sql.DB the repository needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type postgresClosureRepo struct {
	db    Querier
	query string
	log   logging.Logger
}

// NewPostgresClosureRepo returns a closure.Repository running query, or
// DefaultClosureQuery when query is blank.
func NewPostgresClosureRepo(db Querier, query string, log logging.Logger) closure.Repository {
	if strings.TrimSpace(query) == "" {
		query = DefaultClosureQuery
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresClosureRepo{db: db, query: query, log: log}
}

// LoadClosure runs the query and returns its rows in result order.  The query
// must return exactly two non-NULL columns.
func (r *postgresClosureRepo) LoadClosure(ctx context.Context) ([]association.Record, error) {
	start := time.Now()

	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return nil, errors.SourceRead(SourceName, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.SourceRead(SourceName, err)
	}
	if len(cols) != 2 {
		return nil, errors.MalformedRecord(SourceName, 1, len(cols))
	}

	var records []association.Record
	for rows.Next() {
		var term, related sql.NullString
		if err := rows.Scan(&term, &related); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMalformedRecord, "closure row could not be scanned").
				WithDetail(fmt.Sprintf("source=%s row=%d", SourceName, len(records)+1))
		}
		if !term.Valid || !related.Valid {
			return nil, errors.New(errors.ErrCodeMalformedRecord, "closure row has a NULL column").
				WithDetail(fmt.Sprintf("source=%s row=%d", SourceName, len(records)+1))
		}
		records = append(records, association.Record{Key: term.String, Value: related.String})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.SourceRead(SourceName, err)
	}

	r.log.Info("closure loaded from table",
		logging.Int("rows", len(records)),
		logging.Duration("duration", time.Since(start)))
	return records, nil
}

//Personal.AI order the ending
