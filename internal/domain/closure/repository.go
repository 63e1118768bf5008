package closure

import (
	"context"

	"github.com/turtacn/termsim/internal/domain/association"
)

// Repository loads the closure relation from a database as term/related
// records.  Implementations return every row; grouping happens in
// association.Parse.
type Repository interface {
	LoadClosure(ctx context.Context) ([]association.Record, error)
}

//Personal.AI order the ending
