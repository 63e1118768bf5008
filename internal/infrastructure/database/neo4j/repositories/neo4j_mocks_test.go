package repositories

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/mock"

	infraNeo4j "github.com/turtacn/termsim/internal/infrastructure/database/neo4j"
)

// MockReader implements infraNeo4j.Reader.  ExecuteRead fails with the error
// given to On("ExecuteRead") or runs work against tx.
type MockReader struct {
	mock.Mock
	tx infraNeo4j.Transaction
}

func (m *MockReader) ExecuteRead(ctx context.Context, work infraNeo4j.ReadWork) (any, error) {
	if err := m.Called(ctx).Error(0); err != nil {
		return nil, err
	}
	return work(m.tx)
}

func (m *MockReader) Close() error {
	return m.Called().Error(0)
}

type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	args := m.Called(ctx, cypher, params)
	res, _ := args.Get(0).(infraNeo4j.Result)
	return res, args.Error(1)
}

// stubResult yields fixed rows.
type stubResult struct {
	rows []*neo4j.Record
	next int
	err  error
}

func newStubResult(keys []string, values ...[]any) *stubResult {
	res := &stubResult{}
	for _, v := range values {
		res.rows = append(res.rows, &neo4j.Record{Keys: keys, Values: v})
	}
	return res
}

func (r *stubResult) Next(context.Context) bool {
	if r.next == len(r.rows) {
		return false
	}
	r.next++
	return true
}

func (r *stubResult) Record() *neo4j.Record { return r.rows[r.next-1] }
func (r *stubResult) Err() error            { return r.err }

//Personal.AI order the ending
