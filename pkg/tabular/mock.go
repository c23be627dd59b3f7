package tabular

import (
	"context"

	"github.com/airsight-ai/airquery-engine/pkg/dbpool"
)

// MockEvaluator is a configurable mock for testing plan execution.
type MockEvaluator struct {
	// EvalFunc is called when Eval is invoked.
	EvalFunc func(ctx context.Context, query string, tables map[string]*dbpool.QueryResult) (*dbpool.QueryResult, error)

	// Call tracking for verification
	EvalCalls   int
	EvalQueries []string
	EvalTables  []map[string]*dbpool.QueryResult
}

// NewMockEvaluator creates a mock with no canned behavior.
func NewMockEvaluator() *MockEvaluator {
	return &MockEvaluator{}
}

// Eval implements Evaluator.
func (m *MockEvaluator) Eval(ctx context.Context, query string, tables map[string]*dbpool.QueryResult) (*dbpool.QueryResult, error) {
	m.EvalCalls++
	m.EvalQueries = append(m.EvalQueries, query)
	m.EvalTables = append(m.EvalTables, tables)
	if m.EvalFunc != nil {
		return m.EvalFunc(ctx, query, tables)
	}
	return &dbpool.QueryResult{}, nil
}

var _ Evaluator = (*MockEvaluator)(nil)
