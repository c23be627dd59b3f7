package knowledge

import "context"

// MockStore is a configurable mock for testing retrieval-dependent code.
type MockStore struct {
	// GetRelatedDDLFunc is called when GetRelatedDDL is invoked.
	GetRelatedDDLFunc func(ctx context.Context, query string, n int) ([]string, error)

	// GetRelatedDocumentationFunc is called when GetRelatedDocumentation is invoked.
	GetRelatedDocumentationFunc func(ctx context.Context, query string, n int) ([]string, error)

	// GetSimilarQuestionSQLFunc is called when GetSimilarQuestionSQL is invoked.
	GetSimilarQuestionSQLFunc func(ctx context.Context, query string, n int) ([]SQLExample, error)

	// Call tracking for verification
	DDLCalls     int
	DocCalls     int
	ExampleCalls int
	DDLQueries   []string
	DocQueries   []string
	SQLQueries   []string
	DDLLimits    []int
	DocLimits    []int
	SQLLimits    []int
}

// NewMockStore creates a mock store with no canned behavior.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// GetRelatedDDL implements Store.
func (m *MockStore) GetRelatedDDL(ctx context.Context, query string, n int) ([]string, error) {
	m.DDLCalls++
	m.DDLQueries = append(m.DDLQueries, query)
	m.DDLLimits = append(m.DDLLimits, n)
	if m.GetRelatedDDLFunc != nil {
		return m.GetRelatedDDLFunc(ctx, query, n)
	}
	return nil, nil
}

// GetRelatedDocumentation implements Store.
func (m *MockStore) GetRelatedDocumentation(ctx context.Context, query string, n int) ([]string, error) {
	m.DocCalls++
	m.DocQueries = append(m.DocQueries, query)
	m.DocLimits = append(m.DocLimits, n)
	if m.GetRelatedDocumentationFunc != nil {
		return m.GetRelatedDocumentationFunc(ctx, query, n)
	}
	return nil, nil
}

// GetSimilarQuestionSQL implements Store.
func (m *MockStore) GetSimilarQuestionSQL(ctx context.Context, query string, n int) ([]SQLExample, error) {
	m.ExampleCalls++
	m.SQLQueries = append(m.SQLQueries, query)
	m.SQLLimits = append(m.SQLLimits, n)
	if m.GetSimilarQuestionSQLFunc != nil {
		return m.GetSimilarQuestionSQLFunc(ctx, query, n)
	}
	return nil, nil
}

// Ensure MockStore implements Store at compile time.
var _ Store = (*MockStore)(nil)
