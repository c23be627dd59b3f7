// Package knowledge provides the semantic knowledge store used for
// retrieval-augmented SQL generation: three corpora (schema DDL, general
// documentation, question/SQL example pairs), each queryable by similarity.
package knowledge

import "context"

// SQLExample pairs a previously asked question with the SQL that answered it.
type SQLExample struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// TrainingItem is one stored knowledge entry, addressable for inspection
// and removal.
type TrainingItem struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// Training item kinds.
const (
	KindDDL           = "ddl"
	KindDocumentation = "documentation"
	KindSQL           = "sql"
)

// Store is the semantic knowledge store interface. Each method returns up to
// n snippets ordered by decreasing similarity to the query text.
// Use this interface for dependency injection to enable mocking in tests.
type Store interface {
	// GetRelatedDDL returns schema definitions related to the query text.
	GetRelatedDDL(ctx context.Context, query string, n int) ([]string, error)

	// GetRelatedDocumentation returns documentation snippets related to the
	// query text.
	GetRelatedDocumentation(ctx context.Context, query string, n int) ([]string, error)

	// GetSimilarQuestionSQL returns question/SQL pairs similar to the query.
	GetSimilarQuestionSQL(ctx context.Context, query string, n int) ([]SQLExample, error)
}

// Trainer is the write side of the store, used when seeding knowledge from
// schema introspection or curated examples.
type Trainer interface {
	AddDDL(ctx context.Context, ddl string) error
	AddDocumentation(ctx context.Context, doc string) error
	AddQuestionSQL(ctx context.Context, question, sql string) error
}
