// Package tabular evaluates SQL against in-memory result sets. Plan steps
// that reference earlier step outputs run here instead of the live database.
package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/dbpool"
)

// Evaluator runs a query against named in-memory tables.
type Evaluator interface {
	Eval(ctx context.Context, query string, tables map[string]*dbpool.QueryResult) (*dbpool.QueryResult, error)
}

// DuckDBEvaluator materializes the named result sets into an ephemeral
// in-memory DuckDB database and runs the query there. Each Eval gets a fresh
// database, so evaluations cannot observe each other.
type DuckDBEvaluator struct {
	logger *zap.Logger
}

// NewDuckDBEvaluator creates the evaluator.
func NewDuckDBEvaluator(logger *zap.Logger) *DuckDBEvaluator {
	return &DuckDBEvaluator{logger: logger.Named("tabular")}
}

var _ Evaluator = (*DuckDBEvaluator)(nil)

// Eval loads the tables and executes the query.
func (e *DuckDBEvaluator) Eval(ctx context.Context, query string, tables map[string]*dbpool.QueryResult) (*dbpool.QueryResult, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	defer db.Close()

	for name, table := range tables {
		if err := materialize(ctx, db, name, table); err != nil {
			return nil, fmt.Errorf("materialize table %s: %w", name, err)
		}
	}

	e.logger.Debug("evaluating in-memory query",
		zap.String("query", query),
		zap.Int("tables", len(tables)))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("evaluate query: %w", err)
	}
	defer rows.Close()
	return readRows(rows)
}

// materialize creates one table and inserts the result rows. Column types
// are inferred from the first non-nil value per column, defaulting to text.
func materialize(ctx context.Context, db *sql.DB, name string, table *dbpool.QueryResult) error {
	if table == nil || len(table.Columns) == 0 {
		return fmt.Errorf("empty result set")
	}

	defs := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col), columnType(table.Rows, i))
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if len(table.Rows) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(table.Columns)), ",")
	insertStmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), placeholders)
	stmt, err := db.PrepareContext(ctx, insertStmt)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		values := make([]any, len(table.Columns))
		for i := range table.Columns {
			if i < len(row) {
				values[i] = normalizeValue(row[i])
			}
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return nil
}

// columnType picks a storage type from the first non-nil value in column i.
func columnType(rows [][]any, i int) string {
	for _, row := range rows {
		if i >= len(row) || row[i] == nil {
			continue
		}
		switch row[i].(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return "BIGINT"
		case float32, float64:
			return "DOUBLE"
		case bool:
			return "BOOLEAN"
		case time.Time:
			return "TIMESTAMP"
		default:
			return "VARCHAR"
		}
	}
	return "VARCHAR"
}

// normalizeValue coerces driver-specific values into types the insert path
// accepts.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return v
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// readRows drains a result set into the shared tabular shape.
func readRows(rows *sql.Rows) (*dbpool.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &dbpool.QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
