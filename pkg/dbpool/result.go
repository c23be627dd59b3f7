// Package dbpool provides query execution against the monitoring database.
// PostgreSQL connections are pooled by pgxpool; SQL Server connections go
// through a hand-managed pool with liveness probing and bounded size.
package dbpool

// QueryResult is the tabular result of one query: column names in select
// order plus row values aligned to them.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Records converts the result to one map per row, keyed by column name.
func (r *QueryResult) Records() []map[string]any {
	if r == nil {
		return nil
	}
	records := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		record := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}

// RowCount returns the number of rows, tolerating a nil result.
func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}
