package tabular

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/dbpool"
)

func TestEvalJoinsInMemoryTables(t *testing.T) {
	e := NewDuckDBEvaluator(zap.NewNop())

	tables := map[string]*dbpool.QueryResult{
		"station_aqi": {
			Columns: []string{"code", "aqi"},
			Rows:    [][]any{{"S1", int64(57)}, {"S2", int64(42)}},
		},
		"station_names": {
			Columns: []string{"code", "name"},
			Rows:    [][]any{{"S1", "凤凰山"}, {"S2", "天河"}},
		},
	}

	result, err := e.Eval(context.Background(),
		`SELECT n.name, a.aqi FROM station_aqi a JOIN station_names n ON a.code = n.code ORDER BY a.aqi DESC`,
		tables)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "aqi"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "凤凰山", result.Rows[0][0])
}

func TestEvalEmptyTable(t *testing.T) {
	e := NewDuckDBEvaluator(zap.NewNop())

	tables := map[string]*dbpool.QueryResult{
		"empty": {Columns: []string{"x"}},
	}
	result, err := e.Eval(context.Background(), "SELECT count(*) AS n FROM empty", tables)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
}

func TestEvalRejectsNilTable(t *testing.T) {
	e := NewDuckDBEvaluator(zap.NewNop())

	_, err := e.Eval(context.Background(), "SELECT 1", map[string]*dbpool.QueryResult{"t": nil})
	assert.Error(t, err)
}

func TestEvalBadQuery(t *testing.T) {
	e := NewDuckDBEvaluator(zap.NewNop())

	_, err := e.Eval(context.Background(), "SELECT FROM WHERE", nil)
	assert.Error(t, err)
}

func TestColumnType(t *testing.T) {
	rows := [][]any{
		{nil, 3.14, int64(5), true, "text"},
	}
	assert.Equal(t, "VARCHAR", columnType(rows, 0))
	assert.Equal(t, "DOUBLE", columnType(rows, 1))
	assert.Equal(t, "BIGINT", columnType(rows, 2))
	assert.Equal(t, "BOOLEAN", columnType(rows, 3))
	assert.Equal(t, "VARCHAR", columnType(rows, 4))
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"with""quote"`, quoteIdent(`with"quote`))
}
