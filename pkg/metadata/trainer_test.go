package metadata

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/dbpool"
)

type fakeRunner struct {
	results map[string]*dbpool.QueryResult
	err     error
}

func (r *fakeRunner) RunQuery(ctx context.Context, sql string) (*dbpool.QueryResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	for key, result := range r.results {
		if strings.Contains(sql, key) {
			return result, nil
		}
	}
	return &dbpool.QueryResult{}, nil
}

type fakeTrainerStore struct {
	ddls     []string
	docs     []string
	examples [][2]string
}

func (s *fakeTrainerStore) AddDDL(ctx context.Context, ddl string) error {
	s.ddls = append(s.ddls, ddl)
	return nil
}

func (s *fakeTrainerStore) AddDocumentation(ctx context.Context, doc string) error {
	s.docs = append(s.docs, doc)
	return nil
}

func (s *fakeTrainerStore) AddQuestionSQL(ctx context.Context, question, sql string) error {
	s.examples = append(s.examples, [2]string{question, sql})
	return nil
}

func newTestRunner() *fakeRunner {
	return &fakeRunner{results: map[string]*dbpool.QueryResult{
		"INFORMATION_SCHEMA.TABLES": {
			Columns: []string{"TABLE_SCHEMA", "TABLE_NAME"},
			Rows:    [][]any{{"dbo", "dat_station_day"}},
		},
		"INFORMATION_SCHEMA.COLUMNS": {
			Columns: []string{"COLUMN_NAME", "DATA_TYPE", "CHARACTER_MAXIMUM_LENGTH", "IS_NULLABLE"},
			Rows: [][]any{
				{"id", "bigint", nil, "NO"},
				{"aqi", "int", nil, "YES"},
				{"name", "nvarchar", int64(100), "YES"},
			},
		},
		"PRIMARY KEY": {
			Columns: []string{"COLUMN_NAME"},
			Rows:    [][]any{{"id"}},
		},
	}}
}

func TestTrainSeedsGlossaryDDLAndDocs(t *testing.T) {
	store := &fakeTrainerStore{}
	trainer := NewTrainer(newTestRunner(), DefaultCatalog(), store, zap.NewNop())

	require.NoError(t, trainer.Train(context.Background(), true))

	// First document is the field glossary.
	require.NotEmpty(t, store.docs)
	assert.Contains(t, store.docs[0], "Business meaning of common database fields")
	assert.Contains(t, store.docs[0], "`aqi` means 'air quality index'")

	require.Len(t, store.ddls, 1)
	ddl := store.ddls[0]
	assert.Contains(t, ddl, "-- Business name: station daily averages")
	assert.Contains(t, ddl, "CREATE TABLE dbo.dat_station_day")
	assert.Contains(t, ddl, "id bigint NOT NULL -- auto-increment primary key")
	assert.Contains(t, ddl, "aqi int -- air quality index")
	assert.Contains(t, ddl, "nvarchar(100)")
	assert.Contains(t, ddl, "PRIMARY KEY (id)")

	// One business description for the documented table.
	require.Len(t, store.docs, 2)
	assert.Contains(t, store.docs[1], "Table 'dat_station_day'")
}

func TestTrainSkipsTableWithoutColumns(t *testing.T) {
	runner := newTestRunner()
	runner.results["INFORMATION_SCHEMA.COLUMNS"] = &dbpool.QueryResult{}
	store := &fakeTrainerStore{}
	trainer := NewTrainer(runner, DefaultCatalog(), store, zap.NewNop())

	require.NoError(t, trainer.Train(context.Background(), true))
	assert.Empty(t, store.ddls)
}

func TestTrainFailsWhenListingFails(t *testing.T) {
	store := &fakeTrainerStore{}
	trainer := NewTrainer(&fakeRunner{err: errors.New("db down")}, DefaultCatalog(), store, zap.NewNop())

	err := trainer.Train(context.Background(), true)
	require.Error(t, err)
}

func TestAddSQLExample(t *testing.T) {
	store := &fakeTrainerStore{}
	trainer := NewTrainer(newTestRunner(), DefaultCatalog(), store, zap.NewNop())

	require.NoError(t, trainer.AddSQLExample(context.Background(), "凤凰山的AQI", "SELECT aqi FROM dat_station_day"))
	require.Len(t, store.examples, 1)
	assert.Equal(t, "凤凰山的AQI", store.examples[0][0])
}

func TestMetadataKeyFoldsPartitionedTables(t *testing.T) {
	assert.Equal(t, "dat_station_hour", metadataKey("dat_station_hour_2024"))
	assert.Equal(t, "dat_city_hour", metadataKey("dat_city_hour_2023"))
	assert.Equal(t, "bsd_station", metadataKey("bsd_station"))
}
