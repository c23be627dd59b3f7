package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/knowledge"
	"github.com/airsight-ai/airquery-engine/pkg/llm"
	"github.com/airsight-ai/airquery-engine/pkg/stations"
)

func extractorReturning(entities string) *Extractor {
	mock := llm.NewMockClient()
	mock.ChatFunc = func(ctx context.Context, messages []llm.Message) (string, error) {
		return entities, nil
	}
	return NewExtractor(mock, nil, zap.NewNop())
}

func testMatcher() *stations.Matcher {
	records := []stations.Record{
		{Name: "凤凰山", UniqueCode: "440100001", CityName: "广州"},
	}
	return stations.NewMatcher(records, 0, 0, zap.NewNop())
}

func TestRetrieveAssemblesAllBlocks(t *testing.T) {
	store := knowledge.NewMockStore()
	store.GetRelatedDDLFunc = func(ctx context.Context, query string, n int) ([]string, error) {
		return []string{"CREATE TABLE dat_station_day (...)"}, nil
	}
	store.GetRelatedDocumentationFunc = func(ctx context.Context, query string, n int) ([]string, error) {
		return []string{"AQI levels range from 0 to 500."}, nil
	}
	store.GetSimilarQuestionSQLFunc = func(ctx context.Context, query string, n int) ([]knowledge.SQLExample, error) {
		return []knowledge.SQLExample{{Question: "凤凰山的AQI", SQL: "SELECT aqi FROM dat_station_day"}}, nil
	}

	x := extractorReturning(`{"locations": ["凤凰山"], "columns": ["aqi"], "other_terms": ["空气质量"]}`)
	r := NewRetriever(x, testMatcher(), store, Limits{}, zap.NewNop())

	result, entities, err := r.Retrieve(context.Background(), "凤凰山的空气质量")
	require.NoError(t, err)

	assert.Contains(t, result.StationInfo, "凤凰山")
	assert.Contains(t, result.StationInfo, "440100001")
	assert.Contains(t, result.DDL, "CREATE TABLE dat_station_day")
	assert.Contains(t, result.Documentation, "AQI levels")
	assert.Equal(t, "Question: 凤凰山的AQI\nAnswer: SELECT aqi FROM dat_station_day", result.SQLExamples)
	assert.Equal(t, []string{"凤凰山"}, entities.Locations)
}

func TestRetrieveQueryDerivation(t *testing.T) {
	store := knowledge.NewMockStore()
	x := extractorReturning(`{"locations": ["凤凰山"], "tables": ["dat_station_day"], "columns": ["aqi"], "other_terms": ["空气质量"]}`)
	r := NewRetriever(x, testMatcher(), store, Limits{}, zap.NewNop())

	_, _, err := r.Retrieve(context.Background(), "凤凰山的空气质量")
	require.NoError(t, err)

	// DDL and SQL example lookups search on the flattened entity list.
	require.Len(t, store.DDLQueries, 1)
	assert.Equal(t, "凤凰山 dat_station_day aqi 空气质量", store.DDLQueries[0])
	require.Len(t, store.SQLQueries, 1)
	assert.Equal(t, "凤凰山 dat_station_day aqi 空气质量", store.SQLQueries[0])

	// Documentation searches on business terms and columns only.
	require.Len(t, store.DocQueries, 1)
	assert.Equal(t, "空气质量 aqi", store.DocQueries[0])
}

func TestRetrieveFallsBackToQuestion(t *testing.T) {
	store := knowledge.NewMockStore()
	x := extractorReturning(`not json at all`)
	r := NewRetriever(x, testMatcher(), store, Limits{}, zap.NewNop())

	_, _, err := r.Retrieve(context.Background(), "最近空气怎么样")
	require.NoError(t, err)

	require.Len(t, store.DDLQueries, 1)
	assert.Equal(t, "最近空气怎么样", store.DDLQueries[0])
	require.Len(t, store.DocQueries, 1)
	assert.Equal(t, "最近空气怎么样", store.DocQueries[0])
}

func TestRetrieveUsesConfiguredLimits(t *testing.T) {
	store := knowledge.NewMockStore()
	x := extractorReturning(`{}`)
	r := NewRetriever(x, testMatcher(), store, Limits{DDL: 2, Documentation: 5, SQLExamples: 3}, zap.NewNop())

	_, _, err := r.Retrieve(context.Background(), "空气质量")
	require.NoError(t, err)

	assert.Equal(t, []int{2}, store.DDLLimits)
	assert.Equal(t, []int{5}, store.DocLimits)
	assert.Equal(t, []int{3}, store.SQLLimits)
}

func TestRetrieveDeduplicatesFirstSeen(t *testing.T) {
	store := knowledge.NewMockStore()
	store.GetRelatedDDLFunc = func(ctx context.Context, query string, n int) ([]string, error) {
		return []string{"ddl-a", "ddl-b", "ddl-a"}, nil
	}
	x := extractorReturning(`{}`)
	r := NewRetriever(x, testMatcher(), store, Limits{}, zap.NewNop())

	result, _, err := r.Retrieve(context.Background(), "空气质量")
	require.NoError(t, err)
	assert.Equal(t, "ddl-a\n---\nddl-b", result.DDL)
}

func TestRetrieveEmptyChannelsGetPlaceholders(t *testing.T) {
	store := knowledge.NewMockStore()
	x := extractorReturning(`{}`)
	r := NewRetriever(x, testMatcher(), store, Limits{}, zap.NewNop())

	result, _, err := r.Retrieve(context.Background(), "空气质量")
	require.NoError(t, err)

	assert.NotEmpty(t, result.StationInfo)
	assert.Equal(t, "No related table definitions found.", result.DDL)
	assert.Equal(t, "No related documentation found.", result.Documentation)
	assert.Equal(t, "No similar SQL examples found.", result.SQLExamples)
}

func TestRetrieveFailsWhenAnyChannelFails(t *testing.T) {
	store := knowledge.NewMockStore()
	store.GetRelatedDocumentationFunc = func(ctx context.Context, query string, n int) ([]string, error) {
		return nil, errors.New("store offline")
	}
	x := extractorReturning(`{}`)
	r := NewRetriever(x, testMatcher(), store, Limits{}, zap.NewNop())

	_, _, err := r.Retrieve(context.Background(), "空气质量")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "documentation retrieval")
}
