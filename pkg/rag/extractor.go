// Package rag turns a natural language question into the retrieval context
// used for SQL generation: structured entity extraction, programmatic station
// matching, and parallel knowledge retrieval.
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/jsonutil"
	"github.com/airsight-ai/airquery-engine/pkg/llm"
	"github.com/airsight-ai/airquery-engine/pkg/metadata"
)

// promptFieldLimit bounds how many field descriptions are shown in the
// extraction prompt, to keep it short.
const promptFieldLimit = 30

// Entities is the categorized output of entity extraction. Every slice is
// non-nil after normalization so downstream code can range freely.
type Entities struct {
	Locations       []string `json:"locations"`
	Tables          []string `json:"tables"`
	Columns         []string `json:"columns"`
	TimeExpressions []string `json:"time_expressions"`
	OtherTerms      []string `json:"other_terms"`
}

// Normalize replaces nil category slices with empty ones.
func (e *Entities) Normalize() {
	if e.Locations == nil {
		e.Locations = []string{}
	}
	if e.Tables == nil {
		e.Tables = []string{}
	}
	if e.Columns == nil {
		e.Columns = []string{}
	}
	if e.TimeExpressions == nil {
		e.TimeExpressions = []string{}
	}
	if e.OtherTerms == nil {
		e.OtherTerms = []string{}
	}
}

// All flattens every category into one slice, category by category.
func (e *Entities) All() []string {
	out := make([]string, 0, len(e.Locations)+len(e.Tables)+len(e.Columns)+len(e.TimeExpressions)+len(e.OtherTerms))
	out = append(out, e.Locations...)
	out = append(out, e.Tables...)
	out = append(out, e.Columns...)
	out = append(out, e.TimeExpressions...)
	out = append(out, e.OtherTerms...)
	return out
}

// IsEmpty reports whether no entity was extracted in any category.
func (e *Entities) IsEmpty() bool {
	return len(e.Locations) == 0 && len(e.Tables) == 0 && len(e.Columns) == 0 &&
		len(e.TimeExpressions) == 0 && len(e.OtherTerms) == 0
}

// Extractor asks the model to pull query-relevant keywords out of a question
// and classify them. Extraction failures degrade to an empty result rather
// than failing the pipeline.
type Extractor struct {
	generator llm.TextGenerator
	catalog   *metadata.Catalog
	logger    *zap.Logger
}

// NewExtractor creates an extractor over the given generator and catalog.
func NewExtractor(generator llm.TextGenerator, catalog *metadata.Catalog, logger *zap.Logger) *Extractor {
	return &Extractor{
		generator: generator,
		catalog:   catalog,
		logger:    logger.Named("extractor"),
	}
}

// Extract runs the extraction prompt and parses the categorized result.
// Any failure, from the model call to JSON parsing, yields empty entities.
func (x *Extractor) Extract(ctx context.Context, question string) Entities {
	prompt := x.buildPrompt(question)

	response, err := x.generator.Chat(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		x.logger.Warn("entity extraction call failed", zap.Error(err))
		return emptyEntities()
	}

	obj, ok := llm.ExtractObject(response)
	if !ok {
		x.logger.Warn("no JSON object in extraction response")
		return emptyEntities()
	}

	// Models occasionally emit numbers in the arrays (years, station codes),
	// so each category is decoded leniently instead of failing the whole
	// extraction on one non-string entry.
	var raw struct {
		Locations       json.RawMessage `json:"locations"`
		Tables          json.RawMessage `json:"tables"`
		Columns         json.RawMessage `json:"columns"`
		TimeExpressions json.RawMessage `json:"time_expressions"`
		OtherTerms      json.RawMessage `json:"other_terms"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		x.logger.Warn("extraction response is not valid JSON", zap.Error(err))
		return emptyEntities()
	}
	entities := Entities{
		Locations:       jsonutil.FlexibleStringSlice(raw.Locations),
		Tables:          jsonutil.FlexibleStringSlice(raw.Tables),
		Columns:         jsonutil.FlexibleStringSlice(raw.Columns),
		TimeExpressions: jsonutil.FlexibleStringSlice(raw.TimeExpressions),
		OtherTerms:      jsonutil.FlexibleStringSlice(raw.OtherTerms),
	}
	entities.Normalize()

	x.logger.Debug("entities extracted",
		zap.Strings("locations", entities.Locations),
		zap.Strings("tables", entities.Tables),
		zap.Strings("columns", entities.Columns),
		zap.Strings("time_expressions", entities.TimeExpressions),
		zap.Strings("other_terms", entities.OtherTerms))

	return entities
}

func (x *Extractor) buildPrompt(question string) string {
	tableInfo := "none"
	fieldInfo := "none"
	if x.catalog != nil {
		tableInfo = x.catalog.PromptTableInfo()
		fieldInfo = x.catalog.PromptFieldInfo(promptFieldLimit)
	}

	var b strings.Builder
	b.WriteString("You are a database metadata analyzer. Extract every keyword from the user's question that could be relevant to a database query.\n\n")
	b.WriteString("Use the following table information and field glossary to improve accuracy.\n\n")
	b.WriteString("### Key tables:\n")
	b.WriteString(tableInfo)
	b.WriteString("\n\n### Key field glossary:\n")
	b.WriteString(fieldInfo)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "User question: %q\n\n", question)
	b.WriteString(`Return ONLY a JSON object classifying the extracted entities, with these keys: "locations", "tables", "columns", "time_expressions", "other_terms".
- "locations": place or station names (e.g. '凤凰山', '广州').
- "tables": database table names or their business synonyms (e.g. 'station daily averages', 'dat_station_day').
- "columns": column names or their business synonyms (e.g. 'AQI', 'primary pollutant').
- "time_expressions": time-related terms (e.g. 'yesterday', '2025-03-01').
- "other_terms": remaining business terms that fit no other category (e.g. 'air quality', 'heavy pollution').

Use an empty array [] for any category with no entities.
Example: {"locations": ["凤凰山"], "tables": ["dat_station_day"], "columns": ["aqi"], "time_expressions": ["2025-03-01"], "other_terms": ["air quality"]}`)

	return b.String()
}

func emptyEntities() Entities {
	e := Entities{}
	e.Normalize()
	return e
}
