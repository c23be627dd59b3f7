package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/knowledge"
	"github.com/airsight-ai/airquery-engine/pkg/stations"
)

// Limits controls how many items each retrieval channel recalls.
type Limits struct {
	DDL           int
	Documentation int
	SQLExamples   int
}

// DefaultLimits returns the standard recall sizes.
func DefaultLimits() Limits {
	return Limits{DDL: 4, Documentation: 10, SQLExamples: 4}
}

// RetrievedContext is the assembled retrieval context for one question. Each
// block is ready for direct substitution into the prompt template; blocks may
// be empty strings except StationInfo, which always carries either matches or
// an explanatory placeholder.
type RetrievedContext struct {
	StationInfo   string
	DDL           string
	Documentation string
	SQLExamples   string
}

// FormatForPrompt renders the context as one labeled block, the shape used
// by the correction prompt.
func (c RetrievedContext) FormatForPrompt() string {
	sections := []struct {
		label string
		body  string
	}{
		{"Station information", c.StationInfo},
		{"Related table definitions (DDL)", c.DDL},
		{"Related business knowledge", c.Documentation},
		{"Similar query examples", c.SQLExamples},
	}
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s.body != "" {
			parts = append(parts, fmt.Sprintf("--- %s ---\n%s", s.label, s.body))
		}
	}
	if len(parts) == 0 {
		return "No context available."
	}
	return strings.Join(parts, "\n\n")
}

// Retriever runs the hybrid retrieval strategy: programmatic station matching
// from extracted entities plus three parallel knowledge lookups.
type Retriever struct {
	extractor *Extractor
	matcher   *stations.Matcher
	store     knowledge.Store
	limits    Limits
	logger    *zap.Logger
}

// NewRetriever wires the retrieval pipeline. Zero limits select the defaults.
func NewRetriever(extractor *Extractor, matcher *stations.Matcher, store knowledge.Store, limits Limits, logger *zap.Logger) *Retriever {
	def := DefaultLimits()
	if limits.DDL <= 0 {
		limits.DDL = def.DDL
	}
	if limits.Documentation <= 0 {
		limits.Documentation = def.Documentation
	}
	if limits.SQLExamples <= 0 {
		limits.SQLExamples = def.SQLExamples
	}
	return &Retriever{
		extractor: extractor,
		matcher:   matcher,
		store:     store,
		limits:    limits,
		logger:    logger.Named("rag"),
	}
}

// Retrieve extracts entities from the question and assembles the full
// retrieval context. The three knowledge lookups run concurrently; a failure
// in any of them fails the whole retrieval.
func (r *Retriever) Retrieve(ctx context.Context, question string) (RetrievedContext, Entities, error) {
	entities := r.extractor.Extract(ctx, question)

	stationKeywords := append(append([]string{}, entities.Locations...), entities.OtherTerms...)
	stationInfo := r.matcher.ContextFor(stationKeywords)

	// DDL and SQL example lookups search on every extracted entity;
	// documentation searches on business terms and columns only. Both fall
	// back to the raw question when their entity set is empty.
	generalQuery := joinOr(entities.All(), question)
	docQuery := joinOr(append(append([]string{}, entities.OtherTerms...), entities.Columns...), question)

	r.logger.Debug("retrieval queries",
		zap.String("general", generalQuery),
		zap.String("documentation", docQuery))

	var (
		wg       sync.WaitGroup
		ddl      []string
		docs     []string
		examples []knowledge.SQLExample
		ddlErr   error
		docErr   error
		sqlErr   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		ddl, ddlErr = r.store.GetRelatedDDL(ctx, generalQuery, r.limits.DDL)
	}()
	go func() {
		defer wg.Done()
		docs, docErr = r.store.GetRelatedDocumentation(ctx, docQuery, r.limits.Documentation)
	}()
	go func() {
		defer wg.Done()
		examples, sqlErr = r.store.GetSimilarQuestionSQL(ctx, generalQuery, r.limits.SQLExamples)
	}()
	wg.Wait()

	if ddlErr != nil {
		return RetrievedContext{}, entities, fmt.Errorf("ddl retrieval: %w", ddlErr)
	}
	if docErr != nil {
		return RetrievedContext{}, entities, fmt.Errorf("documentation retrieval: %w", docErr)
	}
	if sqlErr != nil {
		return RetrievedContext{}, entities, fmt.Errorf("sql example retrieval: %w", sqlErr)
	}

	formatted := make([]string, 0, len(examples))
	for _, ex := range examples {
		formatted = append(formatted, fmt.Sprintf("Question: %s\nAnswer: %s", ex.Question, ex.SQL))
	}

	result := RetrievedContext{
		StationInfo:   stationInfo,
		DDL:           orPlaceholder(joinUnique(ddl), "No related table definitions found."),
		Documentation: orPlaceholder(joinUnique(docs), "No related documentation found."),
		SQLExamples:   orPlaceholder(joinUnique(formatted), "No similar SQL examples found."),
	}

	r.logger.Info("retrieval complete",
		zap.Int("ddl", len(ddl)),
		zap.Int("documentation", len(docs)),
		zap.Int("sql_examples", len(examples)))

	return result, entities, nil
}

// joinUnique deduplicates in first-seen order and joins with a separator line.
func joinUnique(items []string) string {
	seen := make(map[string]bool, len(items))
	unique := items[:0:0]
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			unique = append(unique, item)
		}
	}
	return strings.Join(unique, "\n---\n")
}

// orPlaceholder keeps every context block non-empty for the prompt.
func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// joinOr joins non-empty terms with spaces, falling back when none exist.
func joinOr(terms []string, fallback string) string {
	kept := terms[:0:0]
	for _, t := range terms {
		if t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, " ")
}
