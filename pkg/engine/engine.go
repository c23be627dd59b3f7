// Package engine orchestrates the full question-to-result pipeline:
// retrieval, prompt assembly, generation, response classification, execution
// and single-shot correction.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/apperrors"
	"github.com/airsight-ai/airquery-engine/pkg/dbpool"
	"github.com/airsight-ai/airquery-engine/pkg/llm"
	"github.com/airsight-ai/airquery-engine/pkg/logging"
	"github.com/airsight-ai/airquery-engine/pkg/planner"
	"github.com/airsight-ai/airquery-engine/pkg/prompt"
	"github.com/airsight-ai/airquery-engine/pkg/rag"
	sqlguard "github.com/airsight-ai/airquery-engine/pkg/sql"
)

// Status tags every terminal outcome.
type Status string

const (
	StatusSuccess             Status = "success"
	StatusError               Status = "error"
	StatusClarificationNeeded Status = "clarification_needed"
)

// NamedRecords is one named result set from a plan, as row maps.
type NamedRecords struct {
	Name    string           `json:"name"`
	Records []map[string]any `json:"records"`
}

// Outcome is the terminal result of one question. Exactly one of Results,
// PlanResults or Clarification carries the payload, selected by Status and
// the response kind.
type Outcome struct {
	Status        Status           `json:"status"`
	SQL           string           `json:"sql,omitempty"`
	Results       []map[string]any `json:"results,omitempty"`
	PlanResults   []NamedRecords   `json:"plan_results,omitempty"`
	Clarification string           `json:"clarification,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// Engine ties the pipeline together.
type Engine struct {
	generator    llm.TextGenerator
	retriever    *rag.Retriever
	assembler    *prompt.Assembler
	executor     dbpool.Executor
	planExecutor *planner.Executor
	databaseName string
	databaseType string
	logger       *zap.Logger
}

// New creates the engine from its wired components.
func New(generator llm.TextGenerator, retriever *rag.Retriever, assembler *prompt.Assembler,
	executor dbpool.Executor, planExecutor *planner.Executor,
	databaseName, databaseType string, logger *zap.Logger) *Engine {
	return &Engine{
		generator:    generator,
		retriever:    retriever,
		assembler:    assembler,
		executor:     executor,
		planExecutor: planExecutor,
		databaseName: databaseName,
		databaseType: databaseType,
		logger:       logger.Named("engine"),
	}
}

// GenerateSQL produces the model's response for a question: a SQL statement,
// a plan, or a clarification request, cleaned of markdown cruft. The
// retrieval context is returned so a later correction can reuse it
// unchanged.
func (e *Engine) GenerateSQL(ctx context.Context, question string, history []llm.Message) (string, rag.RetrievedContext, error) {
	requestID := uuid.NewString()
	logger := e.logger.With(zap.String("request_id", requestID))
	logger.Info("generating sql", zap.String("question", question))

	retrieved, _, err := e.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", rag.RetrievedContext{}, fmt.Errorf("retrieve context: %w", err)
	}

	messages, err := e.assembler.BuildMessages(question, e.databaseName, e.databaseType, retrieved, history)
	if err != nil {
		return "", retrieved, fmt.Errorf("assemble prompt: %w", err)
	}

	response, err := e.generator.Chat(ctx, messages)
	if err != nil {
		return "", retrieved, fmt.Errorf("generate response: %w", err)
	}

	cleaned := llm.CleanResponse(response)
	logger.Info("model response", zap.String("response", logging.SanitizeQuery(cleaned)))
	return cleaned, retrieved, nil
}

// Ask returns only the model's response text.
func (e *Engine) Ask(ctx context.Context, question string, history []llm.Message) (string, error) {
	response, _, err := e.GenerateSQL(ctx, question, history)
	return response, err
}

// AskAndRun generates a response, classifies it, and executes it. Every path
// ends in an Outcome; faults become error outcomes rather than escaping.
func (e *Engine) AskAndRun(ctx context.Context, question string, history []llm.Message) *Outcome {
	response, retrieved, err := e.GenerateSQL(ctx, question, history)
	if err != nil {
		return &Outcome{Status: StatusError, Error: err.Error()}
	}

	descriptor := planner.Classify(response)
	e.logger.Info("response classified", zap.Stringer("kind", descriptor.Kind))

	switch descriptor.Kind {
	case planner.KindSimpleSQL:
		return e.runSimpleSQL(ctx, question, descriptor.SQL, retrieved, history)

	case planner.KindMultiStepPlan:
		return e.runPlan(ctx, descriptor)

	case planner.KindClarification:
		return &Outcome{
			Status:        StatusClarificationNeeded,
			Clarification: descriptor.Clarification,
		}

	default:
		err := fmt.Errorf("%w: %s", apperrors.ErrMalformedResponse, descriptor.Raw)
		return &Outcome{Status: StatusError, Error: err.Error()}
	}
}

// runSimpleSQL executes a direct statement, engaging the corrector once on
// failure.
func (e *Engine) runSimpleSQL(ctx context.Context, question, sql string, retrieved rag.RetrievedContext, history []llm.Message) *Outcome {
	validated, err := sqlguard.ValidateGenerated(sql)
	if err != nil {
		return &Outcome{Status: StatusError, SQL: sql, Error: err.Error()}
	}

	result, err := e.executor.RunQuery(ctx, validated)
	if err == nil {
		return &Outcome{Status: StatusSuccess, SQL: validated, Results: result.Records()}
	}
	e.logger.Warn("query failed, attempting correction",
		zap.String("error", logging.SanitizeError(err)))

	corrected := e.CorrectSQL(ctx, question, validated, err.Error(), retrieved, history)
	if corrected == validated {
		return &Outcome{Status: StatusError, SQL: validated, Error: err.Error()}
	}
	corrected, vErr := sqlguard.ValidateGenerated(corrected)
	if vErr != nil {
		return &Outcome{Status: StatusError, SQL: validated, Error: err.Error()}
	}

	result, retryErr := e.executor.RunQuery(ctx, corrected)
	if retryErr != nil {
		return &Outcome{Status: StatusError, SQL: corrected, Error: retryErr.Error()}
	}
	return &Outcome{Status: StatusSuccess, SQL: corrected, Results: result.Records()}
}

// runPlan executes a multi-step plan and shapes its ordered outputs.
func (e *Engine) runPlan(ctx context.Context, descriptor planner.Descriptor) *Outcome {
	output, err := e.planExecutor.Execute(ctx, descriptor.Plan)
	if err != nil {
		return &Outcome{Status: StatusError, SQL: descriptor.Raw, Error: fmt.Sprintf("plan execution failed: %v", err)}
	}

	results := make([]NamedRecords, 0, len(output.Ordered))
	for _, named := range output.Ordered {
		results = append(results, NamedRecords{Name: named.Name, Records: named.Result.Records()})
	}
	return &Outcome{Status: StatusSuccess, SQL: descriptor.Raw, PlanResults: results}
}

// PoolStatus exposes the connection pool snapshot.
func (e *Engine) PoolStatus() dbpool.Status {
	return e.executor.Status()
}
