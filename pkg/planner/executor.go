package planner

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/apperrors"
	"github.com/airsight-ai/airquery-engine/pkg/dbpool"
	sqlguard "github.com/airsight-ai/airquery-engine/pkg/sql"
	"github.com/airsight-ai/airquery-engine/pkg/tabular"
)

// variablePattern matches @name references to earlier step outputs.
var variablePattern = regexp.MustCompile(`@(\w+)`)

// QueryRunner runs SQL against the live database.
type QueryRunner interface {
	RunQuery(ctx context.Context, sql string) (*dbpool.QueryResult, error)
}

// NamedResult pairs a step output variable with its result set.
type NamedResult struct {
	Name   string
	Result *dbpool.QueryResult
}

// PlanOutput is the outcome of a fully executed plan: the presentation's
// ordered selection plus the complete execution context.
type PlanOutput struct {
	Ordered []NamedResult
	Context map[string]*dbpool.QueryResult
}

// Executor runs query plans step by step. Steps execute in ascending step
// number; a failing step aborts the plan and discards all partial results.
type Executor struct {
	runner    QueryRunner
	evaluator tabular.Evaluator
	logger    *zap.Logger
}

// NewExecutor creates a plan executor.
func NewExecutor(runner QueryRunner, evaluator tabular.Evaluator, logger *zap.Logger) *Executor {
	return &Executor{
		runner:    runner,
		evaluator: evaluator,
		logger:    logger.Named("planner"),
	}
}

// Execute runs every step of the plan and assembles the presentation.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*PlanOutput, error) {
	steps := make([]Step, len(plan.Steps))
	copy(steps, plan.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Step < steps[j].Step })

	results := make(map[string]*dbpool.QueryResult)

	for _, step := range steps {
		e.logger.Info("executing plan step",
			zap.Int("step", step.Step),
			zap.String("description", step.Description),
			zap.String("output_variable", step.OutputVariable))

		result, err := e.runStep(ctx, step, results)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step.Step, err)
		}
		results[step.OutputVariable] = result
	}

	output := &PlanOutput{Context: results}
	if plan.FinalPresentation.Type == PresentationMultipleResults {
		for _, name := range plan.FinalPresentation.ResultsOrder {
			if result, ok := results[name]; ok {
				output.Ordered = append(output.Ordered, NamedResult{Name: name, Result: result})
			}
		}
	}
	return output, nil
}

// runStep dispatches one step to the in-memory evaluator when it references
// earlier outputs, and to the database otherwise.
func (e *Executor) runStep(ctx context.Context, step Step, results map[string]*dbpool.QueryResult) (*dbpool.QueryResult, error) {
	validated, err := sqlguard.ValidateGenerated(step.Query)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(validated, "@") {
		return e.runner.RunQuery(ctx, validated)
	}

	tables := make(map[string]*dbpool.QueryResult)
	for _, match := range variablePattern.FindAllStringSubmatch(validated, -1) {
		name := match[1]
		result, ok := results[name]
		if !ok {
			return nil, fmt.Errorf("%w: @%s", apperrors.ErrUnresolvedVariable, name)
		}
		tables[name] = result
	}

	// The evaluator sees plain table names; the @ markers only exist in the
	// plan syntax.
	query := strings.ReplaceAll(validated, "@", "")
	return e.evaluator.Eval(ctx, query, tables)
}
