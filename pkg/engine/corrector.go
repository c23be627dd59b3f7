package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/llm"
	"github.com/airsight-ai/airquery-engine/pkg/prompt"
	"github.com/airsight-ai/airquery-engine/pkg/rag"
)

// CorrectSQL asks the model to repair a failing statement using the
// unchanged retrieval context from the original attempt. This is a single
// shot: no new retrieval, no loop. When the correction call fails, the
// original SQL comes back unchanged and the caller treats that as
// "correction unavailable".
func (e *Engine) CorrectSQL(ctx context.Context, question, sql, errorMessage string, retrieved rag.RetrievedContext, history []llm.Message) string {
	systemPrompt := fmt.Sprintf(`You are a SQL correction assistant. Repair the failing SQL query using the original question, the provided context, and the database error message.

Rules:
1. The database error message is the key to locating the problem; analyze it carefully.
2. Do NOT assume information beyond the context below.
3. Return exactly one SQL statement executable on a %s database.
4. No explanations, comments or markdown fences.

Context (table definitions, business knowledge and similar queries):
%s

Prior conversation:
%s`, e.databaseType, retrieved.FormatForPrompt(), prompt.FormatHistory(history))

	userPrompt := fmt.Sprintf(`Correct this SQL query:

- Original question: %s
- Failing SQL:
%s
- Database error: %s

Provide the corrected SQL query.`, question, sql, errorMessage)

	response, err := e.generator.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	})
	if err != nil {
		e.logger.Warn("sql correction call failed", zap.Error(err))
		return sql
	}

	corrected := llm.CleanResponse(response)
	if corrected == "" {
		return sql
	}
	e.logger.Info("sql corrected", zap.String("corrected_sql", corrected))
	return corrected
}
