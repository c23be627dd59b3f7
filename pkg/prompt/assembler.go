package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/llm"
	"github.com/airsight-ai/airquery-engine/pkg/rag"
)

// DefaultSystemMessage frames the model's job when no system message is
// configured.
const DefaultSystemMessage = "You are an expert SQL assistant for an air quality monitoring database. " +
	"Answer with a single SQL statement, a JSON query plan, or a JSON clarification request, and nothing else."

// Assembler renders the generation prompt from the retrieval context and
// conversation history.
type Assembler struct {
	template      *Template
	systemMessage string
	logger        *zap.Logger
}

// NewAssembler creates an assembler. An empty systemMessage selects the
// default.
func NewAssembler(template *Template, systemMessage string, logger *zap.Logger) *Assembler {
	if systemMessage == "" {
		systemMessage = DefaultSystemMessage
	}
	return &Assembler{
		template:      template,
		systemMessage: systemMessage,
		logger:        logger.Named("prompt"),
	}
}

// BuildMessages renders the template with the retrieval context and wraps it
// with the system message.
func (a *Assembler) BuildMessages(question, databaseName, databaseType string, retrieved rag.RetrievedContext, history []llm.Message) ([]llm.Message, error) {
	rendered, err := a.template.Render(map[string]string{
		"primary_database_name": databaseName,
		"db_type":               databaseType,
		"station_info_context":  retrieved.StationInfo,
		"ddl_context":           retrieved.DDL,
		"doc_context":           retrieved.Documentation,
		"sql_context":           retrieved.SQLExamples,
		"history_context":       FormatHistory(history),
		"question":              question,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("prompt assembled",
		zap.Int("prompt_chars", len(rendered)),
		zap.Int("history_turns", len(history)))

	return []llm.Message{
		{Role: llm.RoleSystem, Content: a.systemMessage},
		{Role: llm.RoleUser, Content: rendered},
	}, nil
}

// FormatHistory renders prior conversation turns for the prompt. Assistant
// turns that carry structured JSON are summarized: clarification requests
// show the question asked, generated SQL shows as a fenced block.
func FormatHistory(history []llm.Message) string {
	if len(history) == 0 {
		return "No prior conversation."
	}

	parts := make([]string, 0, len(history))
	for _, turn := range history {
		role := "Assistant"
		if turn.Role == llm.RoleUser {
			role = "User"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", role, summarizeTurn(turn.Content)))
	}
	return strings.Join(parts, "\n")
}

func summarizeTurn(content string) string {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return content
	}
	if raw, ok := parsed["clarification_needed"]; ok {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return "Clarification requested: " + text
		}
	}
	if raw, ok := parsed["sql"]; ok {
		var sql string
		if err := json.Unmarshal(raw, &sql); err == nil {
			return "Generated SQL:\n```sql\n" + sql + "\n```"
		}
	}
	return content
}
