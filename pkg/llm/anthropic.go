package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// anthropicMaxTokens bounds generation length. SQL and plans are short;
// this leaves generous headroom.
const anthropicMaxTokens = 4096

// AnthropicClient generates text through the Anthropic messages API. It
// satisfies TextGenerator only; embeddings still come from an
// OpenAI-compatible endpoint.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

var _ TextGenerator = (*AnthropicClient)(nil)

// NewAnthropicClient creates a client for the given model.
func NewAnthropicClient(apiKey, model string, logger *zap.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  model,
		logger: logger.Named("llm"),
	}, nil
}

// Chat sends the conversation and returns the first text block of the reply.
// System messages map onto the request's system field.
func (c *AnthropicClient) Chat(ctx context.Context, messages []Message) (string, error) {
	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			req.System = m.Content
		case RoleAssistant:
			req.Messages = append(req.Messages, anthropic.NewAssistantTextMessage(m.Content))
		default:
			req.Messages = append(req.Messages, anthropic.NewUserTextMessage(m.Content))
		}
	}

	c.logger.Debug("sending chat completion request",
		zap.String("model", c.model),
		zap.Int("message_count", len(messages)))

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		c.logger.Error("chat completion failed", zap.Error(err))
		return "", fmt.Errorf("create messages: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return resp.Content[0].GetText(), nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}
