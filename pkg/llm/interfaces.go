// Package llm provides OpenAI-compatible text-generation and embedding clients.
package llm

import "context"

// Message roles understood by chat-completion endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn in a chat-completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextGenerator turns an ordered sequence of role-tagged messages into a
// single text completion. Use this interface for dependency injection to
// enable mocking in tests.
type TextGenerator interface {
	// Chat submits the messages and returns the completion text.
	Chat(ctx context.Context, messages []Message) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Embedder generates embedding vectors for input text. The in-process
// knowledge store uses it to index and query its corpora.
type Embedder interface {
	// CreateEmbedding generates an embedding vector for the input text.
	CreateEmbedding(ctx context.Context, input string, model string) ([]float32, error)

	// CreateEmbeddings generates embeddings for multiple inputs.
	CreateEmbeddings(ctx context.Context, inputs []string, model string) ([][]float32, error)
}

// Ensure Client implements both interfaces at compile time.
var (
	_ TextGenerator = (*Client)(nil)
	_ Embedder      = (*Client)(nil)
)
