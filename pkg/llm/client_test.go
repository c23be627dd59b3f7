package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(&Config{Model: "m"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient(&Config{Endpoint: "http://localhost:8000/v1"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewClientCarriesTemperature(t *testing.T) {
	c, err := NewClient(&Config{
		Endpoint:    "http://localhost:8000/v1",
		Model:       "qwen2.5-coder",
		Temperature: 0.2,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0.2, c.temperature)
}
