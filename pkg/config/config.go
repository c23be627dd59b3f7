// Package config loads engine configuration from a YAML file with
// environment variable overrides. Secrets come from the environment only.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the query engine.
// Environment variables always override YAML values for fields that support
// both.
type Config struct {
	// Env names the deployment environment, for log context.
	Env string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`

	// LLM endpoint used for entity extraction, generation and correction.
	LLM LLMConfig `yaml:"llm"`

	// Embedding model settings for the knowledge store.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Database is the primary monitoring database.
	Database DatabaseConfig `yaml:"database"`

	// Retrieval sizes the knowledge recall per channel.
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Fuzzy controls station matching.
	Fuzzy FuzzyConfig `yaml:"fuzzy"`

	// Prompt locates the template and system message.
	Prompt PromptConfig `yaml:"prompt"`

	// StationFile is the path to the station snapshot JSON. A missing file
	// is tolerated; matching then reports no station data.
	StationFile string `yaml:"station_file" env:"STATION_FILE" env-default:"stations.json"`

	// Debug enables verbose retrieval logging.
	Debug bool `yaml:"debug" env:"DEBUG" env-default:"false"`
}

// LLMConfig holds the chat model settings. Provider selects the generation
// backend; embeddings always go through the OpenAI-compatible endpoint.
type LLMConfig struct {
	Provider    string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint    string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	Model       string  `yaml:"model" env:"LLM_MODEL" env-default:""`
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0"`

	// APIKey is a secret and must come from the environment.
	APIKey string `yaml:"-" env:"LLM_API_KEY"`

	// AnthropicAPIKey is used when Provider is "anthropic".
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`
}

// EmbeddingConfig holds the embedding model used for knowledge retrieval.
type EmbeddingConfig struct {
	Model string `yaml:"model" env:"EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
}

// DatabaseConfig identifies the monitoring database. Setting driver or
// server selects the SQL Server backend; otherwise PostgreSQL is assumed.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:""`
	Server   string `yaml:"server" env:"DB_SERVER" env-default:""`
	Host     string `yaml:"host" env:"DB_HOST" env-default:""`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"0"`
	User     string `yaml:"user" env:"DB_USER" env-default:""`
	Database string `yaml:"database" env:"DB_NAME" env-default:""`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`

	// Password is a secret and must come from the environment.
	Password string `yaml:"-" env:"DB_PASSWORD"`

	Pool PoolConfig `yaml:"pool"`
}

// PoolConfig sizes the connection pool and its retry budget.
type PoolConfig struct {
	MaxConnections int           `yaml:"max_connections" env:"DB_POOL_MAX_CONNECTIONS" env-default:"10"`
	RetryAttempts  int           `yaml:"retry_attempts" env:"DB_POOL_RETRY_ATTEMPTS" env-default:"3"`
	RetryDelay     time.Duration `yaml:"retry_delay" env:"DB_POOL_RETRY_DELAY" env-default:"1s"`
}

// RetrievalConfig sizes recall per knowledge channel.
type RetrievalConfig struct {
	DDL           int `yaml:"n_ddl" env:"RETRIEVAL_N_DDL" env-default:"4"`
	Documentation int `yaml:"n_docs" env:"RETRIEVAL_N_DOCS" env-default:"10"`
	SQLExamples   int `yaml:"n_sql" env:"RETRIEVAL_N_SQL" env-default:"4"`
}

// FuzzyConfig controls station matching.
type FuzzyConfig struct {
	SimilarityThreshold int `yaml:"similarity_threshold" env:"FUZZY_SIMILARITY_THRESHOLD" env-default:"80"`
	MaxResults          int `yaml:"max_results" env:"FUZZY_MAX_RESULTS" env-default:"20"`
}

// PromptConfig locates the generation prompt.
type PromptConfig struct {
	TemplatePath  string `yaml:"template_path" env:"PROMPT_TEMPLATE_PATH" env-default:"prompt_template.txt"`
	SystemMessage string `yaml:"system_message" env:"PROMPT_SYSTEM_MESSAGE" env-default:""`
}

// Load reads configuration from the given YAML path with environment
// overrides. When the file does not exist, configuration comes from the
// environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Endpoint == "" {
		return fmt.Errorf("llm endpoint is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}
