package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/airsight-ai/airquery-engine/pkg/config"
	"github.com/airsight-ai/airquery-engine/pkg/dbpool"
	"github.com/airsight-ai/airquery-engine/pkg/engine"
	"github.com/airsight-ai/airquery-engine/pkg/knowledge"
	"github.com/airsight-ai/airquery-engine/pkg/llm"
	"github.com/airsight-ai/airquery-engine/pkg/metadata"
	"github.com/airsight-ai/airquery-engine/pkg/planner"
	"github.com/airsight-ai/airquery-engine/pkg/prompt"
	"github.com/airsight-ai/airquery-engine/pkg/rag"
	"github.com/airsight-ai/airquery-engine/pkg/stations"
	"github.com/airsight-ai/airquery-engine/pkg/tabular"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	train := flag.Bool("train", false, "seed the knowledge store from the database schema and exit")
	question := flag.String("question", "", "question to answer")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting airquery-engine",
		zap.String("version", Version),
		zap.String("env", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("llm_model", cfg.LLM.Model))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *train, *question); err != nil {
		logger.Fatal("engine failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, train bool, question string) error {
	client, err := llm.NewClient(&llm.Config{
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}

	// Embeddings always run through the OpenAI-compatible client; only the
	// generation backend is switchable.
	var generator llm.TextGenerator = client
	if cfg.LLM.Provider == "anthropic" {
		generator, err = llm.NewAnthropicClient(cfg.LLM.AnthropicAPIKey, cfg.LLM.Model, logger)
		if err != nil {
			return fmt.Errorf("create anthropic client: %w", err)
		}
	}

	settings := dbpool.Settings{
		Driver:   cfg.Database.Driver,
		Server:   cfg.Database.Server,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
		Pool: dbpool.PoolConfig{
			MaxConnections: cfg.Database.Pool.MaxConnections,
			RetryAttempts:  cfg.Database.Pool.RetryAttempts,
			RetryDelay:     cfg.Database.Pool.RetryDelay,
		},
	}
	executor, err := dbpool.Connect(ctx, settings, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer executor.Close()

	catalog := metadata.DefaultCatalog()
	store := knowledge.NewEmbeddingStore(client, cfg.Embedding.Model, logger)

	trainer := metadata.NewTrainer(executor, catalog, store, logger)
	if train {
		if err := trainer.Train(ctx, settings.IsSQLServer()); err != nil {
			return err
		}
		logger.Info("knowledge store seeded",
			zap.Int("items", len(store.ListTrainingData())))
		return nil
	}

	records, err := stations.LoadSnapshot(cfg.StationFile, logger)
	if err != nil {
		return fmt.Errorf("load station snapshot: %w", err)
	}
	matcher := stations.NewMatcher(records, cfg.Fuzzy.SimilarityThreshold, cfg.Fuzzy.MaxResults, logger)

	extractor := rag.NewExtractor(generator, catalog, logger)
	retriever := rag.NewRetriever(extractor, matcher, store, rag.Limits{
		DDL:           cfg.Retrieval.DDL,
		Documentation: cfg.Retrieval.Documentation,
		SQLExamples:   cfg.Retrieval.SQLExamples,
	}, logger)

	template, err := prompt.LoadTemplate(cfg.Prompt.TemplatePath)
	if err != nil {
		return fmt.Errorf("load prompt template: %w", err)
	}
	assembler := prompt.NewAssembler(template, cfg.Prompt.SystemMessage, logger)

	evaluator := tabular.NewDuckDBEvaluator(logger)
	planExecutor := planner.NewExecutor(executor, evaluator, logger)

	eng := engine.New(generator, retriever, assembler, executor, planExecutor,
		cfg.Database.Database, settings.Type(), logger)

	if question == "" {
		return fmt.Errorf("no question provided; use -question or -train")
	}

	outcome := eng.AskAndRun(ctx, question, nil)
	payload, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	fmt.Println(string(payload))
	return nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "local" || cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
