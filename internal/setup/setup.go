// Package setup builds the shared runtime dependencies of the command
// binaries from environment settings.
package setup

import (
	"context"

	"docgraph/internal/util"
	"docgraph/pkg/ai"
	oai "docgraph/pkg/ai/ollama"
	gai "docgraph/pkg/ai/openai"
	"docgraph/pkg/chunker"
	"docgraph/pkg/logger"
	"docgraph/pkg/logger/console"
	"docgraph/pkg/topics"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// InitLogger loads the environment and installs the console logger. Every
// binary calls this first.
func InitLogger() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)
}

// NewEmbeddingClient builds the embedding client selected by EMBED_ADAPTER.
// "ollama" uses a local Ollama server; anything else goes through the
// OpenAI-compatible client.
func NewEmbeddingClient() ai.EmbeddingClient {
	adapter := util.GetEnv("EMBED_ADAPTER")

	maxConcurrent := int64(util.GetEnvNumeric("EMBED_MAX_CONCURRENT", 4))
	timeoutMin := int64(util.GetEnvNumeric("EMBED_TIMEOUT_MIN", 5))

	switch adapter {
	case "ollama":
		client, err := oai.NewEmbeddingOllamaClient(oai.NewEmbeddingOllamaClientParams{
			EmbeddingModel: util.GetEnv("EMBED_MODEL"),

			BaseURL: util.GetEnv("EMBED_URL"),
			ApiKey:  util.GetEnv("EMBED_KEY"),

			MaxConcurrentRequests: maxConcurrent,
			TimeoutMin:            timeoutMin,
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewEmbeddingOpenAIClient(gai.NewEmbeddingOpenAIClientParams{
			EmbeddingModel: util.GetEnv("EMBED_MODEL"),

			EmbeddingURL: util.GetEnv("EMBED_URL"),
			EmbeddingKey: util.GetEnv("EMBED_KEY"),

			MaxConcurrentRequests: maxConcurrent,
			TimeoutMin:            timeoutMin,
		})
	}
}

// NewChunker builds a chunker from the CHUNK_* environment settings.
func NewChunker() *chunker.Chunker {
	return chunker.New(chunker.Config{
		MaxChunkSize: int(util.GetEnvNumeric("CHUNK_MAX_SIZE", 0)),
		OverlapSize:  int(util.GetEnvNumeric("CHUNK_OVERLAP", 0)),
		MinChunkSize: int(util.GetEnvNumeric("CHUNK_MIN_SIZE", 0)),
	})
}

// NewExtractor builds a topic extractor from the TOPIC_* environment
// settings.
func NewExtractor() *topics.Extractor {
	return topics.NewExtractor(topics.ExtractorConfig{
		MinWordLength: int(util.GetEnvNumeric("TOPIC_MIN_WORD_LENGTH", 0)),
		MaxTopics:     int(util.GetEnvNumeric("TOPIC_MAX_TOPICS", 0)),
	})
}

// EmbeddingDim returns the configured embedding dimension.
func EmbeddingDim() int {
	return int(util.GetEnvNumeric("EMBED_DIM", 1024))
}

// OpenDatabase connects to PostgreSQL via DATABASE_URL with pgvector types
// registered on every connection.
func OpenDatabase(ctx context.Context) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Invalid database configuration", "err", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	return pool
}
