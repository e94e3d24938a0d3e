package ai

import (
	"context"
)

// ModelMetrics contains performance metrics accumulated across embedding
// requests.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// EmbeddingClient defines the embedding operations used during ingestion
// and querying. Implementations wrap a concrete model provider and are
// safe for concurrent use.
type EmbeddingClient interface {
	// GenerateEmbedding creates a vector embedding for one input. Blank
	// input yields a zero vector of the configured dimension instead of a
	// model call.
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	// GenerateEmbeddings creates embeddings for multiple inputs, preserving
	// input order. Blank inputs yield zero vectors.
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)

	// GetMetrics returns the accumulated token usage and timing metrics
	// since the last reset.
	GetMetrics() ModelMetrics

	// ResetMetrics clears all accumulated metrics to zero.
	ResetMetrics()
}
