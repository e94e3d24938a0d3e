package query

import (
	"context"
	"fmt"
	"strings"

	"docgraph/internal/util"
	"docgraph/pkg/ai"
	"docgraph/pkg/common"
	"docgraph/pkg/logger"
	"docgraph/pkg/store"
)

const (
	defaultTopK = 5

	// embedTries bounds retries of the question embedding call.
	embedTries = 3
)

// EnrichedChunk is one retrieved chunk with its annotations attached.
type EnrichedChunk struct {
	store.VectorHit
	Annotations []common.Annotation
}

// NewEngineParams defines the dependencies of a query Engine.
type NewEngineParams struct {
	Embedder ai.EmbeddingClient
	Index    store.VectorIndex
	Graph    store.GraphStorage

	// TopK bounds the number of retrieved chunks per question.
	TopK int
}

// Engine answers questions by embedding them, retrieving the most similar
// chunks, enriching them with graph annotations and assembling an
// augmented prompt for a downstream LLM.
type Engine struct {
	embedder ai.EmbeddingClient
	index    store.VectorIndex
	graph    store.GraphStorage
	topK     int
}

// NewEngine creates a query Engine. TopK falls back to the default when
// zero or negative.
func NewEngine(params NewEngineParams) (*Engine, error) {
	if params.Embedder == nil || params.Index == nil || params.Graph == nil {
		return nil, fmt.Errorf("query engine requires an embedding client, a vector index and graph storage")
	}

	e := &Engine{
		embedder: params.Embedder,
		index:    params.Index,
		graph:    params.Graph,
		topK:     params.TopK,
	}
	if e.topK <= 0 {
		e.topK = defaultTopK
	}
	return e, nil
}

// Query retrieves context for a question and returns the augmented prompt.
// When filterChunkIDs is non-empty the search is restricted to those
// chunks. A chunk whose annotations cannot be fetched is kept with an
// empty annotation list.
func (e *Engine) Query(ctx context.Context, question string, filterChunkIDs []string) (string, error) {
	logger.Info("[Query] Answering question", "length", len(question))

	embedding, err := util.RetryWithContext(ctx, embedTries, func(ctx context.Context) ([]float32, error) {
		return e.embedder.GenerateEmbedding(ctx, []byte(question))
	})
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	hits, err := e.index.SearchSimilar(ctx, embedding, e.topK, filterChunkIDs)
	if err != nil {
		return "", fmt.Errorf("similarity search: %w", err)
	}
	logger.Info("[Query] Retrieved chunks", "hits", len(hits))

	enriched := make([]EnrichedChunk, 0, len(hits))
	for _, hit := range hits {
		annotations, err := e.graph.GetAnnotations(ctx, hit.ChunkID)
		if err != nil {
			logger.Warn("[Query] Failed to load annotations", "chunk", hit.ChunkID, "error", err)
			annotations = nil
		}
		enriched = append(enriched, EnrichedChunk{VectorHit: hit, Annotations: annotations})
	}

	return BuildAugmentedPrompt(question, enriched), nil
}

// BuildAugmentedPrompt assembles the prompt handed to a downstream LLM:
// the retrieved chunks with their annotations, the question, and answering
// instructions.
func BuildAugmentedPrompt(question string, chunks []EnrichedChunk) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	thinRule := strings.Repeat("-", 80)

	b.WriteString(rule + "\n")
	b.WriteString("PROMPT AUGMENTÉ POUR LLM\n")
	b.WriteString(rule + "\n\n")

	b.WriteString("CONTEXTE RÉCUPÉRÉ:\n")
	b.WriteString(thinRule + "\n\n")

	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[CHUNK %d] (Score: %.3f)\n", i+1, chunk.Score)
		fmt.Fprintf(&b, "Document: %s\n\n", chunk.DocumentID)

		if len(chunk.Annotations) > 0 {
			b.WriteString("Annotations:\n")
			for _, ann := range chunk.Annotations {
				fmt.Fprintf(&b, "  • %s: %s\n", ann.Kind, ann.Value)
				fmt.Fprintf(&b, "    → %s\n", ann.Context)
			}
			b.WriteString("\n")
		}

		b.WriteString("Contenu:\n")
		b.WriteString(chunk.Content + "\n\n")
		b.WriteString(thinRule + "\n\n")
	}

	b.WriteString("QUESTION:\n")
	b.WriteString(thinRule + "\n")
	b.WriteString(question + "\n\n")
	b.WriteString(rule + "\n\n")

	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("En utilisant le contexte fourni ci-dessus, réponds à la question de manière\n")
	b.WriteString("précise et détaillée. Si le contexte ne contient pas suffisamment d'informations,\n")
	b.WriteString("indique-le clairement.\n\n")
	b.WriteString(rule)

	return b.String()
}
