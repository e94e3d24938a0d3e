package pipeline

import (
	"context"
	"fmt"
	"sync"

	"docgraph/internal/util"
	"docgraph/pkg/ai"
	"docgraph/pkg/annotate"
	"docgraph/pkg/chunker"
	"docgraph/pkg/common"
	"docgraph/pkg/logger"
	"docgraph/pkg/mutation"
	"docgraph/pkg/store"
	"docgraph/pkg/topics"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize      = 16
	defaultMaxBatchTokens = 8000

	// embedTries bounds retries of one embedding batch before it is skipped.
	embedTries = 3

	tokenEncoding = "cl100k_base"
)

// NewPipelineParams defines the dependencies and tuning of a Pipeline.
type NewPipelineParams struct {
	Chunker   *chunker.Chunker
	Extractor *topics.Extractor
	Graph     store.GraphStorage
	Index     store.VectorIndex
	Embedder  ai.EmbeddingClient

	// Registry accumulates topics across every document ingested through
	// this pipeline. Pass one registry per batch to share it; left nil, a
	// fresh registry is created for the pipeline.
	Registry *topics.Registry

	// BatchSize bounds the number of chunks per embedding request;
	// MaxBatchTokens bounds their combined token count.
	BatchSize      int
	MaxBatchTokens int
}

// Pipeline runs the full ingestion flow for one document: chunking,
// annotation, graph writes, topic extraction and embedding indexing.
type Pipeline struct {
	chunker   *chunker.Chunker
	extractor *topics.Extractor
	graph     store.GraphStorage
	index     store.VectorIndex
	embedder  ai.EmbeddingClient
	registry  *topics.Registry

	batchSize      int
	maxBatchTokens int
	encoder        *tiktoken.Tiktoken
}

// Result summarizes one ingestion run. Topics is a snapshot of the shared
// registry, so it covers every document of the batch ingested so far, not
// just this one.
type Result struct {
	Document      common.Document
	Chunks        []common.Chunk
	Topics        []common.Topic
	IndexedChunks int
	SkippedChunks int
	Metrics       ai.ModelMetrics
}

// NewPipeline creates a Pipeline. Chunker, Extractor, Graph, Index and
// Embedder are required; batch bounds fall back to defaults.
func NewPipeline(params NewPipelineParams) (*Pipeline, error) {
	if params.Chunker == nil || params.Extractor == nil {
		return nil, fmt.Errorf("pipeline requires a chunker and a topic extractor")
	}
	if params.Graph == nil || params.Index == nil || params.Embedder == nil {
		return nil, fmt.Errorf("pipeline requires graph storage, a vector index and an embedding client")
	}

	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("load token encoding: %w", err)
	}

	p := &Pipeline{
		chunker:        params.Chunker,
		extractor:      params.Extractor,
		graph:          params.Graph,
		index:          params.Index,
		embedder:       params.Embedder,
		registry:       params.Registry,
		batchSize:      params.BatchSize,
		maxBatchTokens: params.MaxBatchTokens,
		encoder:        encoder,
	}
	if p.registry == nil {
		p.registry = topics.NewRegistry()
	}
	if p.batchSize <= 0 {
		p.batchSize = defaultBatchSize
	}
	if p.maxBatchTokens <= 0 {
		p.maxBatchTokens = defaultMaxBatchTokens
	}
	return p, nil
}

// IngestDocument runs the full flow for one document. Failures writing a
// single chunk or embedding a batch are logged and skipped; the document
// insert itself must succeed.
func (p *Pipeline) IngestDocument(ctx context.Context, doc common.Document, elements []common.Element) (*Result, error) {
	logger.Info("[Pipeline] Ingesting document", "document", doc.ID, "elements", len(elements))

	chunks := p.chunker.ChunkDocument(doc, elements)
	logger.Info("[Pipeline] Created chunks", "document", doc.ID, "chunks", len(chunks))

	if err := p.graph.InsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert document %s: %w", doc.ID, err)
	}

	stored := make([]common.Chunk, 0, len(chunks))
	skipped := 0

	for i := range chunks {
		chunk := chunks[i]
		chunk.Annotations = annotate.Generate(chunk.ID, chunk.Content, chunk.Metadata.ElementType, chunk.Metadata.Page)

		if err := p.storeChunk(ctx, doc, &chunk); err != nil {
			logger.Warn("[Pipeline] Skipping chunk", "chunk", chunk.ID, "error", err)
			skipped++
			continue
		}
		stored = append(stored, chunk)
	}

	indexed := p.indexChunks(ctx, stored)

	result := &Result{
		Document:      doc,
		Chunks:        stored,
		Topics:        p.registry.Topics(),
		IndexedChunks: indexed,
		SkippedChunks: skipped,
		Metrics:       p.embedder.GetMetrics(),
	}

	logger.Info("[Pipeline] Document ingested",
		"document", doc.ID,
		"chunks", len(result.Chunks),
		"topics", len(result.Topics),
		"indexed", result.IndexedChunks,
		"skipped", result.SkippedChunks)

	return result, nil
}

// storeChunk writes one chunk with its annotations and topics into the
// graph. The chunk's TopicIDs field is filled as a side effect.
func (p *Pipeline) storeChunk(ctx context.Context, doc common.Document, chunk *common.Chunk) error {
	if err := p.graph.InsertChunk(ctx, *chunk); err != nil {
		return err
	}
	if err := p.graph.InsertRelationship(ctx, doc.ID, chunk.ID, mutation.RelHasChunk); err != nil {
		return err
	}

	for _, ann := range chunk.Annotations {
		if err := p.graph.InsertAnnotation(ctx, chunk.ID, ann); err != nil {
			return err
		}
		if err := p.graph.InsertRelationship(ctx, chunk.ID, ann.ID, mutation.RelHasAnnotation); err != nil {
			return err
		}
	}

	for _, scored := range p.extractor.ExtractTopics(chunk.Content) {
		topicID := p.registry.Collect(chunk.ID, scored)
		if err := p.graph.MergeTopic(ctx, topicID, scored.Name, scored.Type, scored.Score); err != nil {
			return err
		}
		if err := p.graph.InsertRelationship(ctx, chunk.ID, topicID, mutation.RelAbout); err != nil {
			return err
		}
		chunk.TopicIDs = append(chunk.TopicIDs, topicID)
	}

	return nil
}

// indexChunks embeds the stored chunks in batches and upserts the vectors.
// Batches run concurrently; the embedding client's semaphore bounds actual
// parallelism. A failed batch is logged and skipped without aborting the
// others.
func (p *Pipeline) indexChunks(ctx context.Context, chunks []common.Chunk) int {
	if len(chunks) == 0 {
		return 0
	}

	batches := p.buildBatches(chunks)
	logger.Info("[Pipeline] Generating embeddings", "chunks", len(chunks), "batches", len(batches))

	var (
		mu      sync.Mutex
		indexed int
	)

	eg, ectx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		eg.Go(func() error {
			inputs := make([][]byte, len(batch))
			for i, chunk := range batch {
				inputs[i] = []byte(chunk.Content)
			}

			embeddings, err := util.RetryWithContext(ectx, embedTries, func(ctx context.Context) ([][]float32, error) {
				return p.embedder.GenerateEmbeddings(ctx, inputs)
			})
			if err != nil {
				logger.Warn("[Pipeline] Skipping embedding batch", "chunks", len(batch), "error", err)
				return nil
			}
			if len(embeddings) != len(batch) {
				logger.Warn("[Pipeline] Skipping embedding batch",
					"chunks", len(batch), "error", fmt.Sprintf("got %d embeddings", len(embeddings)))
				return nil
			}

			for i, chunk := range batch {
				if err := p.index.UpsertEmbedding(ectx, chunk, embeddings[i]); err != nil {
					logger.Warn("[Pipeline] Failed to index chunk", "chunk", chunk.ID, "error", err)
					continue
				}
				mu.Lock()
				indexed++
				mu.Unlock()
			}
			return nil
		})
	}
	// goroutines only return nil; Wait is for synchronization
	_ = eg.Wait()

	return indexed
}

// buildBatches groups chunks under both the batch size and the token
// budget. A single oversized chunk still gets its own batch.
func (p *Pipeline) buildBatches(chunks []common.Chunk) [][]common.Chunk {
	var batches [][]common.Chunk

	var (
		current       []common.Chunk
		currentTokens int
	)
	for _, chunk := range chunks {
		tokens := len(p.encoder.Encode(chunk.Content, nil, nil))

		full := len(current) >= p.batchSize || (len(current) > 0 && currentTokens+tokens > p.maxBatchTokens)
		if full {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}

		current = append(current, chunk)
		currentTokens += tokens
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}
