package store

import (
	"context"

	"docgraph/pkg/common"
	"docgraph/pkg/mutation"
)

// GraphStorage persists the document graph: nodes for documents, chunks,
// topics and annotations, and the edges between them.
//
// MergeTopic is called once per chunk and topic pair. Implementations
// accumulate the score across calls and count each call as one chunk
// occurrence.
type GraphStorage interface {
	InsertDocument(ctx context.Context, doc common.Document) error
	InsertChunk(ctx context.Context, chunk common.Chunk) error
	MergeTopic(ctx context.Context, id, name string, topicType common.TopicType, score float64) error
	InsertAnnotation(ctx context.Context, chunkID string, ann common.Annotation) error
	InsertRelationship(ctx context.Context, sourceID, targetID string, relType mutation.RelationType) error

	// GetAnnotations returns the annotations attached to a chunk. A chunk
	// without annotations yields an empty slice, not an error.
	GetAnnotations(ctx context.Context, chunkID string) ([]common.Annotation, error)
}

// VectorHit is one similarity search result.
type VectorHit struct {
	ChunkID    string
	DocumentID string
	Content    string
	Score      float64
}

// VectorIndex stores chunk embeddings and retrieves the most similar
// chunks for a query embedding.
type VectorIndex interface {
	UpsertEmbedding(ctx context.Context, chunk common.Chunk, embedding []float32) error

	// SearchSimilar returns up to topK hits ordered by descending cosine
	// similarity. When filterChunkIDs is non-empty only those chunks are
	// considered.
	SearchSimilar(ctx context.Context, embedding []float32, topK int, filterChunkIDs []string) ([]VectorHit, error)
}
