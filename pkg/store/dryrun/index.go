package dryrun

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"sync"

	"docgraph/internal/util"
	"docgraph/pkg/common"
	"docgraph/pkg/store"
)

// indexedChunk is one recorded embedding upsert.
type indexedChunk struct {
	chunkID    string
	documentID string
	content    string
	embedding  []float32
}

// DryRunIndex implements the VectorIndex interface in memory. Upserts are
// recorded for CSV export and similarity search runs over the recorded
// vectors, so query flows can be exercised without an index backend.
type DryRunIndex struct {
	mu     sync.Mutex
	chunks []indexedChunk
	byID   map[string]int
}

// NewDryRunIndex creates an empty DryRunIndex.
func NewDryRunIndex() *DryRunIndex {
	return &DryRunIndex{byID: make(map[string]int)}
}

func (i *DryRunIndex) UpsertEmbedding(ctx context.Context, chunk common.Chunk, embedding []float32) error {
	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	i.mu.Lock()
	defer i.mu.Unlock()

	entry := indexedChunk{
		chunkID:    chunk.ID,
		documentID: chunk.DocumentID,
		content:    chunk.Content,
		embedding:  vec,
	}
	if idx, ok := i.byID[chunk.ID]; ok {
		i.chunks[idx] = entry
		return nil
	}
	i.byID[chunk.ID] = len(i.chunks)
	i.chunks = append(i.chunks, entry)
	return nil
}

func (i *DryRunIndex) SearchSimilar(ctx context.Context, embedding []float32, topK int, filterChunkIDs []string) ([]store.VectorHit, error) {
	var filter map[string]struct{}
	if len(filterChunkIDs) > 0 {
		filter = make(map[string]struct{}, len(filterChunkIDs))
		for _, id := range filterChunkIDs {
			filter[id] = struct{}{}
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	hits := make([]store.VectorHit, 0, len(i.chunks))
	for _, chunk := range i.chunks {
		if filter != nil {
			if _, ok := filter[chunk.chunkID]; !ok {
				continue
			}
		}
		hits = append(hits, store.VectorHit{
			ChunkID:    chunk.chunkID,
			DocumentID: chunk.documentID,
			Content:    chunk.content,
			Score:      cosineSimilarity(embedding, chunk.embedding),
		})
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// WriteCSV exports the recorded index requests, mirroring the mutation
// log export. Content is truncated to keep rows readable.
func (i *DryRunIndex) WriteCSV(w io.Writer) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"action", "chunk_id", "document_id", "dimension", "content"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, chunk := range i.chunks {
		content := chunk.content
		if len(content) > 1000 {
			content = content[:1000]
		}
		row := []string{
			"index",
			chunk.chunkID,
			chunk.documentID,
			strconv.Itoa(len(chunk.embedding)),
			util.SanitizePostgresText(content),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
