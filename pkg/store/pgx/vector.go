package pgx

import (
	"context"
	"fmt"

	"docgraph/internal/util"
	"docgraph/pkg/common"
	"docgraph/pkg/store"

	"github.com/pgvector/pgvector-go"
)

// UpsertEmbedding stores the embedding of a chunk, replacing any previous
// vector for the same chunk id. Content is sanitized like the graph
// writes are: Postgres text columns reject NUL bytes.
func (s *GraphDBStorage) UpsertEmbedding(ctx context.Context, chunk common.Chunk, embedding []float32) error {
	const upsertSQL = `
		INSERT INTO chunk_embeddings (chunk_id, document_id, content, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chunk_id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err := s.conn.Exec(ctx, upsertSQL,
		chunk.ID, chunk.DocumentID, util.SanitizePostgresText(chunk.Content), pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("upsert embedding for %s: %w", chunk.ID, err)
	}
	return nil
}

// SearchSimilar returns the topK chunks closest to the query embedding by
// cosine distance. An empty filter searches the whole index.
func (s *GraphDBStorage) SearchSimilar(ctx context.Context, embedding []float32, topK int, filterChunkIDs []string) ([]store.VectorHit, error) {
	query := `
		SELECT chunk_id, document_id, content, 1 - (embedding <=> $1) AS score
		FROM chunk_embeddings`
	args := []any{pgvector.NewVector(embedding)}

	if len(filterChunkIDs) > 0 {
		query += ` WHERE chunk_id = ANY($2)`
		args = append(args, filterChunkIDs)
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, topK)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	hits := make([]store.VectorHit, 0, topK)
	for rows.Next() {
		var hit store.VectorHit
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.Content, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan similarity hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarity hits: %w", err)
	}

	return hits, nil
}
