package pgx

import (
	"context"
	"encoding/json"
	"fmt"

	"docgraph/internal/util"
	"docgraph/pkg/common"
	"docgraph/pkg/logger"
	"docgraph/pkg/mutation"
)

// Node kinds as stored in the nodes table.
const (
	kindDocument   = "document"
	kindChunk      = "chunk"
	kindTopic      = "topic"
	kindAnnotation = "annotation"
)

const upsertNodeSQL = `
	INSERT INTO nodes (id, kind, properties)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind, properties = EXCLUDED.properties`

// InsertDocument upserts a document node. Re-ingesting a document
// overwrites its properties so repeated runs converge.
func (s *GraphDBStorage) InsertDocument(ctx context.Context, doc common.Document) error {
	props, err := json.Marshal(map[string]any{
		"title":  util.SanitizePostgresText(doc.Title),
		"source": doc.Source,
	})
	if err != nil {
		return fmt.Errorf("marshal document properties: %w", err)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.conn.Exec(ctx, upsertNodeSQL, doc.ID, kindDocument, props); err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	return nil
}

// InsertChunk upserts a chunk node with its content and metadata. Content
// is sanitized at this boundary: extracted PDF text can carry NUL bytes
// and invalid UTF-8, both of which Postgres jsonb rejects.
func (s *GraphDBStorage) InsertChunk(ctx context.Context, chunk common.Chunk) error {
	props, err := json.Marshal(map[string]any{
		"document_id": chunk.DocumentID,
		"content":     util.SanitizePostgresText(chunk.Content),
		"page":        chunk.Metadata.Page,
		"type":        chunk.Metadata.ElementType,
		"length":      chunk.Metadata.Length,
	})
	if err != nil {
		return fmt.Errorf("marshal chunk properties: %w", err)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.conn.Exec(ctx, upsertNodeSQL, chunk.ID, kindChunk, props); err != nil {
		return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// MergeTopic upserts a topic node. The first merge fixes name and type;
// every merge adds the occurrence score to the running total and counts
// one more chunk.
func (s *GraphDBStorage) MergeTopic(ctx context.Context, id, name string, topicType common.TopicType, score float64) error {
	const mergeSQL = `
		INSERT INTO nodes (id, kind, properties)
		VALUES ($1, 'topic', jsonb_build_object(
			'name', $2::text,
			'type', $3::text,
			'total_score', $4::float8,
			'chunk_count', 1
		))
		ON CONFLICT (id) DO UPDATE SET properties = jsonb_set(
			jsonb_set(
				nodes.properties,
				'{total_score}',
				to_jsonb((nodes.properties->>'total_score')::float8 + $4::float8)
			),
			'{chunk_count}',
			to_jsonb((nodes.properties->>'chunk_count')::int + 1)
		)`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.conn.Exec(ctx, mergeSQL, id, util.SanitizePostgresText(name), string(topicType), score); err != nil {
		return fmt.Errorf("merge topic %s: %w", id, err)
	}
	return nil
}

// InsertAnnotation upserts an annotation node.
func (s *GraphDBStorage) InsertAnnotation(ctx context.Context, chunkID string, ann common.Annotation) error {
	props, err := json.Marshal(map[string]any{
		"chunk_id": chunkID,
		"type":     string(ann.Kind),
		"value":    util.SanitizePostgresText(ann.Value),
		"context":  util.SanitizePostgresText(ann.Context),
	})
	if err != nil {
		return fmt.Errorf("marshal annotation properties: %w", err)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.conn.Exec(ctx, upsertNodeSQL, ann.ID, kindAnnotation, props); err != nil {
		return fmt.Errorf("insert annotation %s: %w", ann.ID, err)
	}
	return nil
}

// InsertRelationship upserts an edge. Duplicate relationships are ignored
// so replayed ingestions stay idempotent.
func (s *GraphDBStorage) InsertRelationship(ctx context.Context, sourceID, targetID string, relType mutation.RelationType) error {
	const insertEdgeSQL = `
		INSERT INTO edges (source_id, target_id, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_id, target_id, type) DO NOTHING`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.conn.Exec(ctx, insertEdgeSQL, sourceID, targetID, string(relType)); err != nil {
		return fmt.Errorf("insert relationship %s-[%s]->%s: %w", sourceID, relType, targetID, err)
	}
	return nil
}

// GetAnnotations returns the annotations reachable from a chunk through
// HAS_ANNOTATION edges. Unreadable annotation rows are skipped with a
// warning instead of failing the whole lookup.
func (s *GraphDBStorage) GetAnnotations(ctx context.Context, chunkID string) ([]common.Annotation, error) {
	const annotationsSQL = `
		SELECT n.id, n.properties
		FROM edges e
		JOIN nodes n ON n.id = e.target_id
		WHERE e.source_id = $1 AND e.type = $2 AND n.kind = $3
		ORDER BY n.id`

	rows, err := s.conn.Query(ctx, annotationsSQL, chunkID, string(mutation.RelHasAnnotation), kindAnnotation)
	if err != nil {
		return nil, fmt.Errorf("query annotations for %s: %w", chunkID, err)
	}
	defer rows.Close()

	annotations := make([]common.Annotation, 0)
	for rows.Next() {
		var (
			id    string
			props []byte
		)
		if err := rows.Scan(&id, &props); err != nil {
			return nil, fmt.Errorf("scan annotation row: %w", err)
		}

		var decoded struct {
			Kind    string `json:"type"`
			Value   string `json:"value"`
			Context string `json:"context"`
		}
		if err := json.Unmarshal(props, &decoded); err != nil {
			logger.Warn("[Store] Skipping unreadable annotation", "id", id, "error", err)
			continue
		}

		annotations = append(annotations, common.Annotation{
			ID:      id,
			Kind:    common.AnnotationKind(decoded.Kind),
			Value:   decoded.Value,
			Context: decoded.Context,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations for %s: %w", chunkID, err)
	}

	return annotations, nil
}
