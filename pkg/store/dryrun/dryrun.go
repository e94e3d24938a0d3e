package dryrun

import (
	"context"

	"docgraph/pkg/common"
	"docgraph/pkg/mutation"
)

// DryRunStorage implements the GraphStorage interface without a database.
// Every write is appended to a mutation log that can be serialized to CSV
// and replayed later for inspection or visualization.
type DryRunStorage struct {
	log *mutation.Log
}

// NewDryRunStorage creates a DryRunStorage writing into the given log.
func NewDryRunStorage(log *mutation.Log) *DryRunStorage {
	return &DryRunStorage{log: log}
}

// Log returns the underlying mutation log.
func (s *DryRunStorage) Log() *mutation.Log {
	return s.log
}

func (s *DryRunStorage) InsertDocument(ctx context.Context, doc common.Document) error {
	s.log.Append(mutation.NewCreateDocument(doc))
	return nil
}

func (s *DryRunStorage) InsertChunk(ctx context.Context, chunk common.Chunk) error {
	s.log.Append(mutation.NewCreateChunk(chunk))
	return nil
}

func (s *DryRunStorage) MergeTopic(ctx context.Context, id, name string, topicType common.TopicType, score float64) error {
	s.log.Append(mutation.NewMergeTopic(id, name, topicType, score))
	return nil
}

func (s *DryRunStorage) InsertAnnotation(ctx context.Context, chunkID string, ann common.Annotation) error {
	s.log.Append(mutation.NewCreateAnnotation(chunkID, ann))
	return nil
}

func (s *DryRunStorage) InsertRelationship(ctx context.Context, sourceID, targetID string, relType mutation.RelationType) error {
	s.log.Append(mutation.NewCreateRelationship(sourceID, targetID, relType))
	return nil
}

// GetAnnotations scans the log for annotations recorded against the chunk.
func (s *DryRunStorage) GetAnnotations(ctx context.Context, chunkID string) ([]common.Annotation, error) {
	annotations := make([]common.Annotation, 0)
	for _, record := range s.log.Records() {
		if record.Op != mutation.OpCreateAnnotation {
			continue
		}
		if record.Annotation.ChunkID != chunkID {
			continue
		}
		annotations = append(annotations, common.Annotation{
			ID:      record.Annotation.ID,
			Kind:    common.AnnotationKind(record.Annotation.Kind),
			Value:   record.Annotation.Value,
			Context: record.Annotation.Context,
		})
	}
	return annotations, nil
}
