package mutation

import (
	"fmt"
	"strings"

	"docgraph/pkg/common"
)

// Operation identifies the kind of graph mutation a record describes.
type Operation string

const (
	OpCreateDocument     Operation = "CREATE_DOCUMENT"
	OpCreateChunk        Operation = "CREATE_CHUNK"
	OpMergeTopic         Operation = "MERGE_TOPIC"
	OpCreateAnnotation   Operation = "CREATE_ANNOTATION"
	OpCreateRelationship Operation = "CREATE_RELATIONSHIP"
)

// RelationType is the label of a graph edge.
type RelationType string

const (
	RelHasChunk      RelationType = "HAS_CHUNK"
	RelAbout         RelationType = "ABOUT"
	RelHasAnnotation RelationType = "HAS_ANNOTATION"
)

// DocumentPayload carries the properties of a document node.
type DocumentPayload struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// ChunkPayload carries the properties of a chunk node.
type ChunkPayload struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	Page        int    `json:"page"`
	ElementType string `json:"type"`
	Length      int    `json:"length"`
	Content     string `json:"content"`
}

// TopicPayload carries the properties of a topic node. Score is the score
// of the single occurrence that produced the record, not a running total.
type TopicPayload struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// AnnotationPayload carries the properties of an annotation node.
type AnnotationPayload struct {
	ID      string `json:"id"`
	ChunkID string `json:"chunk_id"`
	Kind    string `json:"type"`
	Value   string `json:"value"`
	Context string `json:"context"`
}

// RelationshipPayload carries the endpoints and label of an edge.
type RelationshipPayload struct {
	SourceID string       `json:"source_id"`
	TargetID string       `json:"target_id"`
	Type     RelationType `json:"type"`
}

// Record is one logged graph mutation. Exactly one payload field is set,
// matching Op. The typed payload is the source of truth; the statement
// returned by Statement is rendered from it for display only.
type Record struct {
	Op           Operation
	Document     *DocumentPayload
	Chunk        *ChunkPayload
	Topic        *TopicPayload
	Annotation   *AnnotationPayload
	Relationship *RelationshipPayload
}

// NewCreateDocument builds a record for a document node.
func NewCreateDocument(doc common.Document) Record {
	return Record{
		Op: OpCreateDocument,
		Document: &DocumentPayload{
			ID:     doc.ID,
			Title:  doc.Title,
			Source: doc.Source,
		},
	}
}

// NewCreateChunk builds a record for a chunk node.
func NewCreateChunk(chunk common.Chunk) Record {
	return Record{
		Op: OpCreateChunk,
		Chunk: &ChunkPayload{
			ID:          chunk.ID,
			DocumentID:  chunk.DocumentID,
			Page:        chunk.Metadata.Page,
			ElementType: chunk.Metadata.ElementType,
			Length:      chunk.Metadata.Length,
			Content:     chunk.Content,
		},
	}
}

// NewMergeTopic builds a record for one topic occurrence.
func NewMergeTopic(id, name string, topicType common.TopicType, score float64) Record {
	return Record{
		Op: OpMergeTopic,
		Topic: &TopicPayload{
			ID:    id,
			Name:  name,
			Type:  string(topicType),
			Score: score,
		},
	}
}

// NewCreateAnnotation builds a record for an annotation node.
func NewCreateAnnotation(chunkID string, ann common.Annotation) Record {
	return Record{
		Op: OpCreateAnnotation,
		Annotation: &AnnotationPayload{
			ID:      ann.ID,
			ChunkID: chunkID,
			Kind:    string(ann.Kind),
			Value:   ann.Value,
			Context: ann.Context,
		},
	}
}

// NewCreateRelationship builds a record for an edge between two nodes.
func NewCreateRelationship(sourceID, targetID string, relType RelationType) Record {
	return Record{
		Op: OpCreateRelationship,
		Relationship: &RelationshipPayload{
			SourceID: sourceID,
			TargetID: targetID,
			Type:     relType,
		},
	}
}

// Statement renders the record as a Cypher-style statement. The string is
// informational; replay never parses it.
func (r Record) Statement() string {
	switch r.Op {
	case OpCreateDocument:
		d := r.Document
		return fmt.Sprintf("CREATE (d:Document {id: '%s', title: '%s', source: '%s'})",
			quote(d.ID), quote(d.Title), quote(d.Source))
	case OpCreateChunk:
		c := r.Chunk
		return fmt.Sprintf("CREATE (c:Chunk {id: '%s', document_id: '%s', page: %d, type: '%s'})",
			quote(c.ID), quote(c.DocumentID), c.Page, quote(c.ElementType))
	case OpMergeTopic:
		t := r.Topic
		return fmt.Sprintf("MERGE (t:Topic {id: '%s', name: '%s', type: '%s'})",
			quote(t.ID), quote(t.Name), quote(t.Type))
	case OpCreateAnnotation:
		a := r.Annotation
		return fmt.Sprintf("CREATE (a:Annotation {id: '%s', type: '%s', value: '%s'})",
			quote(a.ID), quote(a.Kind), quote(a.Value))
	case OpCreateRelationship:
		rel := r.Relationship
		src, tgt := relationEndpoints(rel.Type)
		return fmt.Sprintf("MATCH (%s {id: '%s'}), (%s {id: '%s'}) CREATE (%s)-[:%s]->(%s)",
			src.pattern, quote(rel.SourceID), tgt.pattern, quote(rel.TargetID),
			src.variable, rel.Type, tgt.variable)
	default:
		return ""
	}
}

type endpoint struct {
	variable string
	pattern  string
}

func relationEndpoints(relType RelationType) (endpoint, endpoint) {
	switch relType {
	case RelHasChunk:
		return endpoint{"d", "d:Document"}, endpoint{"c", "c:Chunk"}
	case RelAbout:
		return endpoint{"c", "c:Chunk"}, endpoint{"t", "t:Topic"}
	case RelHasAnnotation:
		return endpoint{"c", "c:Chunk"}, endpoint{"a", "a:Annotation"}
	default:
		return endpoint{"s", "s"}, endpoint{"t", "t"}
	}
}

// statementQuoter escapes backslashes before quotes so a literal backslash
// in the value cannot turn into an escape sequence in the rendered
// statement.
var statementQuoter = strings.NewReplacer(`\`, `\\`, "'", `\'`)

func quote(value string) string {
	return statementQuoter.Replace(value)
}
