package common

import "fmt"

// Document represents one ingested source file. It is the root of the
// chunk tree and is created once per file; it is never mutated afterwards.
type Document struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// BoundingBox is the position of an extracted element on its page, when the
// extraction backend provides layout information.
type BoundingBox struct {
	Left   float64 `json:"l"`
	Top    float64 `json:"t"`
	Right  float64 `json:"r"`
	Bottom float64 `json:"b"`
}

// Element is one extracted piece of page content (paragraph, title, table)
// in page order. Elements are the input to the chunker.
type Element struct {
	Page    int          `json:"page"`
	Type    string       `json:"type"`
	Content string       `json:"content"`
	BBox    *BoundingBox `json:"bbox,omitempty"`
}

// ChunkMetadata carries the provenance of a chunk within its document.
// Length is the character count of the chunk content.
type ChunkMetadata struct {
	Page        int          `json:"page"`
	ElementType string       `json:"type"`
	BBox        *BoundingBox `json:"bbox,omitempty"`
	Length      int          `json:"length"`
}

// Chunk is a bounded span of a document's extracted text, the atomic unit
// that is embedded and indexed for retrieval.
//
// A chunk is immutable after creation except for its Annotations and
// TopicIDs attachments, which are append-only.
type Chunk struct {
	ID          string        `json:"id"`
	DocumentID  string        `json:"document_id"`
	Content     string        `json:"content"`
	Metadata    ChunkMetadata `json:"metadata"`
	Annotations []Annotation  `json:"annotations,omitempty"`
	TopicIDs    []string      `json:"topic_ids,omitempty"`
}

// AnnotationKind enumerates the derived facts attached to a chunk.
type AnnotationKind string

const (
	AnnotationElementType AnnotationKind = "element_type"
	AnnotationLocation    AnnotationKind = "location"
	AnnotationLength      AnnotationKind = "length"
	AnnotationKeywords    AnnotationKind = "keywords"
)

// Annotation is a small derived metadata fact about a chunk. Its id is
// deterministic per chunk and kind, so at most one annotation of each of
// the element_type, location and length kinds exists per chunk.
type Annotation struct {
	ID      string         `json:"id"`
	Kind    AnnotationKind `json:"type"`
	Value   string         `json:"value"`
	Context string         `json:"context"`
}

// AnnotationID builds the deterministic annotation id for a chunk and kind.
func AnnotationID(chunkID string, kind AnnotationKind) string {
	return fmt.Sprintf("%s_ann_%s", chunkID, kind)
}

// TopicType distinguishes dictionary-backed business concepts from
// frequency-derived keywords.
type TopicType string

const (
	TopicBusinessConcept TopicType = "business_concept"
	TopicKeyword         TopicType = "keyword"
)

// Topic is a deduplicated concept or keyword shared across chunks and
// documents. Its id is the normalized slug of its name, which makes Topic
// the only entity shared across documents: identical normalized names
// collapse to one topic.
//
// TotalScore accumulates the per-chunk relevance scores of every chunk
// that yielded the topic; ChunkCount counts the distinct chunks.
type Topic struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       TopicType `json:"type"`
	TotalScore float64   `json:"total_score"`
	ChunkCount int       `json:"chunk_count"`
}

// ScoredTopic is one ranked topic candidate extracted from a single chunk,
// before normalization and cross-chunk deduplication.
type ScoredTopic struct {
	Name  string    `json:"name"`
	Score float64   `json:"score"`
	Type  TopicType `json:"type"`
}
