package annotate

import (
	"fmt"
	"strings"

	"docgraph/pkg/common"
)

const (
	lengthShortMax = 200
	lengthLongMin  = 400
)

// keywordDictionary lists the keywords surfaced as a keywords annotation
// when they appear in a chunk. Matches are reported in dictionary order.
var keywordDictionary = []string{
	"data fabric",
	"architecture",
	"ingestion",
	"metadata",
	"pipeline",
}

// Generate derives the annotations for one chunk: element type, location,
// length bucket, and keyword hits. The first three are always present; the
// keywords annotation is emitted only when at least one dictionary keyword
// appears in the content.
//
// The result is deterministic for identical input and has no side effects.
func Generate(chunkID, content, elementType string, page int) []common.Annotation {
	annotations := []common.Annotation{
		{
			ID:      common.AnnotationID(chunkID, common.AnnotationElementType),
			Kind:    common.AnnotationElementType,
			Value:   elementType,
			Context: fmt.Sprintf("Ce contenu est de type %s", elementType),
		},
		{
			ID:      common.AnnotationID(chunkID, common.AnnotationLocation),
			Kind:    common.AnnotationLocation,
			Value:   fmt.Sprintf("page_%d", page),
			Context: fmt.Sprintf("Ce contenu se trouve à la page %d", page),
		},
	}

	bucket := lengthBucket(content)
	annotations = append(annotations, common.Annotation{
		ID:      common.AnnotationID(chunkID, common.AnnotationLength),
		Kind:    common.AnnotationLength,
		Value:   bucket,
		Context: fmt.Sprintf("Ce contenu est de longueur %s", bucket),
	})

	if found := matchKeywords(content); len(found) > 0 {
		joined := strings.Join(found, ", ")
		annotations = append(annotations, common.Annotation{
			ID:      common.AnnotationID(chunkID, common.AnnotationKeywords),
			Kind:    common.AnnotationKeywords,
			Value:   joined,
			Context: fmt.Sprintf("Contient les concepts: %s", joined),
		})
	}

	return annotations
}

func lengthBucket(content string) string {
	switch length := len([]rune(content)); {
	case length < lengthShortMax:
		return "court"
	case length < lengthLongMin:
		return "moyen"
	default:
		return "long"
	}
}

func matchKeywords(content string) []string {
	lower := strings.ToLower(content)

	var found []string
	for _, keyword := range keywordDictionary {
		if strings.Contains(lower, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}
