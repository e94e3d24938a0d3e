package annotate

import (
	"strings"
	"testing"

	"docgraph/pkg/common"
)

func TestGenerate_BaseAnnotations(t *testing.T) {
	content := "Le contrat prévoit un remboursement pour les soins dentaires."

	annotations := Generate("doc_chunk_0000", content, "paragraph", 3)

	if len(annotations) != 3 {
		t.Fatalf("expected 3 annotations, got %d", len(annotations))
	}

	tests := []struct {
		kind  common.AnnotationKind
		value string
		id    string
	}{
		{common.AnnotationElementType, "paragraph", "doc_chunk_0000_ann_element_type"},
		{common.AnnotationLocation, "page_3", "doc_chunk_0000_ann_location"},
		{common.AnnotationLength, "court", "doc_chunk_0000_ann_length"},
	}
	for i, tt := range tests {
		got := annotations[i]
		if got.Kind != tt.kind {
			t.Fatalf("annotation %d: expected kind %q, got %q", i, tt.kind, got.Kind)
		}
		if got.Value != tt.value {
			t.Fatalf("annotation %d: expected value %q, got %q", i, tt.value, got.Value)
		}
		if got.ID != tt.id {
			t.Fatalf("annotation %d: expected id %q, got %q", i, tt.id, got.ID)
		}
		if got.Context == "" {
			t.Fatalf("annotation %d: missing context", i)
		}
	}
}

func TestGenerate_LengthBuckets(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   string
	}{
		{"short", 150, "court"},
		{"boundary short", 199, "court"},
		{"medium", 200, "moyen"},
		{"boundary medium", 399, "moyen"},
		{"long", 400, "long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Repeat("a", tt.length)
			annotations := Generate("c", content, "paragraph", 1)

			var got string
			for _, ann := range annotations {
				if ann.Kind == common.AnnotationLength {
					got = ann.Value
				}
			}
			if got != tt.want {
				t.Fatalf("expected bucket %q for length %d, got %q", tt.want, tt.length, got)
			}
		})
	}
}

func TestGenerate_Keywords(t *testing.T) {
	content := "Le pipeline d'ingestion alimente la Data Fabric avec des metadata."

	annotations := Generate("c", content, "paragraph", 1)

	var keywords *common.Annotation
	for i := range annotations {
		if annotations[i].Kind == common.AnnotationKeywords {
			keywords = &annotations[i]
		}
	}
	if keywords == nil {
		t.Fatal("expected keywords annotation")
	}
	// Matches are reported in dictionary order, not text order.
	want := "data fabric, ingestion, metadata, pipeline"
	if keywords.Value != want {
		t.Fatalf("expected %q, got %q", want, keywords.Value)
	}
}

func TestGenerate_NoKeywordsAnnotationWithoutMatch(t *testing.T) {
	annotations := Generate("c", "Rien de spécial ici.", "paragraph", 1)

	for _, ann := range annotations {
		if ann.Kind == common.AnnotationKeywords {
			t.Fatal("unexpected keywords annotation")
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	content := "Le contrat d'assurance couvre le pipeline de soins."

	first := Generate("c", content, "paragraph", 2)
	second := Generate("c", content, "paragraph", 2)

	if len(first) != len(second) {
		t.Fatalf("non-deterministic annotation count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("annotation %d differs between runs", i)
		}
	}
}
