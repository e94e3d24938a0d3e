package mutation

import (
	"bytes"
	"strings"
	"testing"

	"docgraph/pkg/common"
)

func TestStatement_Rendering(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{
			"document",
			NewCreateDocument(common.Document{ID: "contrat_sante", Title: "Contrat Santé", Source: "contrat_sante.pdf"}),
			"CREATE (d:Document {id: 'contrat_sante', title: 'Contrat Santé', source: 'contrat_sante.pdf'})",
		},
		{
			"chunk",
			NewCreateChunk(common.Chunk{
				ID:         "contrat_sante_chunk_0000",
				DocumentID: "contrat_sante",
				Content:    "Le contrat prévoit un remboursement.",
				Metadata:   common.ChunkMetadata{Page: 3, ElementType: "paragraph", Length: 36},
			}),
			"CREATE (c:Chunk {id: 'contrat_sante_chunk_0000', document_id: 'contrat_sante', page: 3, type: 'paragraph'})",
		},
		{
			"topic",
			NewMergeTopic("topic_sante", "santé", common.TopicBusinessConcept, 4.0),
			"MERGE (t:Topic {id: 'topic_sante', name: 'santé', type: 'business_concept'})",
		},
		{
			"annotation",
			NewCreateAnnotation("c0", common.Annotation{
				ID:    "c0_ann_length",
				Kind:  common.AnnotationLength,
				Value: "court",
			}),
			"CREATE (a:Annotation {id: 'c0_ann_length', type: 'length', value: 'court'})",
		},
		{
			"has_chunk relationship",
			NewCreateRelationship("contrat_sante", "contrat_sante_chunk_0000", RelHasChunk),
			"MATCH (d:Document {id: 'contrat_sante'}), (c:Chunk {id: 'contrat_sante_chunk_0000'}) CREATE (d)-[:HAS_CHUNK]->(c)",
		},
		{
			"about relationship",
			NewCreateRelationship("contrat_sante_chunk_0000", "topic_sante", RelAbout),
			"MATCH (c:Chunk {id: 'contrat_sante_chunk_0000'}), (t:Topic {id: 'topic_sante'}) CREATE (c)-[:ABOUT]->(t)",
		},
		{
			"has_annotation relationship",
			NewCreateRelationship("c0", "c0_ann_length", RelHasAnnotation),
			"MATCH (c:Chunk {id: 'c0'}), (a:Annotation {id: 'c0_ann_length'}) CREATE (c)-[:HAS_ANNOTATION]->(a)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Statement(); got != tt.want {
				t.Fatalf("unexpected statement:\n got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestStatement_EscapesQuotes(t *testing.T) {
	record := NewCreateDocument(common.Document{ID: "doc", Title: "l'assurance", Source: "s"})
	if !strings.Contains(record.Statement(), `l\'assurance`) {
		t.Fatalf("quote not escaped: %s", record.Statement())
	}
}

func TestStatement_EscapesBackslashes(t *testing.T) {
	record := NewCreateDocument(common.Document{ID: "doc", Title: `dossier\2024`, Source: "s"})
	if !strings.Contains(record.Statement(), `dossier\\2024`) {
		t.Fatalf("backslash not escaped: %s", record.Statement())
	}

	// A backslash before a quote must stay a literal backslash followed by
	// an escaped quote.
	record = NewCreateDocument(common.Document{ID: "doc", Title: `l\'assurance`, Source: "s"})
	if !strings.Contains(record.Statement(), `l\\\'assurance`) {
		t.Fatalf("mixed escape mangled: %s", record.Statement())
	}
}

func TestLog_CSVRoundTrip(t *testing.T) {
	log := NewLog()
	log.Append(
		NewCreateDocument(common.Document{ID: "doc", Title: "Titre", Source: "doc.pdf"}),
		NewCreateChunk(common.Chunk{
			ID:         "doc_chunk_0000",
			DocumentID: "doc",
			Content:    "Contenu du chunk, avec une virgule.",
			Metadata:   common.ChunkMetadata{Page: 1, ElementType: "paragraph", Length: 35},
		}),
		NewCreateRelationship("doc", "doc_chunk_0000", RelHasChunk),
		NewMergeTopic("topic_assurance", "assurance", common.TopicBusinessConcept, 2.0),
		NewCreateRelationship("doc_chunk_0000", "topic_assurance", RelAbout),
	)

	var buf bytes.Buffer
	if err := log.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}

	if records[0].Op != OpCreateDocument || records[0].Document.Title != "Titre" {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	chunk := records[1].Chunk
	if chunk == nil || chunk.Content != "Contenu du chunk, avec une virgule." || chunk.Page != 1 {
		t.Fatalf("chunk payload did not survive round trip: %+v", chunk)
	}
	rel := records[2].Relationship
	if rel == nil || rel.SourceID != "doc" || rel.TargetID != "doc_chunk_0000" || rel.Type != RelHasChunk {
		t.Fatalf("relationship payload did not survive round trip: %+v", rel)
	}
	topic := records[3].Topic
	if topic == nil || topic.Score != 2.0 || topic.Type != "business_concept" {
		t.Fatalf("topic payload did not survive round trip: %+v", topic)
	}
}

func TestReadCSV_SkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		`query_type,query,parameters`,
		`CREATE_DOCUMENT,stmt,"{""id"": ""doc"", ""title"": ""T"", ""source"": ""s""}"`,
		`BOGUS_OP,stmt,"{}"`,
		`CREATE_CHUNK,stmt,not-json`,
		`MERGE_TOPIC,stmt,"{""id"": ""topic_x"", ""name"": ""x"", ""type"": ""keyword"", ""score"": 1}"`,
	}, "\n")

	records, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 valid records, got %d", len(records))
	}
	if records[0].Op != OpCreateDocument || records[1].Op != OpMergeTopic {
		t.Fatalf("unexpected operations %v, %v", records[0].Op, records[1].Op)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if records != nil {
		t.Fatalf("expected nil records, got %+v", records)
	}
}

func TestLog_RecordsSnapshot(t *testing.T) {
	log := NewLog()
	log.Append(NewCreateDocument(common.Document{ID: "doc"}))

	snapshot := log.Records()
	log.Append(NewCreateDocument(common.Document{ID: "doc2"}))

	if len(snapshot) != 1 {
		t.Fatalf("snapshot mutated by later append: %d", len(snapshot))
	}
	if log.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", log.Len())
	}
}
