package topics

import (
	"strings"
	"testing"

	"docgraph/pkg/common"
)

func TestExtractTopics_ConceptsOutrankKeywords(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	// "remboursement" matches a business concept twice; "logiciel" is a
	// plain keyword with the same raw frequency.
	text := "Le remboursement du logiciel est prévu. Un second remboursement du logiciel suivra."

	topics := e.ExtractTopics(text)
	if len(topics) == 0 {
		t.Fatal("expected topics")
	}

	if topics[0].Name != "remboursement" {
		t.Fatalf("expected concept first, got %q", topics[0].Name)
	}
	if topics[0].Type != common.TopicBusinessConcept {
		t.Fatalf("expected business_concept type, got %q", topics[0].Type)
	}
	if topics[0].Score != 4.0 {
		t.Fatalf("expected weighted score 4.0, got %v", topics[0].Score)
	}

	var keyword *common.ScoredTopic
	for i := range topics {
		if topics[i].Name == "logiciel" {
			keyword = &topics[i]
		}
	}
	if keyword == nil {
		t.Fatal("expected keyword topic for repeated word")
	}
	if keyword.Type != common.TopicKeyword || keyword.Score != 2.0 {
		t.Fatalf("unexpected keyword topic %+v", *keyword)
	}
}

func TestExtractTopics_VariantsAccumulate(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	text := "Les soins du patient sont médicaux. La santé des patients est suivie."

	topics := e.ExtractTopics(text)

	var sante *common.ScoredTopic
	for i := range topics {
		if topics[i].Name == "santé" {
			sante = &topics[i]
		}
	}
	if sante == nil {
		t.Fatal("expected santé concept")
	}
	// soins + patient + santé + patients = 4 variant hits, weighted x2.
	if sante.Score != 8.0 {
		t.Fatalf("expected score 8.0, got %v", sante.Score)
	}
}

func TestExtractTopics_StopWordsAndShortWordsExcluded(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	text := strings.Repeat("les est mais une rue ", 5)

	topics := e.ExtractTopics(text)
	if len(topics) != 0 {
		t.Fatalf("expected no topics from stop words and short words, got %+v", topics)
	}
}

func TestExtractTopics_MaxTopics(t *testing.T) {
	e := NewExtractor(ExtractorConfig{MaxTopics: 2})
	text := "assurance remboursement dentaire santé mutuelle contrat"

	topics := e.ExtractTopics(text)
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}
	// Equal scores keep dictionary order under the stable sort.
	if topics[0].Name != "assurance" || topics[1].Name != "remboursement" {
		t.Fatalf("unexpected order: %q, %q", topics[0].Name, topics[1].Name)
	}
}

func TestExtractTopics_EmptyText(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	if got := e.ExtractTopics("   \n\t  "); got != nil {
		t.Fatalf("expected nil for blank text, got %+v", got)
	}
}

func TestExtractTopics_DigitAdjacentRunsAreNotWords(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})

	// Reference codes like "dent123" must not count as the "dent" variant,
	// and must not surface as keywords either.
	topics := e.ExtractTopics("Référence dent123 validée. Référence dent123 archivée.")
	for _, topic := range topics {
		if topic.Name == "dentaire" {
			t.Fatalf("digit-adjacent run matched a concept variant: %+v", topic)
		}
		if strings.Contains(topic.Name, "dent123") {
			t.Fatalf("digit-adjacent run surfaced as keyword: %+v", topic)
		}
	}

	// The whole word still matches.
	topics = e.ExtractTopics("La dent du patient est soignée.")
	var found bool
	for _, topic := range topics {
		if topic.Name == "dentaire" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected dentaire concept for whole-word match, got %+v", topics)
	}
}

func TestExtractTopics_SingleOccurrenceKeywordDropped(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	topics := e.ExtractTopics("logiciel obsolète")

	for _, topic := range topics {
		if topic.Type == common.TopicKeyword {
			t.Fatalf("keyword with frequency 1 should be dropped: %+v", topic)
		}
	}
}

func TestNormalizeTopicID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"santé", "topic_sante"},
		{"Santé", "topic_sante"},
		{"bénéficiaire", "topic_beneficiaire"},
		{"data fabric", "topic_data_fabric"},
		{"remboursement", "topic_remboursement"},
		{"  période -- clé  ", "topic_periode_cle"},
	}

	for _, tt := range tests {
		if got := NormalizeTopicID(tt.name); got != tt.want {
			t.Fatalf("NormalizeTopicID(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNormalizeTopicID_AccentCollision(t *testing.T) {
	// Accented and unaccented spellings must converge on one id.
	if NormalizeTopicID("santé") != NormalizeTopicID("sante") {
		t.Fatal("expected accented and plain spellings to share an id")
	}
}

func TestExtractTopicsBatch(t *testing.T) {
	e := NewExtractor(ExtractorConfig{})
	chunks := []common.Chunk{
		{ID: "a_chunk_0000", Content: "Le contrat d'assurance couvre le remboursement dentaire."},
		{ID: "a_chunk_0001", Content: "L'assurance santé rembourse les soins."},
	}

	byChunk := e.ExtractTopicsBatch(chunks)

	if len(byChunk) != 2 {
		t.Fatalf("expected entries for 2 chunks, got %d", len(byChunk))
	}
	for id, topicIDs := range byChunk {
		if len(topicIDs) == 0 {
			t.Fatalf("chunk %s has no topics", id)
		}
		for i := 1; i < len(topicIDs); i++ {
			if topicIDs[i-1] >= topicIDs[i] {
				t.Fatalf("chunk %s topic ids not sorted/deduped: %v", id, topicIDs)
			}
		}
	}

	found := false
	for _, topicID := range byChunk["a_chunk_0001"] {
		if topicID == "topic_assurance" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected topic_assurance for chunk a_chunk_0001, got %v", byChunk["a_chunk_0001"])
	}
}
