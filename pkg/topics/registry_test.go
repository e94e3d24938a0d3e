package topics

import (
	"sync"
	"testing"

	"docgraph/pkg/common"
)

func TestRegistry_Collect(t *testing.T) {
	r := NewRegistry()

	id := r.Collect("doc_chunk_0000", common.ScoredTopic{
		Name:  "santé",
		Score: 4.0,
		Type:  common.TopicBusinessConcept,
	})
	if id != "topic_sante" {
		t.Fatalf("unexpected topic id %q", id)
	}

	r.Collect("doc_chunk_0001", common.ScoredTopic{
		Name:  "santé",
		Score: 2.0,
		Type:  common.TopicBusinessConcept,
	})

	topics := r.Topics()
	if len(topics) != 1 {
		t.Fatalf("expected 1 topic, got %d", len(topics))
	}
	if topics[0].TotalScore != 6.0 {
		t.Fatalf("expected accumulated score 6.0, got %v", topics[0].TotalScore)
	}
	if topics[0].ChunkCount != 2 {
		t.Fatalf("expected chunk count 2, got %d", topics[0].ChunkCount)
	}
}

func TestRegistry_SameChunkCountsOnce(t *testing.T) {
	r := NewRegistry()
	scored := common.ScoredTopic{Name: "contrat", Score: 2.0, Type: common.TopicBusinessConcept}

	r.Collect("doc_chunk_0000", scored)
	r.Collect("doc_chunk_0000", scored)

	topics := r.Topics()
	if topics[0].ChunkCount != 1 {
		t.Fatalf("expected chunk count 1 for repeated chunk, got %d", topics[0].ChunkCount)
	}
	// Score still accumulates per occurrence.
	if topics[0].TotalScore != 4.0 {
		t.Fatalf("expected score 4.0, got %v", topics[0].TotalScore)
	}
}

func TestRegistry_AccentedNamesConverge(t *testing.T) {
	r := NewRegistry()

	first := r.Collect("c1", common.ScoredTopic{Name: "santé", Score: 2.0, Type: common.TopicBusinessConcept})
	second := r.Collect("c2", common.ScoredTopic{Name: "sante", Score: 2.0, Type: common.TopicKeyword})

	if first != second {
		t.Fatalf("expected one topic id, got %q and %q", first, second)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 topic, got %d", r.Len())
	}

	// The first-seen name and type win.
	topics := r.Topics()
	if topics[0].Name != "santé" || topics[0].Type != common.TopicBusinessConcept {
		t.Fatalf("unexpected topic %+v", topics[0])
	}
}

func TestRegistry_FirstSeenOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"contrat", "assurance", "plafond"} {
		r.Collect("c", common.ScoredTopic{Name: name, Score: 1.0, Type: common.TopicBusinessConcept})
	}

	topics := r.Topics()
	want := []string{"topic_contrat", "topic_assurance", "topic_plafond"}
	for i, topic := range topics {
		if topic.ID != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], topic.ID)
		}
	}
}

func TestRegistry_ConcurrentCollect(t *testing.T) {
	r := NewRegistry()
	scored := common.ScoredTopic{Name: "assurance", Score: 1.0, Type: common.TopicBusinessConcept}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Collect("chunk", scored)
		}(i)
	}
	wg.Wait()

	topics := r.Topics()
	if len(topics) != 1 {
		t.Fatalf("expected 1 topic, got %d", len(topics))
	}
	if topics[0].TotalScore != 50.0 {
		t.Fatalf("expected score 50.0, got %v", topics[0].TotalScore)
	}
	if topics[0].ChunkCount != 1 {
		t.Fatalf("expected chunk count 1, got %d", topics[0].ChunkCount)
	}
}
