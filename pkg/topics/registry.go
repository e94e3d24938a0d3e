package topics

import (
	"sync"

	"docgraph/pkg/common"
)

// Registry accumulates topic occurrences across the chunks of an ingestion
// run. Topics are keyed by their normalized id; scores add up across every
// occurrence while the chunk count grows once per distinct chunk. Safe for
// concurrent use.
type Registry struct {
	mu     sync.Mutex
	topics map[string]*common.Topic
	seen   map[string]map[string]struct{}
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		topics: make(map[string]*common.Topic),
		seen:   make(map[string]map[string]struct{}),
	}
}

// Collect records one scored topic occurrence found in a chunk and returns
// the topic's normalized id. Seeing the same topic again in the same chunk
// adds its score but does not increment the chunk count.
func (r *Registry) Collect(chunkID string, scored common.ScoredTopic) string {
	id := NormalizeTopicID(scored.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	topic, ok := r.topics[id]
	if !ok {
		topic = &common.Topic{
			ID:   id,
			Name: scored.Name,
			Type: scored.Type,
		}
		r.topics[id] = topic
		r.seen[id] = make(map[string]struct{})
		r.order = append(r.order, id)
	}

	topic.TotalScore += scored.Score
	if _, counted := r.seen[id][chunkID]; !counted {
		r.seen[id][chunkID] = struct{}{}
		topic.ChunkCount++
	}

	return id
}

// Topics returns a snapshot of all collected topics in first-seen order.
func (r *Registry) Topics() []common.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]common.Topic, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.topics[id])
	}
	return out
}

// Len returns the number of distinct topics collected so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics)
}
