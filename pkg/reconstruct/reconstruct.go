package reconstruct

import (
	"fmt"
	"sort"

	"docgraph/pkg/logger"
	"docgraph/pkg/mutation"
)

// Node group names and display colors, one per node kind.
const (
	GroupDocument   = "document"
	GroupChunk      = "chunk"
	GroupTopic      = "topic"
	GroupAnnotation = "annotation"

	colorDocument   = "#FF6B6B"
	colorChunk      = "#4ECDC4"
	colorTopic      = "#FFD93D"
	colorAnnotation = "#95E1D3"
)

// Node is one graph node prepared for display.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Color string `json:"color"`

	// Chunk nodes carry their parent document for shared-topic analysis.
	DocumentID string `json:"document_id,omitempty"`
	Page       int    `json:"page,omitempty"`

	// Topic nodes accumulate stats across replayed merges.
	TopicType   string  `json:"topic_type,omitempty"`
	Score       float64 `json:"score,omitempty"`
	Occurrences int     `json:"occurrences,omitempty"`
}

// Edge is one graph edge prepared for display.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Arrows string  `json:"arrows"`
}

// SharedTopic is a topic reached, through ABOUT edges, by chunks of more
// than one document.
type SharedTopic struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Documents []string `json:"documents"`
}

// Stats summarizes a rebuilt graph.
type Stats struct {
	Documents    int `json:"documents"`
	Chunks       int `json:"chunks"`
	Topics       int `json:"topics"`
	Annotations  int `json:"annotations"`
	Edges        int `json:"edges"`
	DroppedEdges int `json:"-"`
}

// Graph is the result of replaying one or more mutation logs.
type Graph struct {
	nodes        map[string]*Node
	order        []string
	edges        []Edge
	droppedEdges int
}

// Rebuild replays mutation records into a display graph in two passes.
// Pass one upserts nodes by id: repeated creations overwrite, repeated
// topic merges accumulate score and occurrence count. Pass two resolves
// relationships and drops any edge whose endpoints were never created,
// so replay order within a log cannot produce dangling edges.
func Rebuild(records []mutation.Record) *Graph {
	g := &Graph{nodes: make(map[string]*Node)}

	var relationships []*mutation.RelationshipPayload
	for _, record := range records {
		switch record.Op {
		case mutation.OpCreateDocument:
			d := record.Document
			g.upsert(&Node{
				ID:    d.ID,
				Label: labelOr(d.Title, d.ID),
				Group: GroupDocument,
				Color: colorDocument,
			})
		case mutation.OpCreateChunk:
			c := record.Chunk
			g.upsert(&Node{
				ID:         c.ID,
				Label:      fmt.Sprintf("%s\nPage %d", c.ID, c.Page),
				Group:      GroupChunk,
				Color:      colorChunk,
				DocumentID: c.DocumentID,
				Page:       c.Page,
			})
		case mutation.OpMergeTopic:
			g.mergeTopic(record.Topic)
		case mutation.OpCreateAnnotation:
			a := record.Annotation
			g.upsert(&Node{
				ID:    a.ID,
				Label: fmt.Sprintf("%s\n%s", a.Kind, a.Value),
				Group: GroupAnnotation,
				Color: colorAnnotation,
			})
		case mutation.OpCreateRelationship:
			relationships = append(relationships, record.Relationship)
		}
	}

	for _, rel := range relationships {
		if _, ok := g.nodes[rel.SourceID]; !ok {
			g.dropEdge(rel)
			continue
		}
		if _, ok := g.nodes[rel.TargetID]; !ok {
			g.dropEdge(rel)
			continue
		}

		color, width := edgeStyle(rel.Type)
		g.edges = append(g.edges, Edge{
			From:   rel.SourceID,
			To:     rel.TargetID,
			Label:  string(rel.Type),
			Color:  color,
			Width:  width,
			Arrows: "to",
		})
	}

	return g
}

func (g *Graph) upsert(node *Node) {
	if _, ok := g.nodes[node.ID]; !ok {
		g.order = append(g.order, node.ID)
	}
	g.nodes[node.ID] = node
}

// mergeTopic is idempotent on identity: the first merge fixes label and
// type, later merges only accumulate the stats.
func (g *Graph) mergeTopic(t *mutation.TopicPayload) {
	existing, ok := g.nodes[t.ID]
	if ok && existing.Group == GroupTopic {
		existing.Score += t.Score
		existing.Occurrences++
		return
	}

	g.upsert(&Node{
		ID:          t.ID,
		Label:       labelOr(t.Name, t.ID),
		Group:       GroupTopic,
		Color:       colorTopic,
		TopicType:   t.Type,
		Score:       t.Score,
		Occurrences: 1,
	})
}

func (g *Graph) dropEdge(rel *mutation.RelationshipPayload) {
	g.droppedEdges++
	logger.Warn("[Reconstruct] Dropping edge with unresolved endpoint",
		"source", rel.SourceID, "target", rel.TargetID, "type", rel.Type)
}

// Nodes returns the graph nodes in first-created order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns the resolved edges in replay order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Node returns the node with the given id, if present.
func (g *Graph) Node(id string) (Node, bool) {
	node, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *node, true
}

// Stats counts the graph contents by node kind.
func (g *Graph) Stats() Stats {
	stats := Stats{Edges: len(g.edges), DroppedEdges: g.droppedEdges}
	for _, node := range g.nodes {
		switch node.Group {
		case GroupDocument:
			stats.Documents++
		case GroupChunk:
			stats.Chunks++
		case GroupTopic:
			stats.Topics++
		case GroupAnnotation:
			stats.Annotations++
		}
	}
	return stats
}

// SharedTopics returns the topics whose ABOUT edges reach chunks belonging
// to more than one distinct document, sorted by topic id.
func (g *Graph) SharedTopics() []SharedTopic {
	topicDocs := make(map[string]map[string]struct{})
	for _, edge := range g.edges {
		if edge.Label != string(mutation.RelAbout) {
			continue
		}
		chunk, ok := g.nodes[edge.From]
		if !ok || chunk.DocumentID == "" {
			continue
		}
		if topicDocs[edge.To] == nil {
			topicDocs[edge.To] = make(map[string]struct{})
		}
		topicDocs[edge.To][chunk.DocumentID] = struct{}{}
	}

	var shared []SharedTopic
	for topicID, docs := range topicDocs {
		if len(docs) < 2 {
			continue
		}
		docIDs := make([]string, 0, len(docs))
		for id := range docs {
			docIDs = append(docIDs, id)
		}
		sort.Strings(docIDs)
		shared = append(shared, SharedTopic{
			ID:        topicID,
			Name:      g.nodes[topicID].Label,
			Documents: docIDs,
		})
	}

	sort.Slice(shared, func(i, j int) bool { return shared[i].ID < shared[j].ID })
	return shared
}

// edgeStyle maps a relation type to its display color and line width.
func edgeStyle(relType mutation.RelationType) (string, float64) {
	switch relType {
	case mutation.RelHasChunk:
		return "#FF6B6B", 3
	case mutation.RelAbout:
		return "#FFD93D", 2.5
	case mutation.RelHasAnnotation:
		return "#4ECDC4", 2
	default:
		return "#999999", 1
	}
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}
