package reconstruct

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

// viewerTemplate renders the rebuilt graph as a standalone interactive
// page on vis-network. Everything is inlined so the file can be opened
// directly from disk.
var viewerTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Graphe documentaire</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
  body { margin: 0; font-family: "Segoe UI", Arial, sans-serif; background: #1e1e2e; color: #eee; }
  header { padding: 16px 24px; background: #2a2a3e; }
  header h1 { margin: 0 0 8px; font-size: 20px; }
  .stats { display: flex; gap: 24px; font-size: 14px; }
  .stats span strong { color: #FFD93D; }
  #network { height: calc(100vh - 180px); }
  .shared-topics { padding: 12px 24px; background: #2a2a3e; font-size: 14px; }
  .shared-topics h3 { margin: 0 0 6px; font-size: 15px; }
  .shared-topics ul { margin: 0; padding-left: 18px; }
  .shared-topics strong { color: #FFD93D; }
</style>
</head>
<body>
<header>
  <h1>Graphe documentaire</h1>
  <div class="stats">
    <span>Documents : <strong>{{.Stats.Documents}}</strong></span>
    <span>Chunks : <strong>{{.Stats.Chunks}}</strong></span>
    <span>Topics : <strong>{{.Stats.Topics}}</strong></span>
    <span>Annotations : <strong>{{.Stats.Annotations}}</strong></span>
    <span>Relations : <strong>{{.Stats.Edges}}</strong></span>
  </div>
</header>
<div id="network"></div>
{{if .SharedTopics}}
<div class="shared-topics">
  <h3>Topics partagés entre documents</h3>
  <ul>
  {{range .SharedTopics}}
    <li><strong>{{.Name}}</strong> : {{len .Documents}} documents</li>
  {{end}}
  </ul>
</div>
{{end}}
<script>
  const nodes = new vis.DataSet({{.NodesJSON}});
  const edges = new vis.DataSet({{.EdgesJSON}});
  const container = document.getElementById("network");
  const network = new vis.Network(container, { nodes, edges }, {
    physics: { stabilization: { iterations: 200 }, barnesHut: { gravitationalConstant: -8000 } },
    nodes: { shape: "dot", size: 14, font: { color: "#eee", size: 12 } },
    edges: { font: { color: "#aaa", size: 10, align: "middle" }, smooth: { type: "continuous" } },
    interaction: { hover: true, tooltipDelay: 150 }
  });
  const sharedTopicsData = {{.SharedJSON}};
  network.on("selectNode", function (params) {
    console.log("Node:", params.nodes[0]);
  });
  console.log("Topics partagés:", sharedTopicsData.length);
</script>
</body>
</html>
`))

type viewerData struct {
	Stats        Stats
	SharedTopics []SharedTopic
	NodesJSON    template.JS
	EdgesJSON    template.JS
	SharedJSON   template.JS
}

// WriteHTML renders the graph as an interactive HTML page.
func (g *Graph) WriteHTML(w io.Writer) error {
	nodesJSON, err := json.Marshal(g.Nodes())
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(g.Edges())
	if err != nil {
		return fmt.Errorf("marshal edges: %w", err)
	}
	shared := g.SharedTopics()
	if shared == nil {
		shared = []SharedTopic{}
	}
	sharedJSON, err := json.Marshal(shared)
	if err != nil {
		return fmt.Errorf("marshal shared topics: %w", err)
	}

	data := viewerData{
		Stats:        g.Stats(),
		SharedTopics: shared,
		NodesJSON:    template.JS(nodesJSON),
		EdgesJSON:    template.JS(edgesJSON),
		SharedJSON:   template.JS(sharedJSON),
	}
	if err := viewerTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render viewer: %w", err)
	}
	return nil
}
