package coordination

import (
	"sort"

	"github.com/hupe1980/researchmesh/collector"
	"github.com/hupe1980/researchmesh/core"
)

// graph is a naive communication graph built from routing events. Nodes are
// agents, edges are from->to routes with traversal counts. Centrality is
// plain degree counting, enough to identify the most connected node.
type graph struct {
	edges       map[string]int // "from->to" -> count
	hubEdges    int
	directEdges int
	degree      map[string]int
}

func buildGraph(metrics []core.Metric) graph {
	g := graph{
		edges:  make(map[string]int),
		degree: make(map[string]int),
	}
	for _, m := range metrics {
		if m.EventType != EventRoutingRequest && m.EventType != EventRoutingCompletion {
			continue
		}
		from, _ := collector.Text(m.Data["from"])
		to, _ := collector.Text(m.Data["to"])
		if from == "" || to == "" {
			continue
		}
		g.edges[from+"->"+to]++
		g.degree[from]++
		g.degree[to]++
		if hub, _ := collector.Boolean(m.Data["through_hub"]); hub {
			g.hubEdges++
		} else {
			g.directEdges++
		}
	}
	return g
}

// mostConnected returns the node with the highest degree. Ties break
// alphabetically so the result is deterministic.
func (g graph) mostConnected() string {
	nodes := make([]string, 0, len(g.degree))
	for n := range g.degree {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	best := ""
	bestDegree := 0
	for _, n := range nodes {
		if g.degree[n] > bestDegree {
			best = n
			bestDegree = g.degree[n]
		}
	}
	return best
}

func (g graph) summary() map[string]any {
	return map[string]any{
		"edges":           len(g.edges),
		"traversals":      g.hubEdges + g.directEdges,
		"hub_mediated":    g.hubEdges,
		"direct":          g.directEdges,
		"hub_ratio":       core.Ratio(float64(g.hubEdges), float64(g.hubEdges+g.directEdges)),
		"most_connected":  g.mostConnected(),
		"distinct_agents": len(g.degree),
	}
}
