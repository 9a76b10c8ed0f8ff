package flowchart

import (
	"errors"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/lexical-app/lexical/internal/domain"
)

// Spacing constants tuned for visual clarity, not derived from content.
const (
	nodeSep = 80.0  // horizontal gap between nodes in a rank
	rankSep = 100.0 // vertical gap between ranks
	marginX = 20.0
	marginY = 20.0
)

// nodeSize is the fixed rendering footprint per node type.
func nodeSize(t domain.NodeType) (w, h float64) {
	switch t {
	case domain.NodeStart, domain.NodeEnd:
		return 130, 60
	case domain.NodeProcess:
		return 160, 60
	case domain.NodeDecision:
		return 140, 100
	case domain.NodeInput, domain.NodeOutput:
		return 160, 70
	default:
		return 160, 60
	}
}

// Layout assigns top-to-bottom layered positions to every node. Rank
// assignment and ordering ride on gonum's directed-graph machinery; this
// adapter only supplies per-type footprints and converts the computed
// center anchors to top-left coordinates.
func Layout(fc *domain.Flowchart) {
	if len(fc.Nodes) == 0 {
		return
	}

	g := simple.NewDirectedGraph()
	indexByID := make(map[string]int64, len(fc.Nodes))
	for i, n := range fc.Nodes {
		g.AddNode(simple.Node(int64(i)))
		indexByID[n.ID] = int64(i)
	}
	for _, e := range fc.Edges {
		src, okSrc := indexByID[e.Source]
		dst, okDst := indexByID[e.Target]
		// Dangling and self-referential edges carry no layout information.
		if !okSrc || !okDst || src == dst {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(src), simple.Node(dst)))
	}

	order := topoOrder(g, len(fc.Nodes))

	// Longest-path ranking: a node sits one rank below its deepest
	// predecessor.
	rank := make([]int, len(fc.Nodes))
	maxRank := 0
	for _, n := range order {
		r := 0
		preds := g.To(n.ID())
		for preds.Next() {
			if pr := rank[preds.Node().ID()] + 1; pr > r {
				r = pr
			}
		}
		rank[n.ID()] = r
		if r > maxRank {
			maxRank = r
		}
	}

	rows := make([][]int, maxRank+1)
	for _, n := range order {
		i := int(n.ID())
		rows[rank[i]] = append(rows[rank[i]], i)
	}

	y := marginY
	for _, row := range rows {
		rowHeight := 0.0
		for _, i := range row {
			if _, h := nodeSize(fc.Nodes[i].Type); h > rowHeight {
				rowHeight = h
			}
		}

		x := marginX
		for _, i := range row {
			w, h := nodeSize(fc.Nodes[i].Type)
			centerX := x + w/2
			centerY := y + rowHeight/2

			// Anchors are centers; stored coordinates are top-left corners.
			left := centerX - w/2
			top := centerY - h/2
			fc.Nodes[i].X = &left
			fc.Nodes[i].Y = &top

			x += w + nodeSep
		}

		y += rowHeight + rankSep
	}
}

// topoOrder returns every node in a stable topological order. Graphs with
// cycles (the model occasionally draws loops back to earlier steps) are
// still laid out: each strongly connected component is flattened in place.
func topoOrder(g *simple.DirectedGraph, n int) []graph.Node {
	order, err := topo.SortStabilized(g, nil)
	if err == nil {
		return order
	}

	var unorderable topo.Unorderable
	if !errors.As(err, &unorderable) {
		return order
	}

	fixed := make([]graph.Node, 0, n)
	scc := 0
	for _, node := range order {
		if node != nil {
			fixed = append(fixed, node)
			continue
		}
		fixed = append(fixed, unorderable[scc]...)
		scc++
	}
	return fixed
}
