package routingalgorithm

import (
	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

const gridSpacingDeg = 0.0089

// gridGraph n x n grid, node id = row*n + col, 1 km bidirectional edges.
func gridGraph(n int) *datastructure.Graph {
	b := datastructure.NewGraphBuilder()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			b.AddNode(int64(r*n+c), float64(r)*gridSpacingDeg, float64(c)*gridSpacingDeg)
		}
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			id := int32(r*n + c)
			if c+1 < n {
				b.AddBidirectionalEdge(datastructure.Edge{From: id, To: id + 1, LengthM: 1000, Highway: "residential"})
			}
			if r+1 < n {
				b.AddBidirectionalEdge(datastructure.Edge{From: id, To: id + int32(n), LengthM: 1000, Highway: "residential"})
			}
		}
	}
	return b.Freeze()
}

// lineGraph a - b - c with 100 m edges.
func lineGraph() *datastructure.Graph {
	b := datastructure.NewGraphBuilder()
	a := b.AddNode(1, 0, 0)
	m := b.AddNode(2, 0, 0.0009)
	c := b.AddNode(3, 0, 0.0018)
	b.AddBidirectionalEdge(datastructure.Edge{From: a, To: m, LengthM: 100})
	b.AddBidirectionalEdge(datastructure.Edge{From: m, To: c, LengthM: 100})
	return b.Freeze()
}

// detourGraph A -> B directly (1 km, no bike lane, 5% climb) or A -> C -> B (2 x 0.7 km, bike lane, flat).
// D is unreachable.
func detourGraph() *datastructure.Graph {
	b := datastructure.NewGraphBuilder()
	a := b.AddNode(1, 0, 0)
	bb := b.AddNode(2, 0, 0.009)
	c := b.AddNode(3, 0.004, 0.0045)
	b.AddNode(4, 1, 1)
	b.AddEdge(datastructure.Edge{From: a, To: bb, LengthM: 1000, Grade: 0.05, Highway: "primary"})
	b.AddEdge(datastructure.Edge{From: a, To: c, LengthM: 700, BikeLane: true, Cycleway: "lane", Highway: "cycleway"})
	b.AddEdge(datastructure.Edge{From: c, To: bb, LengthM: 700, BikeLane: true, Cycleway: "lane", Highway: "cycleway"})
	return b.Freeze()
}
