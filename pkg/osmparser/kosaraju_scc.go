package osmparser

import (
	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/util"
)

// kosarajuSCC returns the strongly connected components of g.
func kosarajuSCC(g *datastructure.Graph) [][]int32 {
	n := int32(g.GetNumNodes())
	components := make([][]int32, 0)

	inEdges := make([][]int32, n)
	for _, e := range g.GetEdges() {
		inEdges[e.To] = append(inEdges[e.To], e.From)
	}

	order := make([]int32, 0, n)
	visited := make([]bool, n)

	for i := int32(0); i < n; i++ {
		if !visited[i] {
			dfs(g, inEdges, i, &order, visited, false)
		}
	}

	order = util.ReverseG[int32](order)

	// reset visited
	visited = make([]bool, n)

	for _, v := range order {
		if !visited[v] {
			component := make([]int32, 0)
			dfs(g, inEdges, v, &component, visited, true)
			components = append(components, component)
		}
	}
	return components
}

func dfs(g *datastructure.Graph, inEdges [][]int32, v int32, output *[]int32,
	visited []bool, reversed bool) {
	visited[v] = true

	if !reversed {
		for _, outEdge := range g.GetOutEdges(v) {
			if !visited[outEdge.To] {
				dfs(g, inEdges, outEdge.To, output, visited, reversed)
			}
		}
	} else {
		for _, from := range inEdges[v] {
			if !visited[from] {
				dfs(g, inEdges, from, output, visited, reversed)
			}
		}
	}

	*output = append(*output, v)
}

// LargestSCC keeps only the nodes of the biggest strongly connected component, renumbered in their original order.
// Also returns the number of components found.
func LargestSCC(g *datastructure.Graph) (*datastructure.Graph, int) {
	components := kosarajuSCC(g)
	if len(components) <= 1 {
		return g, len(components)
	}
	largest := components[0]
	for _, c := range components[1:] {
		if len(c) > len(largest) {
			largest = c
		}
	}

	keep := make([]bool, g.GetNumNodes())
	for _, v := range largest {
		keep[v] = true
	}
	newID := make([]int32, g.GetNumNodes())
	nodes := make([]datastructure.Node, 0, len(largest))
	for _, n := range g.GetNodes() {
		if !keep[n.ID] {
			continue
		}
		newID[n.ID] = int32(len(nodes))
		n.ID = int32(len(nodes))
		nodes = append(nodes, n)
	}
	edges := make([]datastructure.Edge, 0, g.GetNumEdges())
	for _, e := range g.GetEdges() {
		if !keep[e.From] || !keep[e.To] {
			continue
		}
		e.From, e.To = newID[e.From], newID[e.To]
		edges = append(edges, e)
	}
	return datastructure.NewGraph(nodes, edges), len(components)
}
