package datastructure

import (
	"fmt"
	"sort"
)

type Node struct {
	ID           int32
	OsmID        int64
	Lat          float64
	Lon          float64
	Elevation    float64
	HasElevation bool
}

func NewNode(id int32, osmID int64, lat, lon float64) Node {
	return Node{
		ID:    id,
		OsmID: osmID,
		Lat:   lat,
		Lon:   lon,
	}
}

func (n Node) Coordinate() Coordinate {
	return NewCoordinate(n.Lat, n.Lon)
}

// Edge is a directed road segment. Grade is rise over run (0.05 = 5% climb).
type Edge struct {
	ID       int32
	From     int32
	To       int32
	LengthM  float64
	Grade    float64
	BikeLane bool
	Cycleway string
	Highway  string
	Surface  string
}

func (e Edge) LengthKm() float64 {
	return e.LengthM / 1000.0
}

// Graph forward-star adjacency, read-only once built. Safe for concurrent readers.
type Graph struct {
	nodes      []Node
	edges      []Edge
	outOffsets []int32
}

// NewGraph edges are reordered by their From node and renumbered.
func NewGraph(nodes []Node, edges []Edge) *Graph {
	sortedEdges := make([]Edge, len(edges))
	copy(sortedEdges, edges)
	sort.SliceStable(sortedEdges, func(i, j int) bool {
		return sortedEdges[i].From < sortedEdges[j].From
	})

	outOffsets := make([]int32, len(nodes)+1)
	for i := range sortedEdges {
		sortedEdges[i].ID = int32(i)
		outOffsets[sortedEdges[i].From+1]++
	}
	for i := 1; i < len(outOffsets); i++ {
		outOffsets[i] += outOffsets[i-1]
	}

	return &Graph{
		nodes:      nodes,
		edges:      sortedEdges,
		outOffsets: outOffsets,
	}
}

func (g *Graph) GetNode(id int32) Node {
	return g.nodes[id]
}

func (g *Graph) GetNodes() []Node {
	return g.nodes
}

func (g *Graph) GetEdges() []Edge {
	return g.edges
}

func (g *Graph) GetEdge(id int32) Edge {
	return g.edges[id]
}

func (g *Graph) GetNumNodes() int {
	return len(g.nodes)
}

func (g *Graph) GetNumEdges() int {
	return len(g.edges)
}

func (g *Graph) IsEmpty() bool {
	return g == nil || len(g.nodes) == 0
}

func (g *Graph) HasNode(id int32) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// GetOutEdges the returned slice aliases graph storage and must not be modified.
func (g *Graph) GetOutEdges(id int32) []Edge {
	return g.edges[g.outOffsets[id]:g.outOffsets[id+1]]
}

// EdgeBetween shortest edge from -> to.
func (g *Graph) EdgeBetween(from, to int32) (Edge, bool) {
	var (
		best  Edge
		found bool
	)
	for _, e := range g.GetOutEdges(from) {
		if e.To == to && (!found || e.LengthM < best.LengthM) {
			best = e
			found = true
		}
	}
	return best, found
}

// PathEdges edges traversed by path, in order. ok is false if two consecutive nodes are not adjacent.
func (g *Graph) PathEdges(path []int32) ([]Edge, bool) {
	if len(path) < 2 {
		return nil, true
	}
	edges := make([]Edge, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		e, ok := g.EdgeBetween(path[i-1], path[i])
		if !ok {
			return edges, false
		}
		edges = append(edges, e)
	}
	return edges, true
}

// PathLengthM sum of edge lengths along path, in meter. Panics on consecutive nodes that are not adjacent.
func (g *Graph) PathLengthM(path []int32) float64 {
	edges, ok := g.PathEdges(path)
	if !ok {
		panic(fmt.Sprintf("datastructure: no edge %d -> %d in path", path[len(edges)], path[len(edges)+1]))
	}
	total := 0.0
	for _, e := range edges {
		total += e.LengthM
	}
	return total
}

func (g *Graph) PathCoordinates(path []int32) []Coordinate {
	coords := make([]Coordinate, len(path))
	for i, id := range path {
		coords[i] = g.nodes[id].Coordinate()
	}
	return coords
}

type GraphBuilder struct {
	nodes   []Node
	edges   []Edge
	osmToID map[int64]int32
}

func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		nodes:   make([]Node, 0),
		edges:   make([]Edge, 0),
		osmToID: make(map[int64]int32),
	}
}

// AddNode returns the existing id when osmID was already added.
func (b *GraphBuilder) AddNode(osmID int64, lat, lon float64) int32 {
	if id, ok := b.osmToID[osmID]; ok {
		return id
	}
	id := int32(len(b.nodes))
	b.nodes = append(b.nodes, NewNode(id, osmID, lat, lon))
	b.osmToID[osmID] = id
	return id
}

func (b *GraphBuilder) SetElevation(id int32, elevation float64) {
	b.nodes[id].Elevation = elevation
	b.nodes[id].HasElevation = true
}

func (b *GraphBuilder) NodeID(osmID int64) (int32, bool) {
	id, ok := b.osmToID[osmID]
	return id, ok
}

func (b *GraphBuilder) AddEdge(e Edge) {
	b.edges = append(b.edges, e)
}

// AddBidirectionalEdge adds e and its reverse; the reverse edge's grade is negated.
func (b *GraphBuilder) AddBidirectionalEdge(e Edge) {
	b.edges = append(b.edges, e)
	rev := e
	rev.From, rev.To = e.To, e.From
	rev.Grade = -e.Grade
	b.edges = append(b.edges, rev)
}

func (b *GraphBuilder) NumNodes() int {
	return len(b.nodes)
}

func (b *GraphBuilder) Freeze() *Graph {
	return NewGraph(b.nodes, b.edges)
}
