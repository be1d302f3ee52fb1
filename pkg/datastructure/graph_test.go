package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTriangle() *Graph {
	b := NewGraphBuilder()
	a := b.AddNode(100, 0, 0)
	c := b.AddNode(200, 0, 0.01)
	d := b.AddNode(300, 0.01, 0)
	b.AddBidirectionalEdge(Edge{From: a, To: c, LengthM: 1000, Grade: 0.02, Highway: "residential"})
	b.AddBidirectionalEdge(Edge{From: c, To: d, LengthM: 1500, Highway: "cycleway", BikeLane: true})
	b.AddEdge(Edge{From: d, To: a, LengthM: 1100, Highway: "path"})
	return b.Freeze()
}

func TestGraphBuilder(t *testing.T) {
	b := NewGraphBuilder()
	id := b.AddNode(42, 1, 2)
	assert.Equal(t, id, b.AddNode(42, 5, 5))
	got, ok := b.NodeID(42)
	assert.True(t, ok)
	assert.Equal(t, id, got)
	b.SetElevation(id, 12.5)
	g := b.Freeze()
	assert.Equal(t, 1, g.GetNumNodes())
	assert.True(t, g.GetNode(id).HasElevation)
	assert.Equal(t, 12.5, g.GetNode(id).Elevation)
}

func TestGraphOutEdges(t *testing.T) {
	g := buildTriangle()
	assert.Equal(t, 3, g.GetNumNodes())
	assert.Equal(t, 5, g.GetNumEdges())

	assert.Len(t, g.GetOutEdges(0), 1)
	assert.Len(t, g.GetOutEdges(1), 2)
	assert.Len(t, g.GetOutEdges(2), 2)

	for i, e := range g.GetEdges() {
		assert.Equal(t, int32(i), e.ID)
	}
	for id := int32(0); id < 3; id++ {
		for _, e := range g.GetOutEdges(id) {
			assert.Equal(t, id, e.From)
		}
	}
}

func TestGraphReverseGrade(t *testing.T) {
	g := buildTriangle()
	fwd, ok := g.EdgeBetween(0, 1)
	require.True(t, ok)
	rev, ok := g.EdgeBetween(1, 0)
	require.True(t, ok)
	assert.Equal(t, 0.02, fwd.Grade)
	assert.Equal(t, -0.02, rev.Grade)

	_, ok = g.EdgeBetween(0, 2)
	assert.False(t, ok)
}

func TestGraphPathLength(t *testing.T) {
	g := buildTriangle()
	assert.Equal(t, 3600.0, g.PathLengthM([]int32{0, 1, 2, 0}))

	_, ok := g.PathEdges([]int32{0, 2})
	assert.False(t, ok)
	assert.Panics(t, func() { g.PathLengthM([]int32{0, 1, 0, 2}) })

	coords := g.PathCoordinates([]int32{0, 1})
	assert.Equal(t, []Coordinate{{0, 0}, {0, 0.01}}, coords)
}

func TestGraphIsEmpty(t *testing.T) {
	var g *Graph
	assert.True(t, g.IsEmpty())
	assert.True(t, NewGraph(nil, nil).IsEmpty())
	assert.False(t, buildTriangle().IsEmpty())
}
