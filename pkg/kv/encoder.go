package kv

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

type kvNode struct {
	ID           int32
	OsmID        int64
	Lat          float64
	Lon          float64
	Elevation    float64
	HasElevation bool
}

type kvEdge struct {
	From     int32
	To       int32
	LengthM  float64
	Grade    float64
	BikeLane bool
	Cycleway string
	Highway  string
	Surface  string
}

// kvTile nodes of one h3 cell together with their outgoing edges.
type kvTile struct {
	Nodes []kvNode
	Edges []kvEdge
}

type graphMeta struct {
	NumNodes  int
	NumEdges  int
	NumTiles  int
	CreatedAt int64
}

func newKVTile(nodes []datastructure.Node, edges []datastructure.Edge) kvTile {
	tile := kvTile{
		Nodes: make([]kvNode, len(nodes)),
		Edges: make([]kvEdge, len(edges)),
	}
	for i, n := range nodes {
		tile.Nodes[i] = kvNode{
			ID:           n.ID,
			OsmID:        n.OsmID,
			Lat:          n.Lat,
			Lon:          n.Lon,
			Elevation:    n.Elevation,
			HasElevation: n.HasElevation,
		}
	}
	for i, e := range edges {
		tile.Edges[i] = kvEdge{
			From:     e.From,
			To:       e.To,
			LengthM:  e.LengthM,
			Grade:    e.Grade,
			BikeLane: e.BikeLane,
			Cycleway: e.Cycleway,
			Highway:  e.Highway,
			Surface:  e.Surface,
		}
	}
	return tile
}

func (t kvTile) toNodes() []datastructure.Node {
	nodes := make([]datastructure.Node, len(t.Nodes))
	for i, n := range t.Nodes {
		nodes[i] = datastructure.Node{
			ID:           n.ID,
			OsmID:        n.OsmID,
			Lat:          n.Lat,
			Lon:          n.Lon,
			Elevation:    n.Elevation,
			HasElevation: n.HasElevation,
		}
	}
	return nodes
}

func (t kvTile) toEdges() []datastructure.Edge {
	edges := make([]datastructure.Edge, len(t.Edges))
	for i, e := range t.Edges {
		edges[i] = datastructure.Edge{
			From:     e.From,
			To:       e.To,
			LengthM:  e.LengthM,
			Grade:    e.Grade,
			BikeLane: e.BikeLane,
			Cycleway: e.Cycleway,
			Highway:  e.Highway,
			Surface:  e.Surface,
		}
	}
	return edges
}

func encodeTile(tile kvTile) ([]byte, error) {
	bb, err := binary.Marshal(tile)
	if err != nil {
		return nil, err
	}
	return compress(bb)
}

func decodeTile(bbCompressed []byte) (kvTile, error) {
	var tile kvTile
	bb, err := decompress(bbCompressed)
	if err != nil {
		return tile, err
	}
	err = binary.Unmarshal(bb, &tile)
	return tile, err
}

func compress(bb []byte) ([]byte, error) {
	return zstd.Compress(nil, bb)
}

func decompress(bbCompressed []byte) ([]byte, error) {
	return zstd.Decompress(nil, bbCompressed)
}
