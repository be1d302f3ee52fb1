package concurrent

import (
	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

type SaveTileJobItem struct {
	Cell  string
	Nodes []datastructure.Node
	Edges []datastructure.Edge
}

func NewSaveTileJobItem(cell string, nodes []datastructure.Node, edges []datastructure.Edge) SaveTileJobItem {
	return SaveTileJobItem{
		Cell:  cell,
		Nodes: nodes,
		Edges: edges,
	}
}

// SnapSegmentJobItem one consecutive waypoint pair of a route to be road snapped.
type SnapSegmentJobItem struct {
	Index int
	From  datastructure.Coordinate
	To    datastructure.Coordinate
}

func NewSnapSegmentJobItem(index int, from, to datastructure.Coordinate) SnapSegmentJobItem {
	return SnapSegmentJobItem{
		Index: index,
		From:  from,
		To:    to,
	}
}

type JobI interface {
	SaveTileJobItem | SnapSegmentJobItem
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}
type JobFunc[T JobI, G any] func(job T) G
