package snap

import (
	"errors"
	"math"
	"sort"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/geo"

	"github.com/dhconnelly/rtreego"
)

var (
	ErrGraphUnavailable = errors.New("road graph unavailable")
	ErrNoNodeNearby     = errors.New("no graph node within radius")
)

const (
	pointTolerance = 1e-7
	// planar nearest neighbours re-ranked by haversine
	nearestCandidates = 8
)

type nodeSpatial struct {
	id  int32
	lat float64
	lon float64
}

func (n *nodeSpatial) Bounds() rtreego.Rect {
	return rtreego.Point{n.lat, n.lon}.ToRect(pointTolerance)
}

// NodeLocator nearest graph node lookup over an R-tree of node coordinates.
type NodeLocator struct {
	tree *rtreego.Rtree
}

func NewNodeLocator(g *datastructure.Graph) *NodeLocator {
	if g.IsEmpty() {
		return &NodeLocator{}
	}
	objs := make([]rtreego.Spatial, 0, g.GetNumNodes())
	for _, n := range g.GetNodes() {
		objs = append(objs, &nodeSpatial{id: n.ID, lat: n.Lat, lon: n.Lon})
	}
	return &NodeLocator{tree: rtreego.NewTree(2, 25, 50, objs...)}
}

func (nl *NodeLocator) Size() int {
	if nl.tree == nil {
		return 0
	}
	return nl.tree.Size()
}

// Locate node closest to c by haversine distance.
func (nl *NodeLocator) Locate(c datastructure.Coordinate) (int32, error) {
	if nl.Size() == 0 {
		return -1, ErrGraphUnavailable
	}
	neighbors := nl.tree.NearestNeighbors(nearestCandidates, rtreego.Point{c.Lat, c.Lon})

	best := int32(-1)
	bestDist := math.Inf(1)
	for _, s := range neighbors {
		n, ok := s.(*nodeSpatial)
		if !ok {
			continue
		}
		d := geo.CalculateHaversineDistance(c.Lat, c.Lon, n.lat, n.lon)
		if d < bestDist || (d == bestDist && n.id < best) {
			best = n.id
			bestDist = d
		}
	}
	if best == -1 {
		return -1, ErrGraphUnavailable
	}
	return best, nil
}

// LocateWithin nodes inside the square of half side radiusKm around c, closest first.
func (nl *NodeLocator) LocateWithin(c datastructure.Coordinate, radiusKm float64) ([]int32, error) {
	if nl.Size() == 0 {
		return nil, ErrGraphUnavailable
	}
	diagonal := radiusKm * math.Sqrt2
	upperRightLat, upperRightLon := geo.GetDestinationPoint(c.Lat, c.Lon, math.Pi/4, diagonal)
	lowerLeftLat, lowerLeftLon := geo.GetDestinationPoint(c.Lat, c.Lon, 5*math.Pi/4, diagonal)

	bound, err := rtreego.NewRectFromPoints(
		rtreego.Point{lowerLeftLat, lowerLeftLon},
		rtreego.Point{upperRightLat, upperRightLon},
	)
	if err != nil {
		return nil, err
	}

	found := nl.tree.SearchIntersect(bound)
	type ranked struct {
		id   int32
		dist float64
	}
	rankedNodes := make([]ranked, 0, len(found))
	for _, s := range found {
		n := s.(*nodeSpatial)
		rankedNodes = append(rankedNodes, ranked{n.id, geo.CalculateHaversineDistance(c.Lat, c.Lon, n.lat, n.lon)})
	}
	if len(rankedNodes) == 0 {
		return nil, ErrNoNodeNearby
	}

	sort.Slice(rankedNodes, func(i, j int) bool {
		if rankedNodes[i].dist == rankedNodes[j].dist {
			return rankedNodes[i].id < rankedNodes[j].id
		}
		return rankedNodes[i].dist < rankedNodes[j].dist
	})
	ids := make([]int32, len(rankedNodes))
	for i, r := range rankedNodes {
		ids[i] = r.id
	}
	return ids, nil
}
