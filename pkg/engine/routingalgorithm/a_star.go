package routingalgorithm

import (
	"fmt"
	"math"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/owenkobasz/cyclone/pkg/util"
)

const (
	elevationWeight = 10.0
)

// EdgeCost length_km plus the bike lane penalty and the elevation term. Only climbs count: the term is
// +climb*10 when hills are avoided and -climb*10 otherwise, so PreferHills changes nothing here.
func EdgeCost(e datastructure.Edge, prefs datastructure.RoutePreferences) float64 {
	lengthKm := e.LengthKm()
	cost := lengthKm

	if prefs.PreferBikeLanes && !e.BikeLane {
		cost += lengthKm
	}

	climb := math.Max(0, e.Grade)
	if prefs.AvoidHills {
		cost += climb * elevationWeight
	} else {
		cost -= climb * elevationWeight
	}
	return cost
}

// https://www.cs.princeton.edu/courses/archive/spr06/cos423/Handouts/GH05.pdf

// FindPath A* with the haversine distance to goal (km) as heuristic. With negative elevation terms the
// heuristic is not admissible: a path is still returned but it may not be the cheapest one.
func (rt *RouteAlgorithm) FindPath(from, to int32, prefs datastructure.RoutePreferences) ([]int32, error) {
	if !rt.g.HasNode(from) || !rt.g.HasNode(to) {
		return nil, fmt.Errorf("%w: node %d or %d not in graph", ErrNoPathFound, from, to)
	}
	if from == to {
		return []int32{from}, nil
	}

	pq := datastructure.NewMinHeap[int32]()

	costSoFar := make(map[int32]float64)
	costSoFar[from] = 0.0

	fromNode := datastructure.PriorityQueueNode[int32]{Rank: 0, Item: from}
	pq.Insert(fromNode)

	cameFrom := make(map[int32]cameFromPair)
	cameFrom[from] = cameFromPair{datastructure.Edge{}, -1}

	visited := make(map[int32]struct{})
	goal := rt.g.GetNode(to)

	for {
		if pq.Size() == 0 {
			return nil, fmt.Errorf("%w: from %d to %d", ErrNoPathFound, from, to)
		}

		current, _ := pq.ExtractMin()
		if current.Item == to {
			path := []int32{}
			currID := current.Item
			for cameFrom[currID].NodeID != -1 {
				path = append(path, currID)
				currID = cameFrom[currID].NodeID
			}
			path = append(path, from)
			return util.ReverseG(path), nil
		}

		for _, edge := range rt.g.GetOutEdges(current.Item) {
			if _, ok := visited[edge.To]; ok {
				continue
			}

			newCost := costSoFar[current.Item] + EdgeCost(edge, prefs)
			neighbor := rt.g.GetNode(edge.To)

			oldCost, ok := costSoFar[edge.To]
			if !ok {
				priority := newCost + heuristic(neighbor, goal)
				costSoFar[edge.To] = newCost
				pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: priority, Item: edge.To})
				cameFrom[edge.To] = cameFromPair{edge, current.Item}
			} else if newCost < oldCost {
				priority := newCost + heuristic(neighbor, goal)
				costSoFar[edge.To] = newCost
				if pq.Contains(edge.To) {
					_ = pq.DecreaseKey(datastructure.PriorityQueueNode[int32]{Rank: priority, Item: edge.To})
				} else {
					pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: priority, Item: edge.To})
				}
				cameFrom[edge.To] = cameFromPair{edge, current.Item}
			}
		}

		visited[current.Item] = struct{}{}
	}
}

func heuristic(from, to datastructure.Node) float64 {
	return geo.CalculateHaversineDistance(from.Lat, from.Lon, to.Lat, to.Lon) // in km
}
