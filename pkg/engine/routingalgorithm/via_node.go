package routingalgorithm

import (
	"math"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

// FindViaNode node v minimizing |d(start,v) + d(end,v) - target| where d is the shortest length in meter,
// both searches cut off at 1.5*target. start and end are never chosen.
func (rt *RouteAlgorithm) FindViaNode(start, end int32, targetKm float64) (int32, bool) {
	if !rt.g.HasNode(start) || !rt.g.HasNode(end) || targetKm <= 0 {
		return -1, false
	}
	targetM := targetKm * 1000
	cutoff := targetM * 1.5

	distFromStart := rt.dijkstraLengths(start, cutoff)
	distFromEnd := rt.dijkstraLengths(end, cutoff)

	bestNode := int32(-1)
	bestDiff := math.Inf(1)
	for node, d1 := range distFromStart {
		if node == start || node == end {
			continue
		}
		d2, ok := distFromEnd[node]
		if !ok {
			continue
		}
		diff := math.Abs(d1 + d2 - targetM)
		if diff < bestDiff || (diff == bestDiff && node < bestNode) {
			bestDiff = diff
			bestNode = node
		}
	}
	return bestNode, bestNode != -1
}

// dijkstraLengths shortest length in meter from source to every node within cutoff.
func (rt *RouteAlgorithm) dijkstraLengths(source int32, cutoff float64) map[int32]float64 {
	dist := map[int32]float64{source: 0}
	settled := make(map[int32]struct{})

	pq := datastructure.NewMinHeap[int32]()
	pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: 0, Item: source})

	for pq.Size() > 0 {
		current, _ := pq.ExtractMin()
		settled[current.Item] = struct{}{}

		for _, edge := range rt.g.GetOutEdges(current.Item) {
			if _, ok := settled[edge.To]; ok {
				continue
			}
			newDist := current.Rank + edge.LengthM
			if newDist > cutoff {
				continue
			}
			oldDist, ok := dist[edge.To]
			if !ok {
				dist[edge.To] = newDist
				pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: newDist, Item: edge.To})
			} else if newDist < oldDist {
				dist[edge.To] = newDist
				_ = pq.DecreaseKey(datastructure.PriorityQueueNode[int32]{Rank: newDist, Item: edge.To})
			}
		}
	}
	return dist
}
