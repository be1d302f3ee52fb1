package routingalgorithm

import (
	"math"

	"github.com/owenkobasz/cyclone/pkg/datastructure"

	"golang.org/x/exp/rand"
)

type RandomWalkConfig struct {
	MaxAttempts int
	// WindowM accepted |length - target| in meter.
	WindowM float64
}

func DefaultRandomWalkConfig() RandomWalkConfig {
	return RandomWalkConfig{
		MaxAttempts: 1000,
		WindowM:     200,
	}
}

type walkMode int

const (
	// closed loop preferred, an open walk within the window is accepted
	walkAny walkMode = iota
	walkClosedOnly
	walkOpenOnly
)

// FindLoop random walks from start. A walk that returns to start within the window is accepted;
// a walk that dead ends or reaches the target is accepted if its length is within the window.
func (rt *RouteAlgorithm) FindLoop(rd *rand.Rand, start int32, targetKm float64) ([]int32, bool) {
	return rt.randomWalk(rd, start, targetKm, walkAny)
}

// FindClosedLoop like FindLoop but only walks that return to start are accepted.
func (rt *RouteAlgorithm) FindClosedLoop(rd *rand.Rand, start int32, targetKm float64) ([]int32, bool) {
	return rt.randomWalk(rd, start, targetKm, walkClosedOnly)
}

// FindOpenWalk simple walk from start whose length is within the window of targetKm.
func (rt *RouteAlgorithm) FindOpenWalk(rd *rand.Rand, start int32, targetKm float64) ([]int32, bool) {
	return rt.randomWalk(rd, start, targetKm, walkOpenOnly)
}

func (rt *RouteAlgorithm) randomWalk(rd *rand.Rand, start int32, targetKm float64, mode walkMode) ([]int32, bool) {
	if !rt.g.HasNode(start) || targetKm <= 0 {
		return nil, false
	}
	targetM := targetKm * 1000
	window := rt.walkCfg.WindowM
	maxAttempts := rt.walkCfg.MaxAttempts

	neighbors := make([]datastructure.Edge, 0, 8)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		path := []int32{start}
		visited := map[int32]struct{}{start: {}}
		total := 0.0
		current := start
		closed := false

		for total < targetM {
			neighbors = rt.candidateEdges(neighbors[:0], current, visited, start, len(path) >= 3 && mode != walkOpenOnly)
			if len(neighbors) == 0 {
				break
			}
			edge := neighbors[rd.Intn(len(neighbors))]
			total += edge.LengthM
			path = append(path, edge.To)
			current = edge.To

			if edge.To == start {
				closed = true
				break
			}
			visited[edge.To] = struct{}{}
		}

		if math.Abs(total-targetM) >= window {
			continue
		}
		if closed && mode != walkOpenOnly {
			return path, true
		}
		if !closed && mode != walkClosedOnly {
			return path, true
		}
	}
	return nil, false
}

// candidateEdges shortest edge to each unvisited neighbor. start counts as unvisited when allowStart.
func (rt *RouteAlgorithm) candidateEdges(buf []datastructure.Edge, current int32, visited map[int32]struct{},
	start int32, allowStart bool) []datastructure.Edge {
	for _, e := range rt.g.GetOutEdges(current) {
		if _, ok := visited[e.To]; ok && !(allowStart && e.To == start) {
			continue
		}
		dup := false
		for i := range buf {
			if buf[i].To == e.To {
				dup = true
				if e.LengthM < buf[i].LengthM {
					buf[i] = e
				}
				break
			}
		}
		if !dup {
			buf = append(buf, e)
		}
	}
	return buf
}
