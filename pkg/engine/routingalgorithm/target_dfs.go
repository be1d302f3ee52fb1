package routingalgorithm

import (
	"fmt"
	"math"

	"github.com/owenkobasz/cyclone/pkg/util"
)

type DFSConfig struct {
	MaxDepth  int
	MaxRoutes int
	Tolerance float64
}

func DefaultDFSConfig() DFSConfig {
	return DFSConfig{
		MaxDepth:  40,
		MaxRoutes: 10,
		Tolerance: 0.2,
	}
}

// arenaEntry one step of a partial path. parent indexes the arena, -1 for the root.
type arenaEntry struct {
	node    int32
	parent  int32
	lengthM float64
	depth   int
}

type pathArena struct {
	entries []arenaEntry
}

func (a *pathArena) push(e arenaEntry) int32 {
	a.entries = append(a.entries, e)
	return int32(len(a.entries) - 1)
}

func (a *pathArena) contains(idx int32, node int32) bool {
	for idx != -1 {
		if a.entries[idx].node == node {
			return true
		}
		idx = a.entries[idx].parent
	}
	return false
}

func (a *pathArena) path(idx int32) []int32 {
	path := make([]int32, 0, a.entries[idx].depth+1)
	for idx != -1 {
		path = append(path, a.entries[idx].node)
		idx = a.entries[idx].parent
	}
	return util.ReverseG(path)
}

// FindPaths simple paths from start to end whose length is within tolerance*target of targetKm.
// Partial paths longer than target*(1+tolerance) are pruned, branches deeper than MaxDepth edges are cut and
// the search stops after MaxRoutes paths. tolerance <= 0 uses the configured default.
func (rt *RouteAlgorithm) FindPaths(start, end int32, targetKm, tolerance float64) [][]int32 {
	cfg := rt.dfsCfg
	if tolerance <= 0 {
		tolerance = cfg.Tolerance
	}
	routes := make([][]int32, 0)
	if !rt.g.HasNode(start) || !rt.g.HasNode(end) || targetKm <= 0 {
		return routes
	}

	targetM := targetKm * 1000
	maxLengthM := targetM * (1 + tolerance)

	arena := &pathArena{entries: make([]arenaEntry, 0, 256)}
	stack := []int32{arena.push(arenaEntry{node: start, parent: -1})}

	for len(stack) > 0 && len(routes) < cfg.MaxRoutes {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		entry := arena.entries[idx]

		if entry.depth > cfg.MaxDepth {
			continue
		}

		if entry.node == end && entry.depth > 0 {
			if math.Abs(entry.lengthM-targetM) < tolerance*targetM {
				path := arena.path(idx)
				assertSimplePath(path)
				routes = append(routes, path)
			}
			// end cannot be revisited by a simple path
			continue
		}

		edges := rt.g.GetOutEdges(entry.node)
		// reverse push so neighbors are expanded in adjacency order
		for i := len(edges) - 1; i >= 0; i-- {
			edge := edges[i]
			if arena.contains(idx, edge.To) {
				continue
			}
			if entry.lengthM+edge.LengthM > maxLengthM {
				continue
			}
			stack = append(stack, arena.push(arenaEntry{
				node:    edge.To,
				parent:  idx,
				lengthM: entry.lengthM + edge.LengthM,
				depth:   entry.depth + 1,
			}))
		}
	}
	return routes
}

func assertSimplePath(path []int32) {
	seen := make(map[int32]struct{}, len(path))
	for _, n := range path {
		if _, ok := seen[n]; ok {
			panic(fmt.Sprintf("routingalgorithm: node %d repeated in simple path %v", n, path))
		}
		seen[n] = struct{}{}
	}
}
