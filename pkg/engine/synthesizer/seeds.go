package synthesizer

import (
	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/geo"
)

type seedPool struct {
	seeds    []datastructure.Coordinate
	consumed []bool
	used     int
}

func newSeedPool(seeds []datastructure.Coordinate) *seedPool {
	return &seedPool{
		seeds:    seeds,
		consumed: make([]bool, len(seeds)),
	}
}

// eligible unconsumed seeds at least minKm away from current, and their index in the pool.
func (sp *seedPool) eligible(current datastructure.Coordinate, minKm float64) ([]datastructure.Coordinate, []int) {
	if sp.used == len(sp.seeds) {
		return nil, nil
	}
	seeds := make([]datastructure.Coordinate, 0, len(sp.seeds)-sp.used)
	index := make([]int, 0, len(sp.seeds)-sp.used)
	for i, s := range sp.seeds {
		if sp.consumed[i] || geo.HaversineDistance(current, s) < minKm {
			continue
		}
		seeds = append(seeds, s)
		index = append(index, i)
	}
	return seeds, index
}

func (sp *seedPool) consume(i int) {
	if !sp.consumed[i] {
		sp.consumed[i] = true
		sp.used++
	}
}
