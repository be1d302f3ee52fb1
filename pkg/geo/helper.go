package geo

import (
	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

const (
	DefaultSimplifyToleranceM = 7.0
)

type span struct {
	from, to int
}

// SimplifyPolyline Douglas-Peucker over the points of line, dropping those within toleranceM meter of the
// simplified shape. Endpoints are always kept, so closed loops stay closed. toleranceM <= 0 uses the default.
//
// https://cartography-playground.gitlab.io/playgrounds/douglas-peucker-algorithm/
func SimplifyPolyline(line []datastructure.Coordinate, toleranceM float64) []datastructure.Coordinate {
	n := len(line)
	if n < 3 {
		return line
	}
	if toleranceM <= 0 {
		toleranceM = DefaultSimplifyToleranceM
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	pending := []span{{0, n - 1}}
	for len(pending) > 0 {
		sp := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		split, farthest := -1, toleranceM
		for i := sp.from + 1; i < sp.to; i++ {
			if d := offsetM(line[sp.from], line[sp.to], line[i]); d > farthest {
				split, farthest = i, d
			}
		}
		if split < 0 {
			continue
		}
		keep[split] = true
		pending = append(pending, span{sp.from, split}, span{split, sp.to})
	}

	out := make([]datastructure.Coordinate, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, line[i])
		}
	}
	return out
}

// offsetM distance in meter from p to segment (a, b); a zero length segment measures to a.
func offsetM(a, b, p datastructure.Coordinate) float64 {
	if a == b {
		return HaversineDistance(a, p) * 1000
	}
	return PointLinePerpendicularDistance(a, b, p)
}
