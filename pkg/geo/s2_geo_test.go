package geo

import (
	"testing"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/stretchr/testify/assert"
)

func TestPointLinePerpendicularDistance(t *testing.T) {
	a := datastructure.NewCoordinate(0, 0)
	b := datastructure.NewCoordinate(0.002, 0)
	p := datastructure.NewCoordinate(0.001, 0.01)

	dist := PointLinePerpendicularDistance(a, b, p)
	// 0.01 degree of longitude at the equator
	assert.InDelta(t, 1111.95, dist, 1.0)

	onLine := datastructure.NewCoordinate(0.001, 0)
	assert.InDelta(t, 0, PointLinePerpendicularDistance(a, b, onLine), 1e-3)
}

func TestProjectPointToLineCoord(t *testing.T) {
	a := datastructure.NewCoordinate(0, 0)
	b := datastructure.NewCoordinate(0.002, 0)
	p := datastructure.NewCoordinate(0.001, 0.01)

	proj := ProjectPointToLineCoord(a, b, p)
	assert.InDelta(t, 0.001, proj.Lat, 1e-6)
	assert.InDelta(t, 0, proj.Lon, 1e-6)
}

func TestMaxDeviation(t *testing.T) {
	line := []datastructure.Coordinate{
		datastructure.NewCoordinate(0, 0),
		datastructure.NewCoordinate(0.01, 0),
		datastructure.NewCoordinate(0.02, 0),
	}
	points := []datastructure.Coordinate{
		datastructure.NewCoordinate(0.005, 0),
		datastructure.NewCoordinate(0.015, 0.01),
	}
	assert.InDelta(t, 1.112, MaxDeviation(points, line), 0.01)
	assert.Equal(t, 0.0, MaxDeviation(nil, line))
}
