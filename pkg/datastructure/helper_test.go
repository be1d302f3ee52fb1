package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolyline(t *testing.T) {
	path := []Coordinate{
		NewCoordinate(38.5, -120.2),
		NewCoordinate(40.7, -120.95),
		NewCoordinate(43.252, -126.453),
	}
	encoded := CreatePolyline(path)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", encoded)

	decoded, err := DecodePolyline(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i := range path {
		assert.InDelta(t, path[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, path[i].Lon, decoded[i].Lon, 1e-5)
	}
}

func TestRoutePointConversion(t *testing.T) {
	coords := []Coordinate{NewCoordinate(1, 2), NewCoordinate(3, 4)}
	points := RoutePointsFromCoordinates(coords)
	assert.Nil(t, points[0].Elevation)
	assert.Equal(t, coords, CoordinatesFromRoutePoints(points))
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, ShapeFigure8.Valid())
	assert.False(t, RouteShape("zigzag").Valid())
	assert.True(t, SurfaceAny.Valid())
	assert.False(t, Surface("ice").Valid())
	assert.True(t, StrategyAISeeded.Valid())
	assert.False(t, Strategy("").Valid())
}
