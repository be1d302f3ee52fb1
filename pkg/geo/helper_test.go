package geo

import (
	"testing"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/stretchr/testify/assert"
)

func TestSimplifyPolyline(t *testing.T) {
	tests := []struct {
		name     string
		line     []datastructure.Coordinate
		expected []datastructure.Coordinate
	}{
		{
			name: "collinear points collapse to endpoints",
			line: []datastructure.Coordinate{
				{Lat: 0, Lon: 0}, {Lat: 0.001, Lon: 0}, {Lat: 0.002, Lon: 0}, {Lat: 0.003, Lon: 0},
			},
			expected: []datastructure.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0.003, Lon: 0}},
		},
		{
			name: "corner is kept",
			line: []datastructure.Coordinate{
				{Lat: 0, Lon: 0}, {Lat: 0.001, Lon: 0}, {Lat: 0.002, Lon: 0}, {Lat: 0.002, Lon: 0.001}, {Lat: 0.002, Lon: 0.002},
			},
			expected: []datastructure.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0.002, Lon: 0}, {Lat: 0.002, Lon: 0.002}},
		},
		{
			name: "closed loop keeps its corners and stays closed",
			line: []datastructure.Coordinate{
				{Lat: 0, Lon: 0}, {Lat: 0.005, Lon: 0}, {Lat: 0.01, Lon: 0}, {Lat: 0.01, Lon: 0.01}, {Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0},
			},
			expected: []datastructure.Coordinate{
				{Lat: 0, Lon: 0}, {Lat: 0.01, Lon: 0}, {Lat: 0.01, Lon: 0.01}, {Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0},
			},
		},
		{
			name:     "two points untouched",
			line:     []datastructure.Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}},
			expected: []datastructure.Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SimplifyPolyline(tt.line, 0))
		})
	}
}

func TestSimplifyPolylineTolerance(t *testing.T) {
	// middle point is ~111 m off the straight line
	line := []datastructure.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0.001, Lon: 0.005}, {Lat: 0, Lon: 0.01}}
	assert.Len(t, SimplifyPolyline(line, 50), 3)
	assert.Len(t, SimplifyPolyline(line, 200), 2)
}
