package snap

import (
	"testing"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridGraph(n int, spacing float64) *datastructure.Graph {
	b := datastructure.NewGraphBuilder()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			b.AddNode(int64(r*n+c), 39.9+float64(r)*spacing, -75.2+float64(c)*spacing)
		}
	}
	return b.Freeze()
}

func TestLocate(t *testing.T) {
	g := gridGraph(20, 0.005)
	nl := NewNodeLocator(g)
	assert.Equal(t, 400, nl.Size())

	tests := []struct {
		name     string
		query    datastructure.Coordinate
		expected int32
	}{
		{"exact node", datastructure.NewCoordinate(39.9, -75.2), 0},
		{"near interior node", datastructure.NewCoordinate(39.9+5*0.005+0.001, -75.2+7*0.005-0.001), 107},
		{"outside the grid", datastructure.NewCoordinate(39.7, -75.4), 0},
		{"far corner", datastructure.NewCoordinate(40.5, -74.0), 399},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := nl.Locate(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestLocateEmptyGraph(t *testing.T) {
	nl := NewNodeLocator(datastructure.NewGraph(nil, nil))
	_, err := nl.Locate(datastructure.NewCoordinate(0, 0))
	assert.ErrorIs(t, err, ErrGraphUnavailable)

	_, err = nl.LocateWithin(datastructure.NewCoordinate(0, 0), 1)
	assert.ErrorIs(t, err, ErrGraphUnavailable)
}

func TestLocateWithin(t *testing.T) {
	g := gridGraph(20, 0.005)
	nl := NewNodeLocator(g)

	ids, err := nl.LocateWithin(datastructure.NewCoordinate(39.9+10*0.005, -75.2+10*0.005), 0.3)
	require.NoError(t, err)
	assert.Equal(t, []int32{210}, ids)

	ids, err = nl.LocateWithin(datastructure.NewCoordinate(39.9+10*0.005, -75.2+10*0.005), 0.6)
	require.NoError(t, err)
	require.Len(t, ids, 9)
	assert.Equal(t, int32(210), ids[0])

	_, err = nl.LocateWithin(datastructure.NewCoordinate(45, -70), 0.5)
	assert.ErrorIs(t, err, ErrNoNodeNearby)
}
