package service

import (
	"context"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/engine/synthesizer"
	"github.com/owenkobasz/cyclone/pkg/graphhopper"

	"golang.org/x/exp/rand"
)

type Synthesizer interface {
	Synthesize(rd *rand.Rand, p synthesizer.Params) (synthesizer.Outcome, error)
}

type NodeLocator interface {
	Locate(c datastructure.Coordinate) (int32, error)
}

type RoutingAlgorithm interface {
	FindPath(from, to int32, prefs datastructure.RoutePreferences) ([]int32, error)
	FindPaths(start, end int32, targetKm, tolerance float64) [][]int32
	FindViaNode(start, end int32, targetKm float64) (int32, bool)

	FindClosedLoop(rd *rand.Rand, start int32, targetKm float64) ([]int32, bool)
	FindOpenWalk(rd *rand.Rand, start int32, targetKm float64) ([]int32, bool)
}

// RoadSnapper turns raw waypoints into a road following polyline.
type RoadSnapper interface {
	SnapRoute(ctx context.Context, waypoints []datastructure.Coordinate, hints graphhopper.Preferences) ([]datastructure.RoutePoint, error)
}

type WaypointSeeder interface {
	SeedWaypoints(ctx context.Context, prefs datastructure.RoutePreferences) ([]datastructure.Coordinate, error)
}

type ElevationStore interface {
	Record(points []datastructure.RoutePoint) error
	Fill(points []datastructure.RoutePoint) ([]datastructure.RoutePoint, error)
}
