package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/engine/assembler"
	"github.com/owenkobasz/cyclone/pkg/engine/sampler"
	"github.com/owenkobasz/cyclone/pkg/engine/synthesizer"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/owenkobasz/cyclone/pkg/graphhopper"
	"github.com/owenkobasz/cyclone/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

const gridSpacingDeg = 0.0089

var philly = datastructure.NewCoordinate(39.9526, -75.1652)

// gridGraph n x n grid, node id = row*n + col, 1 km bidirectional edges.
func gridGraph(n int) *datastructure.Graph {
	b := datastructure.NewGraphBuilder()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			b.AddNode(int64(r*n+c), float64(r)*gridSpacingDeg, float64(c)*gridSpacingDeg)
		}
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			id := int32(r*n + c)
			if c+1 < n {
				b.AddBidirectionalEdge(datastructure.Edge{From: id, To: id + 1, LengthM: 1000, Surface: "asphalt"})
			}
			if r+1 < n {
				b.AddBidirectionalEdge(datastructure.Edge{From: id, To: id + int32(n), LengthM: 1000, Surface: "asphalt"})
			}
		}
	}
	return b.Freeze()
}

func gridCoordinate(row, col int) datastructure.Coordinate {
	return datastructure.NewCoordinate(float64(row)*gridSpacingDeg, float64(col)*gridSpacingDeg)
}

type stubSnapper struct {
	err   error
	calls int
}

func (s *stubSnapper) SnapRoute(_ context.Context, waypoints []datastructure.Coordinate,
	_ graphhopper.Preferences) ([]datastructure.RoutePoint, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	points := make([]datastructure.RoutePoint, len(waypoints))
	for i, w := range waypoints {
		ele := 10 + float64(i%3)*5
		points[i] = datastructure.NewRoutePoint(w.Lat, w.Lon, &ele)
	}
	return points, nil
}

type stubSeeder struct {
	seeds []datastructure.Coordinate
	err   error
}

func (s *stubSeeder) SeedWaypoints(_ context.Context, _ datastructure.RoutePreferences) ([]datastructure.Coordinate, error) {
	return s.seeds, s.err
}

type stubElevation struct {
	recorded int
	filled   int
}

func (s *stubElevation) Record(points []datastructure.RoutePoint) error {
	s.recorded += len(points)
	return nil
}

func (s *stubElevation) Fill(points []datastructure.RoutePoint) ([]datastructure.RoutePoint, error) {
	s.filled += len(points)
	return points, nil
}

// blockingSynthesizer never returns before release is closed.
type blockingSynthesizer struct {
	release chan struct{}
}

func (b *blockingSynthesizer) Synthesize(_ *rand.Rand, _ synthesizer.Params) (synthesizer.Outcome, error) {
	<-b.release
	return synthesizer.Outcome{State: synthesizer.Aborted}, sampler.ErrNoCandidateFound
}

func newTestService(opts ...Option) *RouteService {
	synth := synthesizer.NewLoopSynthesizer(synthesizer.DefaultConfig(), sampler.NewCandidateSampler(sampler.DefaultConfig()))
	opts = append([]Option{WithSeed(7)}, opts...)
	return NewRouteService(synth, assembler.NewRouteAssembler(assembler.DefaultCyclingSpeedKmh), zap.NewNop(), opts...)
}

func loopPrefs(target float64) datastructure.RoutePreferences {
	return datastructure.RoutePreferences{
		Start:            philly,
		TargetDistanceKm: target,
		Shape:            datastructure.ShapeLoop,
		MinSegmentKm:     0.5,
		MaxSegmentKm:     5,
		AvoidHighways:    true,
	}
}

func TestGenerateGeometricLoop(t *testing.T) {
	svc := newTestService()
	res, err := svc.GenerateRoute(context.Background(), loopPrefs(20))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, datastructure.MethodGeometric, res.RoutingMethod)
	assert.Equal(t, datastructure.ShapeLoop, res.Shape)
	require.GreaterOrEqual(t, len(res.Waypoints), 3)
	assert.Equal(t, res.Waypoints[0], res.Waypoints[len(res.Waypoints)-1])
	assert.Greater(t, res.TotalDistanceKm, 0.0)
	assert.Equal(t, 20.0, res.TargetDistanceKm)
}

func TestGenerateDefaultsToLoop(t *testing.T) {
	svc := newTestService()
	prefs := loopPrefs(10)
	prefs.Shape = ""
	res, err := svc.GenerateRoute(context.Background(), prefs)
	require.NoError(t, err)
	assert.Equal(t, datastructure.ShapeLoop, res.Shape)
}

func TestGenerateRoadSnapped(t *testing.T) {
	snapper := &stubSnapper{}
	elevation := &stubElevation{}
	svc := newTestService(WithRoadSnapper(snapper), WithElevationStore(elevation))

	res, err := svc.GenerateRoute(context.Background(), loopPrefs(15))
	require.NoError(t, err)

	assert.Equal(t, 1, snapper.calls)
	assert.Equal(t, datastructure.MethodRoadSnapped, res.RoutingMethod)
	assert.Equal(t, len(res.Waypoints), elevation.recorded)
	assert.Zero(t, elevation.filled)
	assert.NotNil(t, res.ElevationStats)
}

func TestGenerateSnapFailureFallsBackToRaw(t *testing.T) {
	snapper := &stubSnapper{err: server.NewErrorf(server.ErrExternalServiceFailure, "down")}
	elevation := &stubElevation{}
	svc := newTestService(WithRoadSnapper(snapper), WithElevationStore(elevation))

	res, err := svc.GenerateRoute(context.Background(), loopPrefs(15))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, datastructure.MethodGeometric, res.RoutingMethod)
	assert.Equal(t, len(res.Waypoints), elevation.filled)
	assert.Zero(t, elevation.recorded)
}

func TestGenerateAISeeded(t *testing.T) {
	seeder := &stubSeeder{seeds: []datastructure.Coordinate{
		geo.Destination(philly, 0.5, 3),
		geo.Destination(philly, 2.5, 4),
	}}
	svc := newTestService(WithSeeder(seeder))

	prefs := loopPrefs(20)
	prefs.Strategy = datastructure.StrategyAISeeded
	res, err := svc.GenerateRoute(context.Background(), prefs)
	require.NoError(t, err)
	assert.Equal(t, datastructure.MethodAISeeded, res.RoutingMethod)
	assert.True(t, res.Success)
}

func TestGenerateAISeedingFailure(t *testing.T) {
	seeder := &stubSeeder{err: errors.New("quota exceeded")}
	svc := newTestService(WithSeeder(seeder))

	prefs := loopPrefs(20)
	prefs.Strategy = datastructure.StrategyAISeeded
	res, err := svc.GenerateRoute(context.Background(), prefs)
	require.NoError(t, err)
	assert.Equal(t, datastructure.MethodGeometric, res.RoutingMethod)
}

func TestGenerateGraphLoop(t *testing.T) {
	svc := newTestService(WithGraph(gridGraph(10)))
	require.True(t, svc.HasGraph())

	prefs := loopPrefs(4)
	prefs.Start = gridCoordinate(4, 4)
	prefs.Strategy = datastructure.StrategyGraph
	res, err := svc.GenerateRoute(context.Background(), prefs)
	require.NoError(t, err)

	assert.Equal(t, datastructure.MethodRandomWalk, res.RoutingMethod)
	assert.InDelta(t, 4.0, res.TotalDistanceKm, 0.2)
	wps := res.Waypoints
	assert.Equal(t, datastructure.NewRoutePoint(prefs.Start.Lat, prefs.Start.Lon, nil), wps[0])
	assert.Equal(t, wps[0], wps[len(wps)-1])
	assert.True(t, res.Success)
	assert.Equal(t, 4.0, res.SurfaceBreakdownKm["asphalt"])
}

func TestGenerateGraphLoopIsClosedForEverySeed(t *testing.T) {
	g := gridGraph(10)
	for seed := uint64(1); seed <= 30; seed++ {
		svc := newTestService(WithGraph(g), WithSeed(seed))

		prefs := loopPrefs(4)
		prefs.Start = gridCoordinate(4, 4)
		prefs.Strategy = datastructure.StrategyGraph
		res, err := svc.GenerateRoute(context.Background(), prefs)
		require.NoError(t, err, "seed %d", seed)

		wps := res.Waypoints
		require.Greater(t, len(wps), 3, "seed %d", seed)
		assert.Equal(t, wps[0], wps[len(wps)-1], "seed %d", seed)
		assert.InDelta(t, 4.0, res.TotalDistanceKm, 0.2, "seed %d", seed)
	}
}

func TestGenerateGraphOutAndBackIsMirrored(t *testing.T) {
	svc := newTestService(WithGraph(gridGraph(10)))

	prefs := loopPrefs(6)
	prefs.Start = gridCoordinate(5, 5)
	prefs.Shape = datastructure.ShapeOutAndBack
	prefs.Strategy = datastructure.StrategyGraph
	res, err := svc.GenerateRoute(context.Background(), prefs)
	require.NoError(t, err)

	wps := res.Waypoints
	require.Greater(t, len(wps), 2)
	for i := range wps {
		assert.Equal(t, wps[i], wps[len(wps)-1-i])
	}
	assert.InDelta(t, 6.0, res.TotalDistanceKm, 0.4)
}

func TestGenerateGraphFigure8(t *testing.T) {
	svc := newTestService(WithGraph(gridGraph(10)))

	prefs := loopPrefs(8)
	prefs.Start = gridCoordinate(5, 5)
	prefs.Shape = datastructure.ShapeFigure8
	prefs.Strategy = datastructure.StrategyGraph
	res, err := svc.GenerateRoute(context.Background(), prefs)
	require.NoError(t, err)

	wps := res.Waypoints
	start := datastructure.NewRoutePoint(prefs.Start.Lat, prefs.Start.Lon, nil)
	assert.Equal(t, start, wps[0])
	assert.Equal(t, start, wps[len(wps)-1])
	assert.InDelta(t, 8.0, res.TotalDistanceKm, 0.4)
}

func TestGenerateGraphWithoutGraph(t *testing.T) {
	svc := newTestService()
	prefs := loopPrefs(10)
	prefs.Strategy = datastructure.StrategyGraph

	res, err := svc.GenerateRoute(context.Background(), prefs)
	require.Error(t, err)
	assert.Equal(t, server.ErrGraphUnavailable, server.CodeOf(err))
	assert.False(t, res.Success)
	assert.Empty(t, res.Waypoints)
	assert.Equal(t, "GRAPH_UNAVAILABLE", res.FailureReason)
}

func TestGenerateEmptyGraphIsIgnored(t *testing.T) {
	svc := newTestService(WithGraph(datastructure.NewGraph(nil, nil)))
	assert.False(t, svc.HasGraph())
}

func TestGenerateInvalidInput(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name   string
		mutate func(p *datastructure.RoutePreferences)
	}{
		{"zero target", func(p *datastructure.RoutePreferences) { p.TargetDistanceKm = 0 }},
		{"bad start", func(p *datastructure.RoutePreferences) { p.Start.Lat = 91 }},
		{"bad shape", func(p *datastructure.RoutePreferences) { p.Shape = "spiral" }},
		{"bad strategy", func(p *datastructure.RoutePreferences) { p.Strategy = "teleport" }},
		{"bad tolerance", func(p *datastructure.RoutePreferences) { p.Tolerance = 1.5 }},
		{"segments swapped", func(p *datastructure.RoutePreferences) { p.MinSegmentKm, p.MaxSegmentKm = 4, 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := loopPrefs(10)
			tt.mutate(&prefs)
			res, err := svc.GenerateRoute(context.Background(), prefs)
			require.Error(t, err)
			assert.Equal(t, server.ErrInvalidInput, server.CodeOf(err))
			assert.False(t, res.Success)
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	synth := &blockingSynthesizer{release: make(chan struct{})}
	t.Cleanup(func() { close(synth.release) })
	svc := NewRouteService(synth, nil, zap.NewNop(), WithTimeout(20*time.Millisecond))

	res, err := svc.GenerateRoute(context.Background(), loopPrefs(10))
	require.Error(t, err)
	assert.Equal(t, server.ErrNoCandidateFound, server.CodeOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "synthesis timed out", server.MessageOf(err))
	assert.False(t, res.Success)
	assert.Equal(t, "NO_CANDIDATE_FOUND", res.FailureReason)
}

func TestCustomRouteRequiresEnd(t *testing.T) {
	svc := newTestService()
	_, err := svc.CustomRoute(context.Background(), loopPrefs(10))
	require.Error(t, err)
	assert.Equal(t, server.ErrInvalidInput, server.CodeOf(err))
}

func TestCustomRouteTargetDFS(t *testing.T) {
	svc := newTestService(WithGraph(gridGraph(10)))
	end := gridCoordinate(2, 2)
	prefs := datastructure.RoutePreferences{
		Start:            gridCoordinate(0, 0),
		End:              &end,
		TargetDistanceKm: 6,
		Tolerance:        0.2,
	}

	res, err := svc.GenerateRoute(context.Background(), prefs)
	require.NoError(t, err)
	assert.Equal(t, datastructure.MethodGraphDFS, res.RoutingMethod)
	assert.Equal(t, 6.0, res.TotalDistanceKm)
	last := res.Waypoints[len(res.Waypoints)-1]
	assert.Equal(t, end, last.Coordinate())
}

func TestCustomRouteShortestWithoutTarget(t *testing.T) {
	svc := newTestService(WithGraph(gridGraph(10)))
	end := gridCoordinate(2, 2)
	prefs := datastructure.RoutePreferences{
		Start: gridCoordinate(0, 0),
		End:   &end,
	}

	res, err := svc.CustomRoute(context.Background(), prefs)
	require.NoError(t, err)
	assert.Equal(t, datastructure.MethodGraphAStar, res.RoutingMethod)
	assert.Equal(t, 4.0, res.TotalDistanceKm)
}

func TestCustomRouteDetourWithoutGraph(t *testing.T) {
	svc := newTestService()
	end := geo.Destination(philly, 0, 3)
	prefs := datastructure.RoutePreferences{
		Start:            philly,
		End:              &end,
		TargetDistanceKm: 7,
	}

	res, err := svc.CustomRoute(context.Background(), prefs)
	require.NoError(t, err)
	assert.Equal(t, datastructure.MethodGeometric, res.RoutingMethod)
	require.Len(t, res.Waypoints, 3)
	assert.Greater(t, res.TotalDistanceKm, 3.0)
}

func TestDetourWaypoints(t *testing.T) {
	end := geo.Destination(philly, 0, 4)

	straight := DetourWaypoints(philly, end, 3)
	assert.Equal(t, []datastructure.Coordinate{philly, end}, straight)

	noTarget := DetourWaypoints(philly, end, 0)
	assert.Len(t, noTarget, 2)

	detour := DetourWaypoints(philly, end, 10)
	require.Len(t, detour, 3)
	mid := geo.Interpolate(philly, end, 0.5)
	assert.InDelta(t, 3.0, geo.HaversineDistance(mid, detour[1]), 1e-6)
	assert.Greater(t, detour[1].Lon, mid.Lon)
}

func TestWithElevationGoalPicksBestFit(t *testing.T) {
	maxGain := 150.0
	prefs := loopPrefs(10)
	prefs.MaxElevationGainM = &maxGain

	gains := []float64{300, 120, 500}
	calls := 0
	res, err := withElevationGoal(prefs, func() (datastructure.RouteResult, error) {
		gain := gains[calls]
		calls++
		return datastructure.RouteResult{ElevationGainM: gain, Success: true}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 120.0, res.ElevationGainM)
}

func TestWithElevationGoalKeepsClosest(t *testing.T) {
	targetGain := 200.0
	prefs := loopPrefs(10)
	prefs.TargetElevationGainM = &targetGain

	gains := []float64{50, 260, 90}
	calls := 0
	res, err := withElevationGoal(prefs, func() (datastructure.RouteResult, error) {
		gain := gains[calls]
		calls++
		return datastructure.RouteResult{ElevationGainM: gain}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, elevationAttempts, calls)
	assert.Equal(t, 260.0, res.ElevationGainM)
}

func TestWithElevationGoalStopsOnInvalidInput(t *testing.T) {
	maxGain := 100.0
	prefs := loopPrefs(10)
	prefs.MaxElevationGainM = &maxGain

	calls := 0
	_, err := withElevationGoal(prefs, func() (datastructure.RouteResult, error) {
		calls++
		return datastructure.RouteResult{}, server.NewErrorf(server.ErrInvalidInput, "bad")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestElevationFit(t *testing.T) {
	maxGain, targetGain := 100.0, 80.0
	tests := []struct {
		name   string
		prefs  datastructure.RoutePreferences
		gain   float64
		expect float64
	}{
		{"no goal", datastructure.RoutePreferences{}, 500, 0},
		{"under max", datastructure.RoutePreferences{MaxElevationGainM: &maxGain}, 90, 0},
		{"over max", datastructure.RoutePreferences{MaxElevationGainM: &maxGain}, 130, 30},
		{"near target", datastructure.RoutePreferences{TargetElevationGainM: &targetGain}, 85, 0},
		{"far from target", datastructure.RoutePreferences{TargetElevationGainM: &targetGain}, 40, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := elevationFit(datastructure.RouteResult{ElevationGainM: tt.gain}, tt.prefs)
			assert.InDelta(t, tt.expect, got, 1e-9)
		})
	}
}

func TestOptionsAndHealth(t *testing.T) {
	plain := newTestService()
	opts := plain.Options()
	assert.Len(t, opts.RouteTypes, 3)
	assert.Equal(t, []datastructure.Strategy{datastructure.StrategyGeometric}, opts.Strategies)
	assert.False(t, plain.Health().GraphLoaded)

	full := newTestService(WithGraph(gridGraph(3)), WithRoadSnapper(&stubSnapper{}), WithSeeder(&stubSeeder{}))
	opts = full.Options()
	assert.Contains(t, opts.Strategies, datastructure.StrategyGraph)
	assert.Contains(t, opts.Strategies, datastructure.StrategyAISeeded)
	assert.Contains(t, opts.RoutingMethods, datastructure.MethodRoadSnapped)

	h := full.Health()
	assert.True(t, h.GraphLoaded)
	assert.Equal(t, 9, h.GraphNodes)
	assert.Equal(t, 24, h.GraphEdges)
	assert.True(t, h.RoadSnapping)
	assert.False(t, h.ElevationCache)
}
