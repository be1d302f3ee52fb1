package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/engine/assembler"
	"github.com/owenkobasz/cyclone/pkg/engine/routingalgorithm"
	"github.com/owenkobasz/cyclone/pkg/engine/synthesizer"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/owenkobasz/cyclone/pkg/graphhopper"
	"github.com/owenkobasz/cyclone/pkg/server"
	"github.com/owenkobasz/cyclone/pkg/snap"
	"github.com/owenkobasz/cyclone/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

const (
	DefaultTimeout = 30 * time.Second

	elevationAttempts = 3
	// gain within this share of the requested gain is a match
	elevationFitRatio = 0.1
)

type RouteService struct {
	synth     Synthesizer
	assembler *assembler.RouteAssembler
	graph     *datastructure.Graph
	locator   NodeLocator
	routing   RoutingAlgorithm
	snapper   RoadSnapper
	seeder    WaypointSeeder
	elevation ElevationStore
	seed      uint64
	timeout   time.Duration
	log       *zap.Logger
}

type Option func(*RouteService)

// WithGraph enables the graph strategies. A nil or empty graph keeps the service geometric only.
func WithGraph(g *datastructure.Graph, opts ...routingalgorithm.Option) Option {
	return func(s *RouteService) {
		if g == nil || g.IsEmpty() {
			return
		}
		s.graph = g
		s.locator = snap.NewNodeLocator(g)
		s.routing = routingalgorithm.NewRouteAlgorithm(g, opts...)
	}
}

func WithRoadSnapper(r RoadSnapper) Option {
	return func(s *RouteService) {
		s.snapper = r
	}
}

func WithSeeder(w WaypointSeeder) Option {
	return func(s *RouteService) {
		s.seeder = w
	}
}

func WithElevationStore(e ElevationStore) Option {
	return func(s *RouteService) {
		s.elevation = e
	}
}

// WithSeed fixed rng seed for every request, 0 seeds each request from the clock.
func WithSeed(seed uint64) Option {
	return func(s *RouteService) {
		s.seed = seed
	}
}

// WithTimeout 0 disables the synthesis deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *RouteService) {
		s.timeout = d
	}
}

func NewRouteService(synth Synthesizer, asm *assembler.RouteAssembler, log *zap.Logger, opts ...Option) *RouteService {
	if log == nil {
		log = zap.NewNop()
	}
	if asm == nil {
		asm = assembler.NewRouteAssembler(assembler.DefaultCyclingSpeedKmh)
	}
	s := &RouteService{
		synth:     synth,
		assembler: asm,
		timeout:   DefaultTimeout,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RouteService) HasGraph() bool {
	return s.graph != nil
}

type routeBuilder func(ctx context.Context, rd *rand.Rand) (datastructure.RouteResult, error)

type routeOutcome struct {
	res datastructure.RouteResult
	err error
}

// GenerateRoute route of the requested shape around prefs.Start. A request carrying an end coordinate is served
// by CustomRoute.
func (s *RouteService) GenerateRoute(ctx context.Context, prefs datastructure.RoutePreferences) (datastructure.RouteResult, error) {
	if prefs.HasEnd() {
		return s.CustomRoute(ctx, prefs)
	}
	if prefs.Shape == "" {
		prefs.Shape = datastructure.ShapeLoop
	}
	meta := assembler.Meta{
		ID:       uuid.NewString(),
		Method:   s.plannedMethod(prefs),
		Shape:    prefs.Shape,
		TargetKm: prefs.TargetDistanceKm,
	}
	if err := validatePreferences(prefs, true); err != nil {
		return s.assembler.Failure(server.CodeOf(err).String(), meta), err
	}

	return s.run(ctx, meta, func(ctx context.Context, rd *rand.Rand) (datastructure.RouteResult, error) {
		return withElevationGoal(prefs, func() (datastructure.RouteResult, error) {
			return s.generate(ctx, rd, prefs, meta.ID)
		})
	})
}

func (s *RouteService) generate(ctx context.Context, rd *rand.Rand, prefs datastructure.RoutePreferences,
	id string) (datastructure.RouteResult, error) {
	switch prefs.Strategy {
	case datastructure.StrategyGraph:
		if !s.HasGraph() {
			return datastructure.RouteResult{}, server.NewErrorf(server.ErrGraphUnavailable,
				"graph strategy requested but no road graph is loaded")
		}
		return s.graphRoute(rd, prefs, id)
	case datastructure.StrategyAISeeded:
		return s.seededRoute(ctx, rd, prefs, id)
	case datastructure.StrategyGeometric:
		return s.geometricRoute(ctx, rd, prefs, nil, datastructure.MethodGeometric, id)
	default:
		if s.HasGraph() {
			res, err := s.graphRoute(rd, prefs, id)
			if err == nil {
				return res, nil
			}
			s.log.Info("graph synthesis failed, falling back to geometric",
				zap.String("route_id", id), zap.Error(err))
		}
		return s.geometricRoute(ctx, rd, prefs, nil, datastructure.MethodGeometric, id)
	}
}

func (s *RouteService) plannedMethod(prefs datastructure.RoutePreferences) datastructure.RoutingMethod {
	switch {
	case prefs.HasEnd() && s.HasGraph() && prefs.Strategy != datastructure.StrategyGeometric:
		return datastructure.MethodGraphAStar
	case prefs.HasEnd():
		return datastructure.MethodGeometric
	case prefs.Strategy == datastructure.StrategyAISeeded:
		return datastructure.MethodAISeeded
	case prefs.Strategy == datastructure.StrategyGraph,
		prefs.Strategy == "" && s.HasGraph():
		return datastructure.MethodRandomWalk
	default:
		return datastructure.MethodGeometric
	}
}

// seededRoute seeding failures only cost the seeds, the route is then synthesized geometrically.
func (s *RouteService) seededRoute(ctx context.Context, rd *rand.Rand, prefs datastructure.RoutePreferences,
	id string) (datastructure.RouteResult, error) {
	var seeds []datastructure.Coordinate
	if s.seeder == nil {
		s.log.Warn("ai seeding requested but no seeder is configured", zap.String("route_id", id))
	} else {
		var err error
		seeds, err = s.seeder.SeedWaypoints(ctx, prefs)
		if err != nil {
			s.log.Warn("ai seeding failed, continuing without seeds", zap.String("route_id", id), zap.Error(err))
			seeds = nil
		}
	}

	method := datastructure.MethodAISeeded
	if len(seeds) == 0 {
		method = datastructure.MethodGeometric
	}
	return s.geometricRoute(ctx, rd, prefs, seeds, method, id)
}

func (s *RouteService) geometricRoute(ctx context.Context, rd *rand.Rand, prefs datastructure.RoutePreferences,
	seeds []datastructure.Coordinate, method datastructure.RoutingMethod, id string) (datastructure.RouteResult, error) {
	outcome, err := s.synth.Synthesize(rd, synthesizer.ParamsFromPreferences(prefs, seeds))
	if err != nil {
		if errors.Is(err, synthesizer.ErrInvalidParams) {
			return datastructure.RouteResult{}, server.WrapErrorf(err, server.ErrInvalidInput, "invalid route parameters")
		}
		return datastructure.RouteResult{}, server.WrapErrorf(err, server.ErrNoCandidateFound,
			"could not place waypoints for a %.1f km %s", prefs.TargetDistanceKm, prefs.Shape)
	}
	s.log.Debug("waypoints synthesized",
		zap.String("route_id", id),
		zap.Stringer("state", outcome.State),
		zap.Int("iterations", outcome.Iterations),
		zap.Int("seeds_used", outcome.SeedsUsed),
		zap.Int("waypoints", len(outcome.Waypoints)),
	)

	points, snapped := s.snapWaypoints(ctx, outcome.Waypoints, prefs, id)
	meta := assembler.Meta{
		ID:       id,
		Method:   method,
		Shape:    prefs.Shape,
		TargetKm: prefs.TargetDistanceKm,
	}
	if snapped {
		if method == datastructure.MethodGeometric {
			meta.Method = datastructure.MethodRoadSnapped
		}
		meta.Reference = outcome.Waypoints
	}
	return s.assembler.FromWaypoints(points, meta), nil
}

// snapWaypoints reports whether the points follow roads. Unsnapped points get elevations from the cache.
func (s *RouteService) snapWaypoints(ctx context.Context, waypoints []datastructure.Coordinate,
	prefs datastructure.RoutePreferences, id string) ([]datastructure.RoutePoint, bool) {
	if s.snapper != nil {
		points, err := s.snapper.SnapRoute(ctx, waypoints, graphhopper.PreferencesFrom(prefs))
		if err == nil && len(points) > 1 {
			s.recordElevation(points, id)
			return points, true
		}
		s.log.Warn("road snapping failed, using raw waypoints", zap.String("route_id", id), zap.Error(err))
	}
	return s.fillElevation(datastructure.RoutePointsFromCoordinates(waypoints), id), false
}

func (s *RouteService) recordElevation(points []datastructure.RoutePoint, id string) {
	if s.elevation == nil {
		return
	}
	if err := s.elevation.Record(points); err != nil {
		s.log.Warn("elevation cache write failed", zap.String("route_id", id), zap.Error(err))
	}
}

func (s *RouteService) fillElevation(points []datastructure.RoutePoint, id string) []datastructure.RoutePoint {
	if s.elevation == nil {
		return points
	}
	filled, err := s.elevation.Fill(points)
	if err != nil {
		s.log.Warn("elevation cache read failed", zap.String("route_id", id), zap.Error(err))
		return points
	}
	return filled
}

func (s *RouteService) graphRoute(rd *rand.Rand, prefs datastructure.RoutePreferences, id string) (datastructure.RouteResult, error) {
	start, err := s.locator.Locate(prefs.Start)
	if err != nil {
		return datastructure.RouteResult{}, server.WrapErrorf(err, server.ErrGraphUnavailable, "no road node near the start")
	}

	var (
		path []int32
		ok   bool
	)
	target := prefs.TargetDistanceKm
	switch prefs.Shape {
	case datastructure.ShapeOutAndBack:
		var half []int32
		half, ok = s.routing.FindOpenWalk(rd, start, target/2)
		if ok {
			path, ok = s.mirror(half)
		}
	case datastructure.ShapeFigure8:
		first, okFirst := s.routing.FindClosedLoop(rd, start, target/2)
		second, okSecond := s.routing.FindClosedLoop(rd, start, target/2)
		ok = okFirst && okSecond
		if ok {
			path = make([]int32, 0, len(first)+len(second)-1)
			path = append(path, first...)
			path = append(path, second[1:]...)
		}
	default:
		path, ok = s.routing.FindClosedLoop(rd, start, target)
	}
	if ok && prefs.Shape != datastructure.ShapeOutAndBack && path[0] != path[len(path)-1] {
		ok = false
	}
	if !ok {
		return datastructure.RouteResult{}, server.WrapErrorf(routingalgorithm.ErrNoPathFound, server.ErrNoPathFound,
			"no %.1f km %s found on the road graph", target, prefs.Shape)
	}

	s.log.Debug("random walk found", zap.String("route_id", id), zap.Int("nodes", len(path)))
	return s.assembler.FromPath(s.graph, path, assembler.Meta{
		ID:       id,
		Method:   datastructure.MethodRandomWalk,
		Shape:    prefs.Shape,
		TargetKm: target,
	}), nil
}

// mirror half followed by its reverse. Fails when a road of half cannot be ridden backwards.
func (s *RouteService) mirror(half []int32) ([]int32, bool) {
	for i := len(half) - 1; i > 0; i-- {
		if _, ok := s.graph.EdgeBetween(half[i], half[i-1]); !ok {
			return nil, false
		}
	}
	back := util.ReverseG(half)
	path := make([]int32, 0, 2*len(half)-1)
	path = append(path, half...)
	path = append(path, back[1:]...)
	return path, true
}

// CustomRoute point-to-point route from prefs.Start to prefs.End. TargetDistanceKm is optional here.
func (s *RouteService) CustomRoute(ctx context.Context, prefs datastructure.RoutePreferences) (datastructure.RouteResult, error) {
	meta := assembler.Meta{
		ID:       uuid.NewString(),
		Method:   s.plannedMethod(prefs),
		Shape:    prefs.Shape,
		TargetKm: prefs.TargetDistanceKm,
	}
	if !prefs.HasEnd() {
		err := server.NewErrorf(server.ErrInvalidInput, "end coordinate is required for a custom route")
		return s.assembler.Failure(server.CodeOf(err).String(), meta), err
	}
	if err := validatePreferences(prefs, false); err != nil {
		return s.assembler.Failure(server.CodeOf(err).String(), meta), err
	}

	return s.run(ctx, meta, func(ctx context.Context, _ *rand.Rand) (datastructure.RouteResult, error) {
		switch {
		case prefs.Strategy == datastructure.StrategyGraph && !s.HasGraph():
			return datastructure.RouteResult{}, server.NewErrorf(server.ErrGraphUnavailable,
				"graph strategy requested but no road graph is loaded")
		case s.HasGraph() && prefs.Strategy != datastructure.StrategyGeometric:
			res, err := s.pointToPoint(prefs, meta.ID)
			if err == nil || prefs.Strategy == datastructure.StrategyGraph {
				return res, err
			}
			s.log.Info("graph point-to-point failed, falling back to geometric detour",
				zap.String("route_id", meta.ID), zap.Error(err))
		}
		return s.detourRoute(ctx, prefs, meta.ID), nil
	})
}

// pointToPoint with a target: target-distance DFS, then a via node, then the plain weighted A*.
func (s *RouteService) pointToPoint(prefs datastructure.RoutePreferences, id string) (datastructure.RouteResult, error) {
	start, err := s.locator.Locate(prefs.Start)
	if err != nil {
		return datastructure.RouteResult{}, server.WrapErrorf(err, server.ErrGraphUnavailable, "no road node near the start")
	}
	end, err := s.locator.Locate(*prefs.End)
	if err != nil {
		return datastructure.RouteResult{}, server.WrapErrorf(err, server.ErrGraphUnavailable, "no road node near the end")
	}

	meta := assembler.Meta{
		ID:       id,
		Method:   datastructure.MethodGraphAStar,
		Shape:    prefs.Shape,
		TargetKm: prefs.TargetDistanceKm,
	}

	if target := prefs.TargetDistanceKm; target > 0 {
		if paths := s.routing.FindPaths(start, end, target, prefs.Tolerance); len(paths) > 0 {
			meta.Method = datastructure.MethodGraphDFS
			s.log.Debug("target distance paths found", zap.String("route_id", id), zap.Int("paths", len(paths)))
			return s.assembler.FromPath(s.graph, s.closestToTarget(paths, target), meta), nil
		}
		if via, ok := s.routing.FindViaNode(start, end, target); ok {
			path, err := s.viaPath(start, via, end, prefs)
			if err == nil {
				return s.assembler.FromPath(s.graph, path, meta), nil
			}
			s.log.Debug("via node path failed", zap.String("route_id", id), zap.Int32("via", via), zap.Error(err))
		}
	}

	path, err := s.routing.FindPath(start, end, prefs)
	if err != nil {
		return datastructure.RouteResult{}, server.WrapErrorf(err, server.ErrNoPathFound, "no path between start and end")
	}
	return s.assembler.FromPath(s.graph, path, meta), nil
}

func (s *RouteService) viaPath(start, via, end int32, prefs datastructure.RoutePreferences) ([]int32, error) {
	first, err := s.routing.FindPath(start, via, prefs)
	if err != nil {
		return nil, err
	}
	second, err := s.routing.FindPath(via, end, prefs)
	if err != nil {
		return nil, err
	}
	path := make([]int32, 0, len(first)+len(second)-1)
	path = append(path, first...)
	return append(path, second[1:]...), nil
}

// closestToTarget first path with the smallest |length - target|.
func (s *RouteService) closestToTarget(paths [][]int32, targetKm float64) []int32 {
	best := paths[0]
	bestDiff := math.Inf(1)
	for _, p := range paths {
		diff := math.Abs(s.graph.PathLengthM(p) - targetKm*1000)
		if diff < bestDiff {
			best, bestDiff = p, diff
		}
	}
	return best
}

func (s *RouteService) detourRoute(ctx context.Context, prefs datastructure.RoutePreferences, id string) datastructure.RouteResult {
	waypoints := DetourWaypoints(prefs.Start, *prefs.End, prefs.TargetDistanceKm)
	points, snapped := s.snapWaypoints(ctx, waypoints, prefs, id)
	meta := assembler.Meta{
		ID:       id,
		Method:   datastructure.MethodGeometric,
		Shape:    prefs.Shape,
		TargetKm: prefs.TargetDistanceKm,
	}
	if snapped {
		meta.Method = datastructure.MethodRoadSnapped
		meta.Reference = waypoints
	}
	return s.assembler.FromWaypoints(points, meta)
}

// DetourWaypoints straight start-end when the direct distance already covers targetKm, otherwise a single
// detour point east of the midpoint at (targetKm - direct)/2.
func DetourWaypoints(start, end datastructure.Coordinate, targetKm float64) []datastructure.Coordinate {
	direct := geo.HaversineDistance(start, end)
	if targetKm <= 0 || direct >= targetKm {
		return []datastructure.Coordinate{start, end}
	}
	mid := geo.Interpolate(start, end, 0.5)
	detour := geo.Destination(mid, math.Pi/2, (targetKm-direct)/2)
	return []datastructure.Coordinate{start, detour, end}
}

// run executes build under the synthesis deadline with an rng owned by this call.
// Failures come back as a failure result carrying the error code.
func (s *RouteService) run(ctx context.Context, meta assembler.Meta, build routeBuilder) (datastructure.RouteResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan routeOutcome, 1)
	go func() {
		res, err := build(ctx, util.NewRand(s.seed))
		done <- routeOutcome{res: res, err: err}
	}()

	var out routeOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			out.err = server.WrapErrorf(ctx.Err(), server.ErrNoCandidateFound, "synthesis timed out")
		} else {
			out.err = server.WrapErrorf(ctx.Err(), server.ErrInternalServerError, "request cancelled")
		}
	}

	if out.err != nil {
		s.log.Warn("route synthesis failed",
			zap.String("route_id", meta.ID),
			zap.Stringer("code", server.CodeOf(out.err)),
			zap.Error(out.err),
		)
		return s.assembler.Failure(server.CodeOf(out.err).String(), meta), out.err
	}

	s.log.Info("route synthesized",
		zap.String("route_id", out.res.ID),
		zap.String("method", string(out.res.RoutingMethod)),
		zap.String("shape", string(out.res.Shape)),
		zap.Float64("distance_km", out.res.TotalDistanceKm),
		zap.Float64("target_km", out.res.TargetDistanceKm),
	)
	return out.res, nil
}

// withElevationGoal up to elevationAttempts routes, keeping the one closest to the elevation preferences.
// Without elevation data there is nothing to compare and the first route wins.
func withElevationGoal(prefs datastructure.RoutePreferences,
	build func() (datastructure.RouteResult, error)) (datastructure.RouteResult, error) {
	if prefs.TargetElevationGainM == nil && prefs.MaxElevationGainM == nil {
		return build()
	}

	var (
		best    datastructure.RouteResult
		bestFit = math.Inf(1)
		found   bool
		lastErr error
	)
	for attempt := 0; attempt < elevationAttempts; attempt++ {
		res, err := build()
		if err != nil {
			switch server.CodeOf(err) {
			case server.ErrNoCandidateFound, server.ErrNoPathFound:
				lastErr = err
				continue
			}
			return datastructure.RouteResult{}, err
		}
		fit := elevationFit(res, prefs)
		if !found || fit < bestFit {
			best, bestFit, found = res, fit, true
		}
		if fit == 0 || !hasElevation(res) {
			break
		}
	}
	if !found {
		return datastructure.RouteResult{}, lastErr
	}
	return best, nil
}

// elevationFit 0 when the route satisfies the elevation preferences, otherwise the excess in meter.
func elevationFit(res datastructure.RouteResult, prefs datastructure.RoutePreferences) float64 {
	fit := 0.0
	gain := res.ElevationGainM
	if maxGain := prefs.MaxElevationGainM; maxGain != nil && gain > *maxGain {
		fit += gain - *maxGain
	}
	if target := prefs.TargetElevationGainM; target != nil {
		if diff := math.Abs(gain - *target); diff > *target*elevationFitRatio {
			fit += diff
		}
	}
	return fit
}

func hasElevation(res datastructure.RouteResult) bool {
	return res.ElevationStats != nil || res.ElevationGainM > 0 || res.ElevationLossM > 0
}

func validatePreferences(prefs datastructure.RoutePreferences, requireTarget bool) error {
	if !geo.ValidCoordinate(prefs.Start) {
		return server.NewErrorf(server.ErrInvalidInput, "start coordinate out of range")
	}
	if prefs.HasEnd() && !geo.ValidCoordinate(*prefs.End) {
		return server.NewErrorf(server.ErrInvalidInput, "end coordinate out of range")
	}
	if math.IsNaN(prefs.TargetDistanceKm) || prefs.TargetDistanceKm < 0 ||
		(requireTarget && prefs.TargetDistanceKm == 0) {
		return server.NewErrorf(server.ErrInvalidInput, "target distance must be positive")
	}
	if prefs.Shape != "" && !prefs.Shape.Valid() {
		return server.NewErrorf(server.ErrInvalidInput, "unknown route shape %q", prefs.Shape)
	}
	if prefs.Strategy != "" && !prefs.Strategy.Valid() {
		return server.NewErrorf(server.ErrInvalidInput, "unknown strategy %q", prefs.Strategy)
	}
	if prefs.Surface != "" && !prefs.Surface.Valid() {
		return server.NewErrorf(server.ErrInvalidInput, "unknown surface %q", prefs.Surface)
	}
	if prefs.Tolerance < 0 || prefs.Tolerance > 1 {
		return server.NewErrorf(server.ErrInvalidInput, "tolerance must be in (0, 1]")
	}
	if prefs.MinSegmentKm > 0 && prefs.MaxSegmentKm > 0 && prefs.MinSegmentKm > prefs.MaxSegmentKm {
		return server.NewErrorf(server.ErrInvalidInput, "min segment %.2f km exceeds max segment %.2f km",
			prefs.MinSegmentKm, prefs.MaxSegmentKm)
	}
	return nil
}
