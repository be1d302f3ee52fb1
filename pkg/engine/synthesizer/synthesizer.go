package synthesizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/engine/sampler"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/owenkobasz/cyclone/pkg/util"

	"golang.org/x/exp/rand"
)

var (
	ErrInvalidParams = errors.New("invalid synthesis parameters")
)

type Config struct {
	// GrowthThreshold growth continues while accumulated < target*GrowthThreshold.
	GrowthThreshold float64
	// ClosureTolerance |estimate-target| <= target*ClosureTolerance closes with Success.
	ClosureTolerance float64
	// OvershootFactor estimate > target*OvershootFactor closes with OvershootAccepted.
	OvershootFactor float64
}

func DefaultConfig() Config {
	return Config{
		GrowthThreshold:  0.7,
		ClosureTolerance: 0.1,
		OvershootFactor:  1.3,
	}
}

type Params struct {
	Start        datastructure.Coordinate
	TargetKm     float64
	Shape        datastructure.RouteShape
	MinSegmentKm float64
	MaxSegmentKm float64
	// Tolerance closure tolerance of this request, 0 uses Config.ClosureTolerance.
	Tolerance float64
	// Seeds extra candidates scored alongside the random ones, each used at most once.
	Seeds []datastructure.Coordinate
}

// ParamsFromPreferences unset segment bounds are derived from the target distance.
func ParamsFromPreferences(prefs datastructure.RoutePreferences, seeds []datastructure.Coordinate) Params {
	minSeg, maxSeg := prefs.MinSegmentKm, prefs.MaxSegmentKm
	if minSeg <= 0 || maxSeg <= 0 {
		autoMin, autoMax := sampler.AutoSegments(prefs.TargetDistanceKm)
		if minSeg <= 0 {
			minSeg = autoMin
		}
		if maxSeg <= 0 {
			maxSeg = autoMax
		}
	}
	if minSeg > maxSeg {
		minSeg = maxSeg
	}
	return Params{
		Start:        prefs.Start,
		TargetKm:     prefs.TargetDistanceKm,
		Shape:        prefs.Shape,
		MinSegmentKm: minSeg,
		MaxSegmentKm: maxSeg,
		Tolerance:    prefs.Tolerance,
		Seeds:        seeds,
	}
}

func (p Params) validate() error {
	if p.TargetKm <= 0 || math.IsNaN(p.TargetKm) {
		return fmt.Errorf("%w: target distance must be positive", ErrInvalidParams)
	}
	if p.MinSegmentKm <= 0 || p.MaxSegmentKm < p.MinSegmentKm {
		return fmt.Errorf("%w: segment bounds [%v, %v]", ErrInvalidParams, p.MinSegmentKm, p.MaxSegmentKm)
	}
	if !geo.ValidCoordinate(p.Start) {
		return fmt.Errorf("%w: start coordinate out of range", ErrInvalidParams)
	}
	if p.Tolerance < 0 || p.Tolerance > 1 || math.IsNaN(p.Tolerance) {
		return fmt.Errorf("%w: tolerance %v", ErrInvalidParams, p.Tolerance)
	}
	return nil
}

type Outcome struct {
	State      State
	Waypoints  []datastructure.Coordinate
	Iterations int
	SeedsUsed  int
}

type WaypointSampler interface {
	Next(rd *rand.Rand, req sampler.Request) (sampler.Candidate, error)
}

// LoopSynthesizer grows a waypoint sequence greedily from the start until it can close on the target distance.
type LoopSynthesizer struct {
	cfg     Config
	sampler WaypointSampler
}

func NewLoopSynthesizer(cfg Config, s WaypointSampler) *LoopSynthesizer {
	def := DefaultConfig()
	if cfg.GrowthThreshold <= 0 {
		cfg.GrowthThreshold = def.GrowthThreshold
	}
	if cfg.ClosureTolerance <= 0 {
		cfg.ClosureTolerance = def.ClosureTolerance
	}
	if cfg.OvershootFactor <= 0 {
		cfg.OvershootFactor = def.OvershootFactor
	}
	if s == nil {
		s = sampler.NewCandidateSampler(sampler.DefaultConfig())
	}
	return &LoopSynthesizer{cfg: cfg, sampler: s}
}

func (ls *LoopSynthesizer) closureTolerance(p Params) float64 {
	if p.Tolerance > 0 {
		return p.Tolerance
	}
	return ls.cfg.ClosureTolerance
}

// MaxIterations growth bound for a closed loop of targetKm.
func (ls *LoopSynthesizer) MaxIterations(targetKm, minSegmentKm float64) int {
	return util.CeilDiv(targetKm*ls.cfg.GrowthThreshold, minSegmentKm)
}

// Synthesize rd is owned by the caller for the duration of the call.
// An Aborted outcome carries no waypoints and an error wrapping sampler.ErrNoCandidateFound.
func (ls *LoopSynthesizer) Synthesize(rd *rand.Rand, p Params) (Outcome, error) {
	if err := p.validate(); err != nil {
		return Outcome{State: Aborted}, err
	}
	pool := newSeedPool(p.Seeds)

	switch p.Shape {
	case datastructure.ShapeOutAndBack:
		return ls.outAndBack(rd, p, pool)
	case datastructure.ShapeFigure8:
		return ls.figure8(rd, p, pool)
	case datastructure.ShapeLoop, "":
		return ls.closedLoop(rd, p.Start, p.TargetKm, p, pool)
	default:
		return Outcome{State: Aborted}, fmt.Errorf("%w: unknown shape %q", ErrInvalidParams, p.Shape)
	}
}

type walker struct {
	waypoints   []datastructure.Coordinate
	visited     []datastructure.Coordinate
	current     datastructure.Coordinate
	accumulated float64
	heading     float64
	hasHeading  bool
	iterations  int
}

func newWalker(start datastructure.Coordinate) *walker {
	return &walker{
		waypoints: []datastructure.Coordinate{start},
		visited:   []datastructure.Coordinate{start},
		current:   start,
	}
}

func (w *walker) step(rd *rand.Rand, s WaypointSampler, remainingKm float64, p Params,
	pool *seedPool) (sampler.Candidate, error) {
	seeds, index := pool.eligible(w.current, p.MinSegmentKm)
	c, err := s.Next(rd, sampler.Request{
		Current:      w.current,
		RemainingKm:  remainingKm,
		Heading:      w.heading,
		HasHeading:   w.hasHeading,
		Visited:      w.visited,
		MinSegmentKm: p.MinSegmentKm,
		MaxSegmentKm: p.MaxSegmentKm,
		Seeds:        seeds,
	})
	if err != nil {
		return sampler.Candidate{}, err
	}
	if c.IsSeed() {
		pool.consume(index[c.SeedIndex])
	}
	w.iterations++
	return c, nil
}

func (w *walker) advance(point datastructure.Coordinate, bearing float64) {
	w.accumulated += geo.HaversineDistance(w.current, point)
	w.waypoints = append(w.waypoints, point)
	w.visited = append(w.visited, point)
	w.current = point
	w.heading = bearing
	w.hasHeading = true
}

func (ls *LoopSynthesizer) closedLoop(rd *rand.Rand, start datastructure.Coordinate, targetKm float64, p Params,
	pool *seedPool) (Outcome, error) {
	maxIter := ls.MaxIterations(targetKm, p.MinSegmentKm)
	growthLimit := targetKm * ls.cfg.GrowthThreshold
	tolerance := ls.closureTolerance(p)
	w := newWalker(start)

	state := Growing
	for state == Growing {
		if w.accumulated >= growthLimit || w.iterations >= maxIter {
			state = Closing
			break
		}

		c, err := w.step(rd, ls.sampler, targetKm-w.accumulated, p, pool)
		if err != nil {
			return Outcome{State: Aborted, Iterations: w.iterations},
				fmt.Errorf("loop growth aborted after %d iterations: %w", w.iterations, err)
		}
		w.advance(c.Point, c.Bearing)

		estimate := w.accumulated + geo.HaversineDistance(w.current, start)
		if math.Abs(estimate-targetKm) <= targetKm*tolerance {
			state = Success
		} else if estimate > targetKm*ls.cfg.OvershootFactor {
			state = OvershootAccepted
		}
	}

	if state == Closing {
		state = Success
	}
	w.waypoints = append(w.waypoints, start)

	return Outcome{
		State:      state,
		Waypoints:  w.waypoints,
		Iterations: w.iterations,
		SeedsUsed:  pool.used,
	}, nil
}

func (ls *LoopSynthesizer) outAndBack(rd *rand.Rand, p Params, pool *seedPool) (Outcome, error) {
	half := p.TargetKm / 2
	maxIter := util.CeilDiv(half, p.MinSegmentKm) + 1
	w := newWalker(p.Start)

	for w.accumulated < half && w.iterations < maxIter {
		c, err := w.step(rd, ls.sampler, half-w.accumulated, p, pool)
		if err != nil {
			return Outcome{State: Aborted, Iterations: w.iterations},
				fmt.Errorf("outbound growth aborted after %d iterations: %w", w.iterations, err)
		}

		seg := geo.HaversineDistance(w.current, c.Point)
		if w.accumulated+seg > half {
			ratio := (half - w.accumulated) / seg
			turnaround := geo.Interpolate(w.current, c.Point, ratio)
			w.waypoints = append(w.waypoints, turnaround)
			w.accumulated = half
			break
		}
		w.advance(c.Point, c.Bearing)
	}

	outbound := w.waypoints
	n := len(outbound)
	waypoints := make([]datastructure.Coordinate, 0, 2*n-1)
	waypoints = append(waypoints, outbound...)
	waypoints = append(waypoints, util.ReverseG(outbound[:n-1])...)

	return Outcome{
		State:      Success,
		Waypoints:  waypoints,
		Iterations: w.iterations,
		SeedsUsed:  pool.used,
	}, nil
}

func (ls *LoopSynthesizer) figure8(rd *rand.Rand, p Params, pool *seedPool) (Outcome, error) {
	lobeKm := p.TargetKm / 2

	// two independent lobes anchored at start, only the seed pool is shared
	first, err := ls.closedLoop(rd, p.Start, lobeKm, p, pool)
	if err != nil {
		return Outcome{State: Aborted, Iterations: first.Iterations}, fmt.Errorf("first lobe: %w", err)
	}

	second, err := ls.closedLoop(rd, p.Start, lobeKm, p, pool)
	if err != nil {
		return Outcome{State: Aborted, Iterations: first.Iterations + second.Iterations},
			fmt.Errorf("second lobe: %w", err)
	}

	waypoints := make([]datastructure.Coordinate, 0, len(first.Waypoints)+len(second.Waypoints))
	waypoints = append(waypoints, first.Waypoints...)
	waypoints = append(waypoints, second.Waypoints[1:]...)
	if waypoints[len(waypoints)-1] != p.Start {
		waypoints = append(waypoints, p.Start)
	}

	state := Success
	if first.State == OvershootAccepted || second.State == OvershootAccepted {
		state = OvershootAccepted
	}
	return Outcome{
		State:      state,
		Waypoints:  waypoints,
		Iterations: first.Iterations + second.Iterations,
		SeedsUsed:  pool.used,
	}, nil
}
