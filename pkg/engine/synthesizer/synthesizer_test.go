package synthesizer

import (
	"math"
	"testing"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/engine/sampler"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/owenkobasz/cyclone/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

var philly = datastructure.NewCoordinate(39.9526, -75.1652)

func newTestSynthesizer() *LoopSynthesizer {
	return NewLoopSynthesizer(DefaultConfig(), sampler.NewCandidateSampler(sampler.DefaultConfig()))
}

func loopParams(target float64, shape datastructure.RouteShape) Params {
	return Params{
		Start:        philly,
		TargetKm:     target,
		Shape:        shape,
		MinSegmentKm: 0.5,
		MaxSegmentKm: 5,
	}
}

func TestLoopClosure(t *testing.T) {
	ls := newTestSynthesizer()
	for seed := uint64(1); seed <= 30; seed++ {
		out, err := ls.Synthesize(util.NewRand(seed), loopParams(12, datastructure.ShapeLoop))
		require.NoError(t, err)
		require.True(t, out.State.Succeeded())
		require.GreaterOrEqual(t, len(out.Waypoints), 3)
		assert.Equal(t, out.Waypoints[0], out.Waypoints[len(out.Waypoints)-1])
	}
}

// Scenario A: 20 km loop from Philadelphia City Hall. Every run closes on start; Success lands in [14, 26] km.
// An accepted overshoot is > 26 km by definition, so the band is checked over all runs as a share.
func TestLoopPhiladelphia20Km(t *testing.T) {
	ls := newTestSynthesizer()
	const runs = 1000
	inBand := 0
	for seed := uint64(1); seed <= runs; seed++ {
		out, err := ls.Synthesize(util.NewRand(seed), loopParams(20, datastructure.ShapeLoop))
		require.NoError(t, err)
		require.NotEqual(t, Aborted, out.State)

		wps := out.Waypoints
		assert.Equal(t, philly, wps[0])
		assert.Equal(t, wps[0], wps[len(wps)-1])

		total := geo.PathLength(wps)
		if total >= 14.0-1e-9 && total <= 26.0 {
			inBand++
		}
		switch out.State {
		case Success:
			assert.GreaterOrEqual(t, total, 14.0-1e-9, "seed %d", seed)
			assert.LessOrEqual(t, total, 26.0, "seed %d", seed)
		case OvershootAccepted:
			assert.Greater(t, total, 26.0, "seed %d", seed)
		}
	}
	assert.GreaterOrEqual(t, float64(inBand)/runs, 0.8, "share of 20 km loops within [14, 26] km")
}

func TestLoopSuccessWithinBand(t *testing.T) {
	ls := newTestSynthesizer()
	for _, target := range []float64{3, 8, 25, 60} {
		for seed := uint64(1); seed <= 20; seed++ {
			out, err := ls.Synthesize(util.NewRand(seed), loopParams(target, datastructure.ShapeLoop))
			require.NoError(t, err)
			if out.State != Success {
				continue
			}
			total := geo.PathLength(out.Waypoints)
			assert.LessOrEqual(t, math.Abs(total-target), target*0.3+1e-9, "target %v seed %d", target, seed)
		}
	}
}

func TestLoopIterationsBounded(t *testing.T) {
	ls := newTestSynthesizer()
	for seed := uint64(1); seed <= 30; seed++ {
		p := loopParams(40, datastructure.ShapeLoop)
		out, err := ls.Synthesize(util.NewRand(seed), p)
		require.NoError(t, err)
		assert.LessOrEqual(t, out.Iterations, ls.MaxIterations(p.TargetKm, p.MinSegmentKm))
	}
}

// pingPong bounces between the anchor and a point dist km north of it, never closing on its own.
type pingPong struct {
	anchor datastructure.Coordinate
	other  datastructure.Coordinate
}

func (pp pingPong) Next(rd *rand.Rand, req sampler.Request) (sampler.Candidate, error) {
	next := pp.other
	if req.Current == pp.other {
		next = pp.anchor
	}
	return sampler.Candidate{Point: next, Bearing: geo.Bearing(req.Current, next), SeedIndex: -1}, nil
}

func TestLoopIterationBoundStopsGrowth(t *testing.T) {
	stub := pingPong{anchor: philly, other: geo.Destination(philly, 0, 0.25)}
	ls := NewLoopSynthesizer(DefaultConfig(), stub)

	p := loopParams(20, datastructure.ShapeLoop)
	out, err := ls.Synthesize(util.NewRand(1), p)
	require.NoError(t, err)

	// ceil(20*0.7/0.5)
	assert.Equal(t, 28, ls.MaxIterations(20, 0.5))
	assert.Equal(t, 28, out.Iterations)
	assert.Equal(t, Success, out.State)
	assert.Equal(t, philly, out.Waypoints[len(out.Waypoints)-1])
}

type failingSampler struct{}

func (failingSampler) Next(rd *rand.Rand, req sampler.Request) (sampler.Candidate, error) {
	return sampler.Candidate{}, sampler.ErrNoCandidateFound
}

func TestAbortedCarriesNoRoute(t *testing.T) {
	ls := NewLoopSynthesizer(DefaultConfig(), failingSampler{})
	for _, shape := range []datastructure.RouteShape{
		datastructure.ShapeLoop, datastructure.ShapeOutAndBack, datastructure.ShapeFigure8,
	} {
		out, err := ls.Synthesize(util.NewRand(1), loopParams(10, shape))
		assert.ErrorIs(t, err, sampler.ErrNoCandidateFound, "shape %s", shape)
		assert.Equal(t, Aborted, out.State)
		assert.Empty(t, out.Waypoints)
	}
}

func TestOutAndBackMirror(t *testing.T) {
	ls := newTestSynthesizer()
	for seed := uint64(1); seed <= 30; seed++ {
		out, err := ls.Synthesize(util.NewRand(seed), loopParams(16, datastructure.ShapeOutAndBack))
		require.NoError(t, err)
		assert.Equal(t, Success, out.State)

		wps := out.Waypoints
		m := len(wps)
		require.Equal(t, 1, m%2)
		for i := range wps {
			assert.Equal(t, wps[i], wps[m-1-i])
		}
		assert.Equal(t, philly, wps[0])

		outbound := geo.PathLength(wps[:m/2+1])
		assert.InDelta(t, 8.0, outbound, 8.0*0.01, "seed %d", seed)
	}
}

func TestFigure8(t *testing.T) {
	ls := newTestSynthesizer()
	for seed := uint64(1); seed <= 30; seed++ {
		out, err := ls.Synthesize(util.NewRand(seed), loopParams(20, datastructure.ShapeFigure8))
		require.NoError(t, err)
		require.True(t, out.State.Succeeded())

		wps := out.Waypoints
		assert.Equal(t, philly, wps[0])
		assert.Equal(t, philly, wps[len(wps)-1])

		anchors := 0
		for i := 1; i < len(wps); i++ {
			assert.NotEqual(t, wps[i-1], wps[i], "consecutive duplicate at %d", i)
			if wps[i] == philly {
				anchors++
			}
		}
		// the shared anchor between the lobes and the final closure
		assert.Equal(t, 2, anchors)
	}
}

// recordingSampler delegates to a CandidateSampler and keeps every request.
type recordingSampler struct {
	inner    *sampler.CandidateSampler
	requests []sampler.Request
}

func (rs *recordingSampler) Next(rd *rand.Rand, req sampler.Request) (sampler.Candidate, error) {
	req.Visited = append([]datastructure.Coordinate(nil), req.Visited...)
	rs.requests = append(rs.requests, req)
	return rs.inner.Next(rd, req)
}

func TestFigure8LobesAreIndependent(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		rs := &recordingSampler{inner: sampler.NewCandidateSampler(sampler.DefaultConfig())}
		ls := NewLoopSynthesizer(DefaultConfig(), rs)

		out, err := ls.Synthesize(util.NewRand(seed), loopParams(20, datastructure.ShapeFigure8))
		require.NoError(t, err)
		require.True(t, out.State.Succeeded())

		// each lobe starts at the anchor with no heading and nothing visited but the anchor
		fresh := 0
		for _, req := range rs.requests {
			if req.HasHeading {
				continue
			}
			fresh++
			assert.Equal(t, philly, req.Current, "seed %d", seed)
			assert.Equal(t, []datastructure.Coordinate{philly}, req.Visited, "seed %d", seed)
		}
		assert.Equal(t, 2, fresh, "seed %d", seed)
	}
}

// north always steps 5 km due north.
type north struct{}

func (north) Next(rd *rand.Rand, req sampler.Request) (sampler.Candidate, error) {
	return sampler.Candidate{Point: geo.Destination(req.Current, 0, 5), Bearing: 0, SeedIndex: -1}, nil
}

func TestRequestToleranceOverridesClosure(t *testing.T) {
	ls := NewLoopSynthesizer(DefaultConfig(), north{})

	tests := []struct {
		name       string
		tolerance  float64
		iterations int
	}{
		// estimate 10 km after one step, 20 km after two
		{"config tolerance", 0, 2},
		{"wide request tolerance", 0.6, 1},
		{"tight request tolerance", 0.05, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := loopParams(20, datastructure.ShapeLoop)
			p.Tolerance = tt.tolerance
			out, err := ls.Synthesize(util.NewRand(1), p)
			require.NoError(t, err)
			assert.Equal(t, Success, out.State)
			assert.Equal(t, tt.iterations, out.Iterations)
		})
	}

	p := loopParams(20, datastructure.ShapeLoop)
	p.Tolerance = 1.5
	_, err := ls.Synthesize(util.NewRand(1), p)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestSynthesizeDeterministic(t *testing.T) {
	ls := newTestSynthesizer()
	a, err := ls.Synthesize(util.NewRand(2024), loopParams(20, datastructure.ShapeLoop))
	require.NoError(t, err)
	b, err := ls.Synthesize(util.NewRand(2024), loopParams(20, datastructure.ShapeLoop))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSeedsAreUsed(t *testing.T) {
	ls := newTestSynthesizer()
	seed := geo.Destination(philly, math.Pi/4, 2)
	p := loopParams(20, datastructure.ShapeLoop)
	p.Seeds = []datastructure.Coordinate{seed}

	out, err := ls.Synthesize(util.NewRand(8), p)
	require.NoError(t, err)
	assert.Equal(t, 1, out.SeedsUsed)
	assert.Equal(t, seed, out.Waypoints[1])
}

func TestSynthesizeInvalidParams(t *testing.T) {
	ls := newTestSynthesizer()
	tests := []struct {
		name   string
		params Params
	}{
		{"zero target", Params{Start: philly, TargetKm: 0, MinSegmentKm: 0.5, MaxSegmentKm: 5}},
		{"inverted segments", Params{Start: philly, TargetKm: 10, MinSegmentKm: 5, MaxSegmentKm: 1}},
		{"bad start", Params{Start: datastructure.NewCoordinate(95, 0), TargetKm: 10, MinSegmentKm: 0.5, MaxSegmentKm: 5}},
		{"unknown shape", Params{Start: philly, TargetKm: 10, MinSegmentKm: 0.5, MaxSegmentKm: 5, Shape: "zigzag"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ls.Synthesize(util.NewRand(1), tt.params)
			assert.ErrorIs(t, err, ErrInvalidParams)
			assert.Equal(t, Aborted, out.State)
		})
	}
}

func TestParamsFromPreferences(t *testing.T) {
	p := ParamsFromPreferences(datastructure.RoutePreferences{
		Start:            philly,
		TargetDistanceKm: 20,
		Shape:            datastructure.ShapeLoop,
	}, nil)
	assert.InDelta(t, 1.0, p.MinSegmentKm, 1e-9)
	assert.InDelta(t, 6.0, p.MaxSegmentKm, 1e-9)

	p = ParamsFromPreferences(datastructure.RoutePreferences{
		Start:            philly,
		TargetDistanceKm: 20,
		MinSegmentKm:     0.5,
		MaxSegmentKm:     5,
	}, nil)
	assert.Equal(t, 0.5, p.MinSegmentKm)
	assert.Equal(t, 5.0, p.MaxSegmentKm)
	assert.Zero(t, p.Tolerance)

	p = ParamsFromPreferences(datastructure.RoutePreferences{
		Start:            philly,
		TargetDistanceKm: 20,
		Tolerance:        0.2,
	}, nil)
	assert.Equal(t, 0.2, p.Tolerance)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "OVERSHOOT_ACCEPTED", OvershootAccepted.String())
	assert.True(t, OvershootAccepted.Succeeded())
	assert.False(t, Aborted.Succeeded())
	assert.True(t, Aborted.Terminal())
	assert.False(t, Closing.Terminal())
}
