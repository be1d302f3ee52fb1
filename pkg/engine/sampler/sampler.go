package sampler

import (
	"errors"
	"math"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/owenkobasz/cyclone/pkg/util"

	"golang.org/x/exp/rand"
)

var (
	ErrNoCandidateFound = errors.New("no valid candidate waypoint")
)

type Config struct {
	CandidateCount  int
	ContinuityBonus float64
	DispersionBonus float64
	// DispersionMinKm minimum distance from every visited waypoint to earn the dispersion bonus.
	DispersionMinKm float64
	// MaxTurnRad turns strictly below this earn the continuity bonus.
	MaxTurnRad float64
	// LongRemainingKm above this remaining distance the segment is LongFactor of it, else ShortFactor.
	LongRemainingKm float64
	LongFactor      float64
	ShortFactor     float64
}

func DefaultConfig() Config {
	return Config{
		CandidateCount:  15,
		ContinuityBonus: 0.3,
		DispersionBonus: 0.5,
		DispersionMinKm: 0.1,
		MaxTurnRad:      math.Pi / 2,
		LongRemainingKm: 10,
		LongFactor:      0.4,
		ShortFactor:     0.6,
	}
}

// Candidate a scored next waypoint. SeedIndex is -1 for randomly projected candidates.
type Candidate struct {
	Point      datastructure.Coordinate
	Bearing    float64
	DistanceKm float64
	Score      float64
	SeedIndex  int
}

func (c Candidate) IsSeed() bool {
	return c.SeedIndex >= 0
}

// Request is one greedy step. Heading is ignored unless HasHeading.
type Request struct {
	Current      datastructure.Coordinate
	RemainingKm  float64
	Heading      float64
	HasHeading   bool
	Visited      []datastructure.Coordinate
	MinSegmentKm float64
	MaxSegmentKm float64
	Seeds        []datastructure.Coordinate
}

type CandidateSampler struct {
	cfg Config
}

func NewCandidateSampler(cfg Config) *CandidateSampler {
	def := DefaultConfig()
	if cfg.CandidateCount <= 0 {
		cfg.CandidateCount = def.CandidateCount
	}
	if cfg.MaxTurnRad <= 0 {
		cfg.MaxTurnRad = def.MaxTurnRad
	}
	if cfg.LongRemainingKm <= 0 {
		cfg.LongRemainingKm = def.LongRemainingKm
	}
	if cfg.LongFactor <= 0 {
		cfg.LongFactor = def.LongFactor
	}
	if cfg.ShortFactor <= 0 {
		cfg.ShortFactor = def.ShortFactor
	}
	return &CandidateSampler{cfg: cfg}
}

func (s *CandidateSampler) Config() Config {
	return s.cfg
}

// SegmentLength step length for the remaining distance, clamped to [minKm, maxKm].
func (s *CandidateSampler) SegmentLength(remainingKm, minKm, maxKm float64) float64 {
	var seg float64
	if remainingKm > s.cfg.LongRemainingKm {
		seg = math.Min(remainingKm*s.cfg.LongFactor, maxKm)
	} else {
		seg = math.Min(remainingKm*s.cfg.ShortFactor, maxKm)
	}
	return util.Clamp(seg, minKm, maxKm)
}

// Score = 1/(1+d) plus the continuity and dispersion bonuses.
func (s *CandidateSampler) Score(current, candidate datastructure.Coordinate, bearing float64,
	heading float64, hasHeading bool, visited []datastructure.Coordinate) float64 {
	dist := geo.HaversineDistance(current, candidate)
	score := 1.0 / (1.0 + dist)

	if hasHeading && geo.AngleDifference(bearing, heading) < s.cfg.MaxTurnRad {
		score += s.cfg.ContinuityBonus
	}

	dispersed := true
	for _, v := range visited {
		if geo.HaversineDistance(candidate, v) <= s.cfg.DispersionMinKm {
			dispersed = false
			break
		}
	}
	if dispersed {
		score += s.cfg.DispersionBonus
	}
	return score
}

// Next picks the highest scoring candidate among CandidateCount random projections and the seeds.
// Ties keep the earlier candidate.
func (s *CandidateSampler) Next(rd *rand.Rand, req Request) (Candidate, error) {
	seg := s.SegmentLength(req.RemainingKm, req.MinSegmentKm, req.MaxSegmentKm)

	best := Candidate{SeedIndex: -1, Score: math.Inf(-1)}
	found := false

	consider := func(c Candidate) {
		if !geo.ValidCoordinate(c.Point) {
			return
		}
		c.Score = s.Score(req.Current, c.Point, c.Bearing, req.Heading, req.HasHeading, req.Visited)
		if c.Score > best.Score {
			best = c
			found = true
		}
	}

	for i := 0; i < s.cfg.CandidateCount; i++ {
		bearing := rd.Float64() * 2 * math.Pi
		point := geo.Destination(req.Current, bearing, seg)
		consider(Candidate{
			Point:      point,
			Bearing:    bearing,
			DistanceKm: seg,
			SeedIndex:  -1,
		})
	}

	for i, seed := range req.Seeds {
		consider(Candidate{
			Point:      seed,
			Bearing:    geo.Bearing(req.Current, seed),
			DistanceKm: geo.HaversineDistance(req.Current, seed),
			SeedIndex:  i,
		})
	}

	if !found {
		return Candidate{}, ErrNoCandidateFound
	}
	return best, nil
}

// AutoSegments derives segment bounds from the target when the caller leaves them unset.
func AutoSegments(targetKm float64) (minKm, maxKm float64) {
	segments := math.Max(4, math.Floor(targetKm/4))
	optimal := targetKm / segments
	maxKm = math.Max(3, optimal*1.5)
	minKm = math.Min(1, optimal*0.5)
	return minKm, maxKm
}
