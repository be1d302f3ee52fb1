package assembler

import (
	"math"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/owenkobasz/cyclone/pkg/util"
)

// GainLoss sums of positive and negative consecutive deltas, loss reported positive.
func GainLoss(elevations []float64) (gain, loss float64) {
	for i := 1; i < len(elevations); i++ {
		delta := elevations[i] - elevations[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	return gain, loss
}

func gradeGainLoss(edges []datastructure.Edge) (gain, loss float64) {
	for _, e := range edges {
		delta := e.Grade * e.LengthM
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	return gain, loss
}

// ElevationStatistics nil when there is no elevation sample. Values rounded to 0.1 m.
func ElevationStatistics(elevations []float64) *datastructure.ElevationStats {
	if len(elevations) == 0 {
		return nil
	}
	minEle, maxEle, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, e := range elevations {
		minEle = math.Min(minEle, e)
		maxEle = math.Max(maxEle, e)
		sum += e
	}
	gain, loss := GainLoss(elevations)
	return &datastructure.ElevationStats{
		MinM:       util.RoundFloat(minEle, 1),
		MaxM:       util.RoundFloat(maxEle, 1),
		AvgM:       util.RoundFloat(sum/float64(len(elevations)), 1),
		GainM:      util.RoundFloat(gain, 1),
		LossM:      util.RoundFloat(loss, 1),
		TotalClimb: util.RoundFloat(gain+loss, 1),
	}
}

// ElevationProfile cumulative distance is measured along every point, the profile only lists points with elevation.
func ElevationProfile(points []datastructure.RoutePoint) []datastructure.ElevationPoint {
	profile := make([]datastructure.ElevationPoint, 0, len(points))
	cumulative := 0.0
	for i, p := range points {
		if i > 0 {
			cumulative += geo.CalculateHaversineDistance(points[i-1].Lat, points[i-1].Lon, p.Lat, p.Lon)
		}
		if p.Elevation == nil {
			continue
		}
		profile = append(profile, datastructure.ElevationPoint{
			Index:      i,
			Lat:        p.Lat,
			Lon:        p.Lon,
			Elevation:  *p.Elevation,
			DistanceKm: util.RoundFloat(cumulative, 3),
		})
	}
	if len(profile) == 0 {
		return nil
	}
	return profile
}

// Difficulty score = distance*0.1 + gain*0.001.
func Difficulty(distanceKm, gainM float64) (float64, datastructure.Difficulty) {
	score := distanceKm*0.1 + gainM*0.001
	var level datastructure.Difficulty
	switch {
	case score < 2:
		level = datastructure.DifficultyEasy
	case score < 4:
		level = datastructure.DifficultyModerate
	case score < 6:
		level = datastructure.DifficultyChallenging
	default:
		level = datastructure.DifficultyDifficult
	}
	return util.RoundFloat(score, 2), level
}
