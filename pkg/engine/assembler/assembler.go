package assembler

import (
	"fmt"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/owenkobasz/cyclone/pkg/util"
)

const (
	DefaultCyclingSpeedKmh = 22.5
	unknownSurface         = "unknown"
)

// Meta request level facts copied onto every result.
type Meta struct {
	ID       string
	Method   datastructure.RoutingMethod
	Shape    datastructure.RouteShape
	TargetKm float64
	// Reference raw waypoints a snapped route is compared against for MaxDeviationKm.
	Reference []datastructure.Coordinate
}

type RouteAssembler struct {
	speedKmh float64
}

func NewRouteAssembler(speedKmh float64) *RouteAssembler {
	if speedKmh <= 0 {
		speedKmh = DefaultCyclingSpeedKmh
	}
	return &RouteAssembler{speedKmh: speedKmh}
}

// FromWaypoints total distance is the sum of haversine segments. Only points carrying an elevation
// contribute to gain, loss and the profile.
func (a *RouteAssembler) FromWaypoints(points []datastructure.RoutePoint, meta Meta) datastructure.RouteResult {
	coords := datastructure.CoordinatesFromRoutePoints(points)
	totalKm := geo.PathLength(coords)

	elevations := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Elevation != nil {
			elevations = append(elevations, *p.Elevation)
		}
	}
	gain, loss := GainLoss(elevations)

	res := a.base(meta, points, coords, totalKm, gain, loss)
	res.ElevationStats = ElevationStatistics(elevations)
	res.ElevationProfile = ElevationProfile(points)
	return res
}

// FromPath total distance is the sum of edge lengths. Node elevations are used when every node has one,
// otherwise gain and loss come from edge grades. Panics when two consecutive nodes of path are not adjacent.
func (a *RouteAssembler) FromPath(g *datastructure.Graph, path []int32, meta Meta) datastructure.RouteResult {
	edges, ok := g.PathEdges(path)
	if !ok {
		panic(fmt.Sprintf("assembler: path %v leaves the graph after %d edges", path, len(edges)))
	}

	totalM := 0.0
	surfaces := make(map[string]float64)
	for _, e := range edges {
		totalM += e.LengthM
		surface := e.Surface
		if surface == "" {
			surface = unknownSurface
		}
		surfaces[surface] += e.LengthKm()
	}
	for k, v := range surfaces {
		surfaces[k] = util.RoundFloat(v, 3)
	}

	allElevation := len(path) > 0
	points := make([]datastructure.RoutePoint, len(path))
	for i, id := range path {
		n := g.GetNode(id)
		points[i] = datastructure.NewRoutePoint(n.Lat, n.Lon, nil)
		if n.HasElevation {
			ele := n.Elevation
			points[i].Elevation = &ele
		} else {
			allElevation = false
		}
	}

	var gain, loss float64
	var elevations []float64
	if allElevation {
		elevations = make([]float64, len(points))
		for i, p := range points {
			elevations[i] = *p.Elevation
		}
		gain, loss = GainLoss(elevations)
	} else {
		gain, loss = gradeGainLoss(edges)
	}

	coords := datastructure.CoordinatesFromRoutePoints(points)
	res := a.base(meta, points, coords, totalM/1000, gain, loss)
	if len(surfaces) > 0 {
		res.SurfaceBreakdownKm = surfaces
	}
	if allElevation {
		res.ElevationStats = ElevationStatistics(elevations)
		res.ElevationProfile = ElevationProfile(points)
	}
	return res
}

// Failure result with no waypoints.
func (a *RouteAssembler) Failure(reason string, meta Meta) datastructure.RouteResult {
	return datastructure.RouteResult{
		ID:               meta.ID,
		Waypoints:        []datastructure.RoutePoint{},
		TargetDistanceKm: meta.TargetKm,
		Success:          false,
		FailureReason:    reason,
		RoutingMethod:    meta.Method,
		Shape:            meta.Shape,
	}
}

func (a *RouteAssembler) base(meta Meta, points []datastructure.RoutePoint, coords []datastructure.Coordinate,
	totalKm, gain, loss float64) datastructure.RouteResult {
	score, difficulty := Difficulty(totalKm, gain)
	res := datastructure.RouteResult{
		ID:                   meta.ID,
		Waypoints:            points,
		TotalDistanceKm:      util.RoundFloat(totalKm, 3),
		TargetDistanceKm:     meta.TargetKm,
		ElevationGainM:       util.RoundFloat(gain, 1),
		ElevationLossM:       util.RoundFloat(loss, 1),
		Success:              true,
		RoutingMethod:        meta.Method,
		Shape:                meta.Shape,
		EstimatedDurationMin: a.DurationMin(totalKm),
		DifficultyScore:      score,
		Difficulty:           difficulty,
		Polyline:             datastructure.CreatePolyline(geo.SimplifyPolyline(coords, 0)),
	}
	if len(meta.Reference) > 0 && len(coords) > 0 {
		res.MaxDeviationKm = util.RoundFloat(geo.MaxDeviation(meta.Reference, coords), 3)
	}
	return res
}

// DurationMin riding time in minutes at the assembler speed.
func (a *RouteAssembler) DurationMin(distanceKm float64) float64 {
	return util.RoundFloat(distanceKm/a.speedKmh*60, 1)
}
