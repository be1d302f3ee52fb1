package geo

import (
	"math"

	"github.com/owenkobasz/cyclone/pkg/datastructure"

	"github.com/golang/geo/s2"
)

// ProjectPointToLineCoord projects snap onto the great-circle segment (nearestStPoint, secondNearestStPoint).
func ProjectPointToLineCoord(nearestStPoint, secondNearestStPoint,
	snap datastructure.Coordinate) datastructure.Coordinate {

	nearestStS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(nearestStPoint.Lat, nearestStPoint.Lon))
	secondNearestStS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(secondNearestStPoint.Lat, secondNearestStPoint.Lon))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat, snap.Lon))

	projection := s2.Project(snapS2, nearestStS2, secondNearestStS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return datastructure.NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// PointLinePerpendicularDistance distance in meter from p to segment (a, b).
func PointLinePerpendicularDistance(a, b, p datastructure.Coordinate) float64 {
	proj := ProjectPointToLineCoord(a, b, p)
	return s2.LatLngFromDegrees(p.Lat, p.Lon).Distance(s2.LatLngFromDegrees(proj.Lat, proj.Lon)).Radians() *
		earthRadiusKM * 1000
}

// PointToPolylineDistance distance in km from p to the closest segment of line.
func PointToPolylineDistance(p datastructure.Coordinate, line []datastructure.Coordinate) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	if len(line) == 1 {
		return HaversineDistance(p, line[0])
	}
	best := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		d := PointLinePerpendicularDistance(line[i], line[i+1], p) / 1000
		if d < best {
			best = d
		}
	}
	return best
}

// MaxDeviation largest distance in km between any of the points and the polyline.
func MaxDeviation(points, line []datastructure.Coordinate) float64 {
	maxDev := 0.0
	for _, p := range points {
		d := PointToPolylineDistance(p, line)
		if d > maxDev {
			maxDev = d
		}
	}
	return maxDev
}
