package geo

import (
	"math"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

const (
	earthRadiusKM = 6371.0
)

func havFunction(angleRad float64) float64 {
	s := math.Sin(angleRad / 2.0)
	return s * s
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func radiansToDegree(angle float64) float64 {
	return angle * (180.0 / math.Pi)
}

// CalculateHaversineDistance great-circle distance in km.
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

func HaversineDistance(a, b datastructure.Coordinate) float64 {
	return CalculateHaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// GetDestinationPoint projects (lat, lon) along bearing (radians from true north) for distKm on a sphere.
// The resulting longitude is normalized into (-180, 180].
func GetDestinationPoint(lat, lon, bearingRad, distKm float64) (float64, float64) {
	if distKm == 0 {
		return lat, lon
	}
	latRad := degreeToRadians(lat)
	lonRad := degreeToRadians(lon)
	angular := distKm / earthRadiusKM

	newLatRad := math.Asin(math.Sin(latRad)*math.Cos(angular) +
		math.Cos(latRad)*math.Sin(angular)*math.Cos(bearingRad))

	newLonRad := lonRad + math.Atan2(math.Sin(bearingRad)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(newLatRad))

	return radiansToDegree(newLatRad), NormalizeLongitude(radiansToDegree(newLonRad))
}

func Destination(p datastructure.Coordinate, bearingRad, distKm float64) datastructure.Coordinate {
	lat, lon := GetDestinationPoint(p.Lat, p.Lon, bearingRad, distKm)
	return datastructure.NewCoordinate(lat, lon)
}

// NormalizeLongitude wraps lon into (-180, 180].
func NormalizeLongitude(lon float64) float64 {
	if lon > -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon <= 0 {
		lon += 360
	}
	return lon - 180
}

// Bearing initial great-circle bearing from a to b, radians in [0, 2pi).
func Bearing(a, b datastructure.Coordinate) float64 {
	latOne := degreeToRadians(a.Lat)
	latTwo := degreeToRadians(b.Lat)
	dLon := degreeToRadians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(latTwo)
	x := math.Cos(latOne)*math.Sin(latTwo) - math.Sin(latOne)*math.Cos(latTwo)*math.Cos(dLon)

	bearing := math.Atan2(y, x)
	if bearing < 0 {
		bearing += 2 * math.Pi
	}
	return bearing
}

// AngleDifference smallest absolute difference between two bearings, in [0, pi].
func AngleDifference(a, b float64) float64 {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff > math.Pi {
		diff = 2*math.Pi - diff
	}
	return diff
}

// Interpolate linear interpolation in lat/lon space. ratio 0 returns a, ratio 1 returns b.
func Interpolate(a, b datastructure.Coordinate, ratio float64) datastructure.Coordinate {
	return datastructure.NewCoordinate(
		a.Lat+(b.Lat-a.Lat)*ratio,
		a.Lon+(b.Lon-a.Lon)*ratio,
	)
}

func ValidCoordinate(c datastructure.Coordinate) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// PathLength sum of consecutive haversine distances in km.
func PathLength(coords []datastructure.Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(coords); i++ {
		total += HaversineDistance(coords[i-1], coords[i])
	}
	return total
}
