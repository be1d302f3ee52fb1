package datastructure

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// 16 byte (128bit)

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

func NewCoordinates(lat, lon []float64) []Coordinate {
	coords := make([]Coordinate, len(lat))
	for i := range lat {
		coords[i] = NewCoordinate(lat[i], lon[i])
	}
	return coords
}

type RouteShape string

const (
	ShapeLoop       RouteShape = "loop"
	ShapeOutAndBack RouteShape = "out_and_back"
	ShapeFigure8    RouteShape = "figure8"
)

func (s RouteShape) Valid() bool {
	switch s {
	case ShapeLoop, ShapeOutAndBack, ShapeFigure8:
		return true
	}
	return false
}

type Surface string

const (
	SurfacePaved   Surface = "paved"
	SurfaceUnpaved Surface = "unpaved"
	SurfaceMixed   Surface = "mixed"
	SurfaceAny     Surface = "any"
)

func (s Surface) Valid() bool {
	switch s {
	case SurfacePaved, SurfaceUnpaved, SurfaceMixed, SurfaceAny:
		return true
	}
	return false
}

// Strategy selects which synthesis regime serves a request.
type Strategy string

const (
	StrategyGeometric Strategy = "geometric"
	StrategyGraph     Strategy = "graph"
	StrategyAISeeded  Strategy = "ai_seeded"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyGeometric, StrategyGraph, StrategyAISeeded:
		return true
	}
	return false
}

type RoutingMethod string

const (
	MethodGeometric   RoutingMethod = "geometric"
	MethodGraphAStar  RoutingMethod = "graph_astar"
	MethodGraphDFS    RoutingMethod = "graph_dfs"
	MethodRandomWalk  RoutingMethod = "random_walk"
	MethodRoadSnapped RoutingMethod = "road_snapped"
	MethodAISeeded    RoutingMethod = "ai_seeded"
)

// RoutePreferences is built once per request and passed by value.
type RoutePreferences struct {
	Start                Coordinate
	End                  *Coordinate
	TargetDistanceKm     float64
	Shape                RouteShape
	Tolerance            float64
	MinSegmentKm         float64
	MaxSegmentKm         float64
	PreferBikeLanes      bool
	AvoidHills           bool
	PreferHills          bool
	Surface              Surface
	TargetElevationGainM *float64
	MaxElevationGainM    *float64
	AvoidHighways        bool
	Strategy             Strategy
}

func (p RoutePreferences) HasEnd() bool {
	return p.End != nil
}

type RoutePoint struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation,omitempty"`
}

func NewRoutePoint(lat, lon float64, elevation *float64) RoutePoint {
	return RoutePoint{Lat: lat, Lon: lon, Elevation: elevation}
}

func (p RoutePoint) Coordinate() Coordinate {
	return NewCoordinate(p.Lat, p.Lon)
}

func RoutePointsFromCoordinates(coords []Coordinate) []RoutePoint {
	points := make([]RoutePoint, len(coords))
	for i, c := range coords {
		points[i] = RoutePoint{Lat: c.Lat, Lon: c.Lon}
	}
	return points
}

func CoordinatesFromRoutePoints(points []RoutePoint) []Coordinate {
	coords := make([]Coordinate, len(points))
	for i, p := range points {
		coords[i] = p.Coordinate()
	}
	return coords
}

type ElevationStats struct {
	MinM       float64 `json:"min_elevation"`
	MaxM       float64 `json:"max_elevation"`
	AvgM       float64 `json:"avg_elevation"`
	GainM      float64 `json:"total_gain"`
	LossM      float64 `json:"total_loss"`
	TotalClimb float64 `json:"total_climb"`
}

type ElevationPoint struct {
	Index      int     `json:"index"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Elevation  float64 `json:"elevation"`
	DistanceKm float64 `json:"distance_km"`
}

type Difficulty string

const (
	DifficultyEasy        Difficulty = "Easy"
	DifficultyModerate    Difficulty = "Moderate"
	DifficultyChallenging Difficulty = "Challenging"
	DifficultyDifficult   Difficulty = "Difficult"
)

// RouteResult is built once by the assembler. Callers treat it as immutable.
type RouteResult struct {
	ID                   string             `json:"id"`
	Waypoints            []RoutePoint       `json:"waypoints"`
	TotalDistanceKm      float64            `json:"total_distance_km"`
	TargetDistanceKm     float64            `json:"target_distance_km"`
	ElevationGainM       float64            `json:"elevation_gain_m"`
	ElevationLossM       float64            `json:"elevation_loss_m"`
	Success              bool               `json:"success"`
	FailureReason        string             `json:"failure_reason,omitempty"`
	RoutingMethod        RoutingMethod      `json:"routing_method"`
	Shape                RouteShape         `json:"shape"`
	ElevationStats       *ElevationStats    `json:"elevation_stats,omitempty"`
	ElevationProfile     []ElevationPoint   `json:"elevation_profile,omitempty"`
	EstimatedDurationMin float64            `json:"estimated_duration_min"`
	DifficultyScore      float64            `json:"difficulty_score"`
	Difficulty           Difficulty         `json:"difficulty,omitempty"`
	SurfaceBreakdownKm   map[string]float64 `json:"surface_breakdown_km,omitempty"`
	MaxDeviationKm       float64            `json:"max_deviation_km,omitempty"`
	Polyline             string             `json:"polyline,omitempty"`
}
