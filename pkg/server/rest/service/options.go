package service

import (
	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

type RouteType struct {
	Type        datastructure.RouteShape `json:"type"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	BestFor     []string                 `json:"best_for"`
}

type RouteOptions struct {
	RouteTypes     []RouteType                   `json:"route_types"`
	Surfaces       []datastructure.Surface       `json:"surfaces"`
	Strategies     []datastructure.Strategy      `json:"strategies"`
	RoutingMethods []datastructure.RoutingMethod `json:"routing_methods"`
}

type Health struct {
	GraphLoaded    bool `json:"graph_loaded"`
	GraphNodes     int  `json:"graph_nodes"`
	GraphEdges     int  `json:"graph_edges"`
	RoadSnapping   bool `json:"road_snapping"`
	AISeeding      bool `json:"ai_seeding"`
	ElevationCache bool `json:"elevation_cache"`
}

var routeTypes = []RouteType{
	{
		Type:        datastructure.ShapeLoop,
		Name:        "Loop Route",
		Description: "Route that starts and ends at the same point",
		BestFor:     []string{"Training", "Local exploration", "Fixed distance workouts"},
	},
	{
		Type:        datastructure.ShapeOutAndBack,
		Name:        "Out and Back",
		Description: "Route that goes out to a point and returns the same way",
		BestFor:     []string{"Long distance training", "Scenic routes", "Time-based workouts"},
	},
	{
		Type:        datastructure.ShapeFigure8,
		Name:        "Figure 8",
		Description: "Two loops joined at the start point",
		BestFor:     []string{"Varied terrain", "Mixed distance segments", "Staying close to the start"},
	},
}

// Options strategies the service can currently serve. graph needs a loaded road graph.
func (s *RouteService) Options() RouteOptions {
	strategies := []datastructure.Strategy{datastructure.StrategyGeometric}
	methods := []datastructure.RoutingMethod{datastructure.MethodGeometric}
	if s.HasGraph() {
		strategies = append(strategies, datastructure.StrategyGraph)
		methods = append(methods, datastructure.MethodGraphAStar, datastructure.MethodGraphDFS, datastructure.MethodRandomWalk)
	}
	if s.snapper != nil {
		methods = append(methods, datastructure.MethodRoadSnapped)
	}
	if s.seeder != nil {
		strategies = append(strategies, datastructure.StrategyAISeeded)
		methods = append(methods, datastructure.MethodAISeeded)
	}

	types := make([]RouteType, len(routeTypes))
	copy(types, routeTypes)
	return RouteOptions{
		RouteTypes: types,
		Surfaces: []datastructure.Surface{
			datastructure.SurfacePaved,
			datastructure.SurfaceUnpaved,
			datastructure.SurfaceMixed,
			datastructure.SurfaceAny,
		},
		Strategies:     strategies,
		RoutingMethods: methods,
	}
}

func (s *RouteService) Health() Health {
	h := Health{
		GraphLoaded:    s.HasGraph(),
		RoadSnapping:   s.snapper != nil,
		AISeeding:      s.seeder != nil,
		ElevationCache: s.elevation != nil,
	}
	if s.graph != nil {
		h.GraphNodes = s.graph.GetNumNodes()
		h.GraphEdges = s.graph.GetNumEdges()
	}
	return h
}
