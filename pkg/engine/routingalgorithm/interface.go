package routingalgorithm

import (
	"errors"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

var (
	ErrNoPathFound = errors.New("no path found")
)

type RoadGraph interface {
	GetNode(nodeID int32) datastructure.Node
	GetOutEdges(nodeID int32) []datastructure.Edge
	GetNumNodes() int
	HasNode(nodeID int32) bool
}

type RouteAlgorithm struct {
	g       RoadGraph
	dfsCfg  DFSConfig
	walkCfg RandomWalkConfig
}

type Option func(*RouteAlgorithm)

func WithDFSConfig(cfg DFSConfig) Option {
	return func(rt *RouteAlgorithm) {
		rt.dfsCfg = cfg
	}
}

func WithRandomWalkConfig(cfg RandomWalkConfig) Option {
	return func(rt *RouteAlgorithm) {
		rt.walkCfg = cfg
	}
}

func NewRouteAlgorithm(g RoadGraph, opts ...Option) *RouteAlgorithm {
	rt := &RouteAlgorithm{
		g:       g,
		dfsCfg:  DefaultDFSConfig(),
		walkCfg: DefaultRandomWalkConfig(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *RouteAlgorithm) DFSConfig() DFSConfig {
	return rt.dfsCfg
}

type cameFromPair struct {
	Edge   datastructure.Edge
	NodeID int32
}
