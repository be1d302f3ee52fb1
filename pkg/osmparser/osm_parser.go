package osmparser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

var (
	ErrEmptyGraph = errors.New("no cycleable way found in map file")
)

type nodeCoord struct {
	lat    float64
	lon    float64
	ele    float64
	hasEle bool
}

type node struct {
	id    int64
	coord nodeCoord
}

type Options struct {
	AvoidHighways bool
	KeepAllSCC    bool
	ShowProgress  bool
}

type OsmParser struct {
	wayNodeMap      map[int64]NodeType
	acceptedNodeMap map[int64]nodeCoord
	builder         *datastructure.GraphBuilder
	opts            Options
	log             *zap.Logger
	countWays       int
}

func NewOSMParser(opts Options, log *zap.Logger) *OsmParser {
	return &OsmParser{
		wayNodeMap:      make(map[int64]NodeType),
		acceptedNodeMap: make(map[int64]nodeCoord),
		builder:         datastructure.NewGraphBuilder(),
		opts:            opts,
		log:             log,
	}
}

func (p *OsmParser) ParseFile(ctx context.Context, mapFile string) (*datastructure.Graph, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(ctx, f)
}

// Parse reads the pbf twice: first to find junction nodes, then to collect node coordinates and split ways into edges.
func (p *OsmParser) Parse(ctx context.Context, r io.ReadSeeker) (*datastructure.Graph, error) {
	scanner := osmpbf.New(ctx, r, runtime.GOMAXPROCS(-1))
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		if way, ok := scanner.Object().(*osm.Way); ok {
			p.scanWay(way)
		}
	}
	err := scanner.Err()
	scanner.Close()
	if err != nil {
		return nil, fmt.Errorf("scan ways: %w", err)
	}
	p.log.Info("reading openstreetmap ways done", zap.Int("ways", p.countWays),
		zap.Int("way_nodes", len(p.wayNodeMap)))

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	bar := newProgressBar(p.countWays, "[cyan][1/2][reset] processing openstreetmap ways ...", p.opts.ShowProgress)
	scanner = osmpbf.New(ctx, r, runtime.GOMAXPROCS(-1))
	scanner.SkipRelations = true
	defer scanner.Close()
	// nodes precede ways in a pbf, coordinates are known before a way is split.
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			p.acceptNode(o)
		case *osm.Way:
			if p.processWay(o) {
				bar.Add(1)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("process ways: %w", err)
	}
	bar.Finish()

	return p.Graph()
}

// scanWay marks nodes shared by several accepted ways as junctions.
func (p *OsmParser) scanWay(way *osm.Way) {
	if len(way.Nodes) < 2 || !acceptOsmWay(way, p.opts.AvoidHighways) {
		return
	}
	p.countWays++
	for i, wayNode := range way.Nodes {
		id := int64(wayNode.ID)
		if _, ok := p.wayNodeMap[id]; !ok {
			if i == 0 || i == len(way.Nodes)-1 {
				p.wayNodeMap[id] = END_NODE
			} else {
				p.wayNodeMap[id] = BETWEEN_NODE
			}
		} else {
			p.wayNodeMap[id] = JUNCTION_NODE
		}
	}
}

func (p *OsmParser) acceptNode(n *osm.Node) {
	if _, ok := p.wayNodeMap[int64(n.ID)]; !ok {
		return
	}
	coord := nodeCoord{lat: n.Lat, lon: n.Lon}
	coord.ele, coord.hasEle = parseEle(n.Tags.Find("ele"))
	p.acceptedNodeMap[int64(n.ID)] = coord
}

func (p *OsmParser) isSplitNode(id int64) bool {
	t := p.wayNodeMap[id]
	return t == JUNCTION_NODE || t == END_NODE
}

// processWay splits way at junctions into edges. Returns false if the way was skipped.
func (p *OsmParser) processWay(way *osm.Way) bool {
	if len(way.Nodes) < 2 || !acceptOsmWay(way, p.opts.AvoidHighways) {
		return false
	}
	dir := wayDirectionOf(way)
	info := wayInfoOf(way)

	waySegment := make([]node, 0, len(way.Nodes))
	for i, wayNode := range way.Nodes {
		coord, ok := p.acceptedNodeMap[int64(wayNode.ID)]
		if !ok {
			// node outside the extract, the way is cut here.
			if len(waySegment) > 1 {
				p.addEdge(waySegment, dir, info)
			}
			waySegment = waySegment[:0]
			continue
		}
		nodeData := node{id: int64(wayNode.ID), coord: coord}
		waySegment = append(waySegment, nodeData)
		if i > 0 && p.isSplitNode(nodeData.id) && len(waySegment) > 1 {
			p.addEdge(waySegment, dir, info)
			waySegment = []node{nodeData}
		}
	}
	if len(waySegment) > 1 {
		p.addEdge(waySegment, dir, info)
	}
	return true
}

func (p *OsmParser) addEdge(segment []node, dir wayDirection, info wayInfo) {
	from := segment[0]
	to := segment[len(segment)-1]
	if from.id == to.id {
		// closed way without an inner junction, keep it as two edges through its middle node.
		if len(segment) < 3 {
			return
		}
		mid := len(segment) / 2
		p.addEdge(segment[:mid+1], dir, info)
		p.addEdge(segment[mid:], dir, info)
		return
	}

	distance := 0.0 // in km
	for i := 1; i < len(segment); i++ {
		distance += geo.CalculateHaversineDistance(segment[i-1].coord.lat, segment[i-1].coord.lon,
			segment[i].coord.lat, segment[i].coord.lon)
	}
	distanceInMeter := distance * 1000
	if distanceInMeter == 0 {
		return
	}

	fromID := p.addNode(from)
	toID := p.addNode(to)

	grade := 0.0
	if from.coord.hasEle && to.coord.hasEle {
		grade = (to.coord.ele - from.coord.ele) / distanceInMeter
	}

	edge := datastructure.Edge{
		From:     fromID,
		To:       toID,
		LengthM:  distanceInMeter,
		Grade:    grade,
		BikeLane: info.bikeLane,
		Cycleway: info.cycleway,
		Highway:  info.highway,
		Surface:  info.surface,
	}
	switch {
	case dir.forward && dir.backward:
		p.builder.AddBidirectionalEdge(edge)
	case dir.forward:
		p.builder.AddEdge(edge)
	default:
		edge.From, edge.To = toID, fromID
		edge.Grade = -grade
		p.builder.AddEdge(edge)
	}
}

func (p *OsmParser) addNode(n node) int32 {
	id := p.builder.AddNode(n.id, n.coord.lat, n.coord.lon)
	if n.coord.hasEle {
		p.builder.SetElevation(id, n.coord.ele)
	}
	return id
}

// Graph freezes the parsed edges. Unless KeepAllSCC is set only the largest strongly connected component is kept.
func (p *OsmParser) Graph() (*datastructure.Graph, error) {
	g := p.builder.Freeze()
	if g.IsEmpty() {
		return nil, ErrEmptyGraph
	}
	p.log.Info("openstreetmap graph built", zap.Int("nodes", g.GetNumNodes()), zap.Int("edges", g.GetNumEdges()))
	if p.opts.KeepAllSCC {
		return g, nil
	}

	pruned, components := LargestSCC(g)
	p.log.Info("strongly connected components", zap.Int("count", components),
		zap.Int("kept_nodes", pruned.GetNumNodes()), zap.Int("kept_edges", pruned.GetNumEdges()))
	return pruned, nil
}
