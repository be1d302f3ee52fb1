package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/kelindar/binary"
	"github.com/owenkobasz/cyclone/pkg/concurrent"
	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/uber/h3-go/v4"
	"go.uber.org/zap"
)

var (
	ErrGraphNotFound = errors.New("graph not found in store")
)

const (
	h3Resolution = 9
	batchSize    = 1000
)

var (
	tilePrefix = []byte("tile:")
	metaKey    = []byte("meta:graph")
)

// GraphStore persists a road graph as h3 res-9 tiles in badger.
type GraphStore struct {
	db  *badger.DB
	log *zap.Logger
}

func NewGraphStore(db *badger.DB, log *zap.Logger) *GraphStore {
	return &GraphStore{db: db, log: log}
}

// OpenGraphStore opens badger at dir. An empty dir gives an in-memory store.
func OpenGraphStore(dir string, log *zap.Logger) (*GraphStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return NewGraphStore(db, log), nil
}

func tileKey(cell string) []byte {
	return append(append([]byte{}, tilePrefix...), cell...)
}

type tileResult struct {
	key []byte
	val []byte
	err error
}

// SaveGraph replaces any previously stored graph. The metadata key is written last.
func (k *GraphStore) SaveGraph(ctx context.Context, g *datastructure.Graph) error {
	if g.IsEmpty() {
		return errors.New("refusing to save an empty graph")
	}
	if err := k.db.DropPrefix(tilePrefix, metaKey); err != nil {
		return fmt.Errorf("drop previous graph: %w", err)
	}
	k.log.Info("saving h3 indexed graph to key-value db...", zap.Int("nodes", g.GetNumNodes()),
		zap.Int("edges", g.GetNumEdges()))

	cellNodes := make(map[string][]datastructure.Node)
	for _, n := range g.GetNodes() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}
		cell := h3.LatLngToCell(h3.NewLatLng(n.Lat, n.Lon), h3Resolution)
		cellNodes[cell.String()] = append(cellNodes[cell.String()], n)
	}

	wp := concurrent.NewWorkerPool[concurrent.SaveTileJobItem, tileResult](runtime.NumCPU(), len(cellNodes))
	for cell, nodes := range cellNodes {
		edges := make([]datastructure.Edge, 0, len(nodes))
		for _, n := range nodes {
			edges = append(edges, g.GetOutEdges(n.ID)...)
		}
		wp.AddJob(concurrent.NewSaveTileJobItem(cell, nodes, edges))
	}
	wp.Close()
	wp.Start(ctx, func(job concurrent.SaveTileJobItem) tileResult {
		val, err := encodeTile(newKVTile(job.Nodes, job.Edges))
		return tileResult{key: tileKey(job.Cell), val: val, err: err}
	})
	if err := wp.Wait(); err != nil {
		return err
	}

	batches := make([]tileResult, 0, batchSize)
	for res := range wp.CollectResults() {
		if res.err != nil {
			return fmt.Errorf("encode tile %s: %w", res.key, res.err)
		}
		batches = append(batches, res)
		if len(batches) == batchSize {
			if err := k.saveBatch(ctx, batches); err != nil {
				return err
			}
			batches = make([]tileResult, 0, batchSize)
		}
	}
	if len(batches) > 0 {
		if err := k.saveBatch(ctx, batches); err != nil {
			return err
		}
	}

	meta, err := binary.Marshal(graphMeta{
		NumNodes:  g.GetNumNodes(),
		NumEdges:  g.GetNumEdges(),
		NumTiles:  len(cellNodes),
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	err = k.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey, meta)
	})
	if err != nil {
		return err
	}

	k.log.Info("saving h3 indexed graph to key-value db done", zap.Int("tiles", len(cellNodes)))
	return nil
}

func (k *GraphStore) saveBatch(ctx context.Context, batchData []tileResult) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, data := range batchData {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}
		if err := batch.Set(data.key, data.val); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		k.log.Error("error saving tiles", zap.Error(err))
		return err
	}
	k.log.Debug("saving tiles done", zap.Int("tiles", len(batchData)))
	return nil
}

func (k *GraphStore) get(key []byte) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

// HasGraph reports whether a graph was saved before.
func (k *GraphStore) HasGraph() (bool, error) {
	_, err := k.get(metaKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// LoadGraph reads every tile.
func (k *GraphStore) LoadGraph(ctx context.Context) (*datastructure.Graph, error) {
	var (
		nodes []datastructure.Node
		edges []datastructure.Edge
	)
	err := k.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(tilePrefix); it.ValidForPrefix(tilePrefix); it.Next() {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled")
			default:
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			tile, err := decodeTile(val)
			if err != nil {
				return fmt.Errorf("decode tile %s: %w", bytes.TrimPrefix(it.Item().Key(), tilePrefix), err)
			}
			nodes = append(nodes, tile.toNodes()...)
			edges = append(edges, tile.toEdges()...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrGraphNotFound
	}
	g := assembleGraph(nodes, edges)
	k.log.Info("graph loaded from key-value db", zap.Int("nodes", g.GetNumNodes()), zap.Int("edges", g.GetNumEdges()))
	return g, nil
}

// LoadRegion reads the tiles covering a disk of radiusKm around center. Edges leaving the region are dropped.
func (k *GraphStore) LoadRegion(ctx context.Context, center datastructure.Coordinate, radiusKm float64) (*datastructure.Graph, error) {
	var (
		nodes []datastructure.Node
		edges []datastructure.Edge
	)
	for _, cell := range kRingIndexesArea(center.Lat, center.Lon, radiusKm) {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled")
		default:
		}
		val, err := k.get(tileKey(cell.String()))
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tile, err := decodeTile(val)
		if err != nil {
			return nil, fmt.Errorf("decode tile %s: %w", cell.String(), err)
		}
		nodes = append(nodes, tile.toNodes()...)
		edges = append(edges, tile.toEdges()...)
	}
	if len(nodes) == 0 {
		return nil, ErrGraphNotFound
	}
	g := assembleGraph(nodes, edges)
	k.log.Info("graph region loaded from key-value db", zap.Float64("radius_km", radiusKm),
		zap.Int("nodes", g.GetNumNodes()), zap.Int("edges", g.GetNumEdges()))
	return g, nil
}

// assembleGraph renumbers stored node ids densely. Edges with a missing endpoint are dropped.
func assembleGraph(nodes []datastructure.Node, edges []datastructure.Edge) *datastructure.Graph {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	newID := make(map[int32]int32, len(nodes))
	for i := range nodes {
		newID[nodes[i].ID] = int32(i)
		nodes[i].ID = int32(i)
	}
	kept := make([]datastructure.Edge, 0, len(edges))
	for _, e := range edges {
		from, okFrom := newID[e.From]
		to, okTo := newID[e.To]
		if !okFrom || !okTo {
			continue
		}
		e.From, e.To = from, to
		kept = append(kept, e)
	}
	return datastructure.NewGraph(nodes, kept)
}

func kRingIndexesArea(lat, lon, searchRadiusKm float64) []h3.Cell {
	home := h3.NewLatLng(lat, lon)
	origin := h3.LatLngToCell(home, h3Resolution)
	originArea := h3.CellAreaKm2(origin)
	searchArea := math.Pi * searchRadiusKm * searchRadiusKm

	radius := 0
	diskArea := originArea

	for diskArea < searchArea {
		radius++
		cellCount := float64(3*radius*(radius+1) + 1)
		diskArea = cellCount * originArea
	}

	return h3.GridDisk(origin, radius)
}

func (k *GraphStore) Close() error {
	return k.db.Close()
}
