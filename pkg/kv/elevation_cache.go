package kv

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/kelindar/binary"
	"github.com/mmcloughlin/geohash"
	"github.com/owenkobasz/cyclone/pkg/datastructure"
)

// geohash precision 7 is a cell of roughly 150 x 150 m.
const elevationPrecision = 7

// ElevationCache elevation samples keyed by geohash cell.
type ElevationCache struct {
	db *pebble.DB
}

// OpenElevationCache an empty dir keeps the cache in memory.
func OpenElevationCache(dir string) (*ElevationCache, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %q: %w", dir, err)
	}
	return &ElevationCache{db: db}, nil
}

func elevationKey(c datastructure.Coordinate) []byte {
	return []byte(geohash.EncodeWithPrecision(c.Lat, c.Lon, elevationPrecision))
}

func encodeElevation(ele float64) ([]byte, error) {
	return binary.Marshal(ele)
}

func (c *ElevationCache) Put(coord datastructure.Coordinate, ele float64) error {
	val, err := encodeElevation(ele)
	if err != nil {
		return err
	}
	return c.db.Set(elevationKey(coord), val, pebble.NoSync)
}

// Get ok is false when no sample exists for the cell of coord.
func (c *ElevationCache) Get(coord datastructure.Coordinate) (float64, bool, error) {
	val, closer, err := c.db.Get(elevationKey(coord))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	defer closer.Close()
	var ele float64
	if err := binary.Unmarshal(val, &ele); err != nil {
		return 0, false, fmt.Errorf("corrupt elevation sample: %w", err)
	}
	return ele, true, nil
}

// Record stores every point that carries an elevation, in one batch.
func (c *ElevationCache) Record(points []datastructure.RoutePoint) error {
	batch := c.db.NewBatch()
	defer batch.Close()
	n := 0
	for _, p := range points {
		if p.Elevation == nil {
			continue
		}
		val, err := encodeElevation(*p.Elevation)
		if err != nil {
			return err
		}
		if err := batch.Set(elevationKey(p.Coordinate()), val, nil); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		return nil
	}
	return batch.Commit(pebble.NoSync)
}

// Fill returns a copy of points where missing elevations are taken from the cache when available.
func (c *ElevationCache) Fill(points []datastructure.RoutePoint) ([]datastructure.RoutePoint, error) {
	filled := make([]datastructure.RoutePoint, len(points))
	copy(filled, points)
	for i := range filled {
		if filled[i].Elevation != nil {
			continue
		}
		ele, ok, err := c.Get(filled[i].Coordinate())
		if err != nil {
			return nil, err
		}
		if ok {
			e := ele
			filled[i].Elevation = &e
		}
	}
	return filled, nil
}

func (c *ElevationCache) Close() error {
	return c.db.Close()
}
