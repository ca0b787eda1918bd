package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Common errors for tile access.
var (
	// ErrTileNotFound means the storage backend has no tile for the key.
	ErrTileNotFound = errors.New("tile not found")
	// ErrEdgeNotFound means a tile exists but the edge index is out of range,
	// usually a sign of stale search results against newer storage.
	ErrEdgeNotFound = errors.New("edge not found in tile")
)

// TileSource loads tiles and the coarse region-connectivity table from
// storage. Implementations may block on I/O; the worker treats a tile load
// like a page fault.
type TileSource interface {
	// Tile loads one tile, failing with ErrTileNotFound when absent.
	Tile(ctx context.Context, key TileKey) (*Tile, error)
	// Regions returns the region to connected-component mapping, loaded once
	// per reader at startup.
	Regions(ctx context.Context) (map[RegionID]uint32, error)
}

// StaticSource is an in-memory TileSource. It backs tests and stands in for
// the storage module until one is wired; real deployments replace it.
type StaticSource struct {
	mu      sync.Mutex
	tiles   map[TileKey]*Tile
	regions map[RegionID]uint32
	loads   map[TileKey]int
}

// NewStaticSource returns an empty in-memory source.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		tiles:   map[TileKey]*Tile{},
		regions: map[RegionID]uint32{},
		loads:   map[TileKey]int{},
	}
}

// AddTile registers a tile.
func (s *StaticSource) AddTile(tile *Tile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles[tile.Key] = tile
}

// SetRegion assigns a region to a connected component.
func (s *StaticSource) SetRegion(region RegionID, component uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions[region] = component
}

// Tile implements TileSource.
func (s *StaticSource) Tile(_ context.Context, key TileKey) (*Tile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[key]++
	tile, ok := s.tiles[key]
	if !ok {
		return nil, fmt.Errorf("tile %v/%d: %w", key.Level, key.ID, ErrTileNotFound)
	}
	return tile, nil
}

// Regions implements TileSource.
func (s *StaticSource) Regions(_ context.Context) (map[RegionID]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[RegionID]uint32, len(s.regions))
	for region, component := range s.regions {
		out[region] = component
	}
	return out, nil
}

// Loads reports how many times a tile was requested, for cache tests.
func (s *StaticSource) Loads(key TileKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads[key]
}
