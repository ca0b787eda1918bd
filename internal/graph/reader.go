package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Reader is the worker's handle onto the tiled graph. One reader belongs to
// exactly one worker; no locking, the worker is single-threaded.
type Reader interface {
	// Edge resolves a directed edge, loading its tile on demand.
	Edge(ctx context.Context, id EdgeID) (DirectedEdge, error)
	// AreConnected reports whether two coarse regions share a connected
	// component. False means no route can exist; true proves nothing.
	AreConnected(a, b RegionID) bool
	// Hierarchy returns the tiling levels.
	Hierarchy() Hierarchy
	// OverBudget reports whether the tile cache exceeds its memory budget.
	OverBudget() bool
	// Trim evicts cold tiles until the cache is back under budget. Hot
	// tiles survive; this is not a full clear.
	Trim()
}

type cacheEntry struct {
	tile     *Tile
	lastUsed int64
}

// CachedReader implements Reader over a TileSource with an LRU-trimmed,
// byte-budgeted tile cache.
type CachedReader struct {
	src       TileSource
	hierarchy Hierarchy
	budget    int64
	log       *slog.Logger

	tiles   map[TileKey]*cacheEntry
	size    int64
	clock   int64
	regions map[RegionID]uint32
}

// NewCachedReader builds a reader and loads the region-connectivity table
// once. budget <= 0 disables trimming.
func NewCachedReader(
	ctx context.Context,
	src TileSource,
	hierarchy Hierarchy,
	budget int64,
	log *slog.Logger,
) (*CachedReader, error) {
	regions, err := src.Regions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load region connectivity: %w", err)
	}
	return &CachedReader{
		src:       src,
		hierarchy: hierarchy,
		budget:    budget,
		log:       log,
		tiles:     map[TileKey]*cacheEntry{},
		regions:   regions,
	}, nil
}

// Hierarchy implements Reader.
func (r *CachedReader) Hierarchy() Hierarchy { return r.hierarchy }

// AreConnected implements Reader. Regions missing from the table are
// treated as disconnected from everything.
func (r *CachedReader) AreConnected(a, b RegionID) bool {
	ca, okA := r.regions[a]
	cb, okB := r.regions[b]
	return okA && okB && ca == cb
}

// Edge implements Reader.
func (r *CachedReader) Edge(ctx context.Context, id EdgeID) (DirectedEdge, error) {
	tile, err := r.TileByKey(ctx, id.TileKey())
	if err != nil {
		return DirectedEdge{}, err
	}
	index := int(id.Index())
	if index >= len(tile.Edges) {
		return DirectedEdge{}, fmt.Errorf("edge %d in tile %d/%d: %w",
			index, id.Level(), id.Tile(), ErrEdgeNotFound)
	}
	return tile.Edges[index], nil
}

// TileAt loads the most-detailed tile containing a coordinate.
func (r *CachedReader) TileAt(ctx context.Context, lat, lon float64) (*Tile, error) {
	level := r.hierarchy.MostDetailed()
	return r.TileByKey(ctx, TileKey{Level: level.Index, ID: level.TileID(lat, lon)})
}

// TileByKey loads a tile through the cache.
func (r *CachedReader) TileByKey(ctx context.Context, key TileKey) (*Tile, error) {
	r.clock++
	if entry, ok := r.tiles[key]; ok {
		entry.lastUsed = r.clock
		return entry.tile, nil
	}
	tile, err := r.src.Tile(ctx, key)
	if err != nil {
		return nil, err
	}
	r.tiles[key] = &cacheEntry{tile: tile, lastUsed: r.clock}
	r.size += tile.Size()
	r.log.DebugContext(ctx, "Loaded tile", "level", key.Level, "tile", key.ID, "cache_bytes", r.size)
	return tile, nil
}

// CacheBytes returns the accounted size of the tile cache.
func (r *CachedReader) CacheBytes() int64 { return r.size }

// OverBudget implements Reader.
func (r *CachedReader) OverBudget() bool {
	return r.budget > 0 && r.size > r.budget
}

// Trim implements Reader. Evicts least-recently-used tiles until the cache
// is at or under budget.
func (r *CachedReader) Trim() {
	if !r.OverBudget() {
		return
	}
	keys := make([]TileKey, 0, len(r.tiles))
	for key := range r.tiles {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return r.tiles[keys[i]].lastUsed < r.tiles[keys[j]].lastUsed
	})
	evicted := 0
	for _, key := range keys {
		if r.size <= r.budget {
			break
		}
		r.size -= r.tiles[key].tile.Size()
		delete(r.tiles, key)
		evicted++
	}
	r.log.Debug("Trimmed tile cache", "evicted", evicted, "cache_bytes", r.size)
}
