// Package graph defines the worker's view of the tiled routable network:
// edge and tile identifiers, the coarse region partitioning used by
// connectivity pre-checks, and a budget-aware tile cache over a pluggable
// tile source. The tile file format itself lives outside this module.
package graph

import "math"

// EdgeID identifies a directed edge: hierarchy level, tile, index in tile.
type EdgeID uint64

// NewEdgeID packs a level, tile id and in-tile index into an EdgeID.
func NewEdgeID(level uint8, tile uint32, index uint32) EdgeID {
	return EdgeID(uint64(level)<<56 | uint64(tile&0xFFFFFF)<<32 | uint64(index))
}

// Level returns the hierarchy level the edge lives on.
func (id EdgeID) Level() uint8 { return uint8(id >> 56) }

// Tile returns the tile id within the level.
func (id EdgeID) Tile() uint32 { return uint32(id>>32) & 0xFFFFFF }

// Index returns the edge's position inside its tile.
func (id EdgeID) Index() uint32 { return uint32(id) }

// TileKey returns the key of the tile holding the edge.
func (id EdgeID) TileKey() TileKey {
	return TileKey{Level: id.Level(), ID: id.Tile()}
}

// TileKey addresses one tile of the graph.
type TileKey struct {
	Level uint8
	ID    uint32
}

// RegionID is a coarse spatial partition id used for connectivity checks.
type RegionID uint32

// Access is a bitmask of travel modes admitted on an edge.
type Access uint8

// Travel mode access bits.
const (
	AccessAuto Access = 1 << iota
	AccessBus
	AccessBicycle
	AccessPedestrian
)

// DirectedEdge is the per-edge record the worker reads out of a tile.
type DirectedEdge struct {
	ID     EdgeID
	WayID  uint64 // Source map way identifier.
	ALat   float64
	ALon   float64
	BLat   float64
	BLon   float64
	Access Access
}

// Tile is one spatially partitioned unit of the graph.
type Tile struct {
	Key       TileKey
	Edges     []DirectedEdge
	SizeBytes int64 // In-memory footprint; estimated from Edges when zero.
}

// Size returns the tile's accounted memory footprint.
func (t *Tile) Size() int64 {
	if t.SizeBytes > 0 {
		return t.SizeBytes
	}
	const edgeBytes = 64
	return int64(len(t.Edges)) * edgeBytes
}

// Level describes one tiling level of the hierarchy.
type Level struct {
	Index    uint8   // Hierarchy level, 0 is the least detailed.
	Name     string  // e.g. "highway", "arterial", "local".
	TileSize float64 // Tile edge length in degrees.
}

// TileID returns the id of the tile containing the coordinate, row-major
// over a lat/lon grid anchored at (-90, -180).
func (l Level) TileID(lat, lon float64) uint32 {
	cols := uint32(math.Ceil(360 / l.TileSize))
	rows := uint32(math.Ceil(180 / l.TileSize))
	col := uint32(math.Floor((lon + 180) / l.TileSize))
	row := uint32(math.Floor((lat + 90) / l.TileSize))
	// The north pole and the antimeridian land on the last row/column.
	if col >= cols {
		col = cols - 1
	}
	if row >= rows {
		row = rows - 1
	}
	return row*cols + col
}

// Hierarchy is the ordered set of tiling levels, least detailed first.
type Hierarchy struct {
	Levels []Level
}

// DefaultHierarchy returns the standard three-level tiling.
func DefaultHierarchy() Hierarchy {
	return Hierarchy{Levels: []Level{
		{Index: 0, Name: "highway", TileSize: 4},
		{Index: 1, Name: "arterial", TileSize: 1},
		{Index: 2, Name: "local", TileSize: 0.25},
	}}
}

// LowestDetail returns the coarsest level, the one region connectivity is
// precomputed on.
func (h Hierarchy) LowestDetail() Level {
	return h.Levels[0]
}

// MostDetailed returns the finest level, the one locations snap against.
func (h Hierarchy) MostDetailed() Level {
	return h.Levels[len(h.Levels)-1]
}

// RegionAt returns the coarse partition id for a coordinate.
func (h Hierarchy) RegionAt(lat, lon float64) RegionID {
	return RegionID(h.LowestDetail().TileID(lat, lon))
}
