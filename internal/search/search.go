// Package search carries a minimal reference implementation of the
// nearest-position collaborator: a linear scan over the tile containing the
// query point. It exists so the worker has something to run against; a
// production deployment swaps in the real spatially indexed search.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/routecraft/anchor/internal/correlate"
	"github.com/routecraft/anchor/internal/costing"
	"github.com/routecraft/anchor/internal/geo"
	"github.com/routecraft/anchor/internal/graph"
	"github.com/routecraft/anchor/internal/models"
)

// Points farther than this from any admissible edge do not correlate.
const maxSnapDistMeters = 500.0

// ErrNoSuitableEdges means no admissible edge lies near the location.
var ErrNoSuitableEdges = errors.New("No suitable edges near location")

// vertexEpsilon is the tolerance in meters for two snapped points to count
// as the same vertex.
const vertexEpsilon = 0.5

type tileLookup interface {
	TileAt(ctx context.Context, lat, lon float64) (*graph.Tile, error)
}

// Linear is the reference searcher.
type Linear struct{}

// New returns a linear-scan searcher.
func New() *Linear { return &Linear{} }

// Search implements correlate.Searcher. It scans the most-detailed tile
// containing the location, keeps the admissible edge closest to it, and
// returns every admissible edge snapping to the same vertex.
func (l *Linear) Search(
	ctx context.Context,
	loc models.Location,
	reader graph.Reader,
	filter costing.EdgeFilter,
) (correlate.PathLocation, error) {
	lookup, ok := reader.(tileLookup)
	if !ok {
		return correlate.PathLocation{}, errors.New("graph reader does not support tile scans")
	}
	tile, err := lookup.TileAt(ctx, loc.Lat, loc.Lon)
	if err != nil {
		if errors.Is(err, graph.ErrTileNotFound) {
			return correlate.PathLocation{}, ErrNoSuitableEdges
		}
		return correlate.PathLocation{}, fmt.Errorf("load tile for location: %w", err)
	}

	type candidate struct {
		edge     graph.DirectedEdge
		lat, lon float64
		dist     float64
	}
	best := candidate{dist: math.Inf(1)}
	candidates := make([]candidate, 0, 4)

	for _, edge := range tile.Edges {
		if filter != nil && !filter(edge) {
			continue
		}
		dist, ratio := geo.PointToSegmentDist(loc.Lat, loc.Lon,
			edge.ALat, edge.ALon, edge.BLat, edge.BLon)
		if dist > maxSnapDistMeters {
			continue
		}
		c := candidate{
			edge: edge,
			lat:  edge.ALat + ratio*(edge.BLat-edge.ALat),
			lon:  edge.ALon + ratio*(edge.BLon-edge.ALon),
			dist: dist,
		}
		candidates = append(candidates, c)
		if dist < best.dist {
			best = c
		}
	}
	if math.IsInf(best.dist, 1) {
		return correlate.PathLocation{}, ErrNoSuitableEdges
	}

	found := correlate.PathLocation{
		Input:     loc,
		VertexLat: best.lat,
		VertexLon: best.lon,
	}
	for _, c := range candidates {
		if geo.ApproxDistance(c.lat, c.lon, best.lat, best.lon) <= vertexEpsilon {
			found.Edges = append(found.Edges, c.edge.ID)
		}
	}
	return found, nil
}
