// Package correlate anchors a raw location onto the routable graph through
// the external nearest-position search, and normalizes the search output
// into order-stable per-location results.
package correlate

import (
	"context"
	"log/slog"

	"github.com/routecraft/anchor/internal/costing"
	"github.com/routecraft/anchor/internal/graph"
	"github.com/routecraft/anchor/internal/models"
)

// PathLocation is the search collaborator's answer for one location: the
// snapped vertex plus the directed edges the vertex lies on.
type PathLocation struct {
	Input     models.Location
	VertexLat float64
	VertexLon float64
	Edges     []graph.EdgeID
}

// Searcher is the external nearest-position search. Implementations load
// tiles through the reader and must honor the edge filter.
type Searcher interface {
	Search(
		ctx context.Context,
		loc models.Location,
		reader graph.Reader,
		filter costing.EdgeFilter,
	) (PathLocation, error)
}

// EdgeMatch is one deduplicated graph-edge reference for a location.
type EdgeMatch struct {
	WayID uint64
	Lat   float64 // Snapped latitude.
	Lon   float64 // Snapped longitude.
}

// Result pairs an input location with its matches or its failure. A slice
// of Results is always order-aligned with the input locations.
type Result struct {
	Input   models.Location
	Matches []EdgeMatch
	Err     error
}

// Failed reports whether correlation failed for this location.
func (r Result) Failed() bool { return r.Err != nil }

type dedupKey struct {
	wayID    uint64
	lat, lon float64
}

// Correlate runs the search for one location and deduplicates the matched
// edges: two matches are duplicates when they share the same way id and the
// same snapped vertex, which is the normal case for the two directed edges
// of a bidirectional way.
//
// An edge the search reports but storage no longer has is logged and
// skipped rather than failing the location; search references should be
// valid, but storage staleness must degrade gracefully.
func Correlate(
	ctx context.Context,
	searcher Searcher,
	reader graph.Reader,
	log *slog.Logger,
	loc models.Location,
	filter costing.EdgeFilter,
) Result {
	found, err := searcher.Search(ctx, loc, reader, filter)
	if err != nil {
		return Result{Input: loc, Err: err}
	}

	seen := map[dedupKey]bool{}
	matches := make([]EdgeMatch, 0, len(found.Edges))
	for _, id := range found.Edges {
		edge, err := reader.Edge(ctx, id)
		if err != nil {
			log.WarnContext(ctx, "Edge reported by search not found in graph storage",
				"edge", uint64(id), "error", err)
			continue
		}
		key := dedupKey{wayID: edge.WayID, lat: found.VertexLat, lon: found.VertexLon}
		if seen[key] {
			continue
		}
		seen[key] = true
		matches = append(matches, EdgeMatch{
			WayID: edge.WayID,
			Lat:   found.VertexLat,
			Lon:   found.VertexLon,
		})
	}
	return Result{Input: loc, Matches: matches}
}
