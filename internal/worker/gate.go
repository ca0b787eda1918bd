package worker

import (
	"context"
	"log/slog"

	"github.com/routecraft/anchor/internal/geo"
	"github.com/routecraft/anchor/internal/graph"
	"github.com/routecraft/anchor/internal/models"
)

// CheckConnectivity is the cheap admissibility pre-filter run before any
// correlation work. It walks adjacent location pairs in request order and
// rejects pairs in disconnected coarse regions or farther apart than the
// costing's distance limit. It stops at the first failing pair. Passing
// proves nothing about an actual route existing.
func CheckConnectivity(
	ctx context.Context,
	log *slog.Logger,
	locations []models.Location,
	reader graph.Reader,
	maxDistance float64,
) error {
	hierarchy := reader.Hierarchy()
	for i := 1; i < len(locations); i++ {
		prev, cur := locations[i-1], locations[i]

		a := hierarchy.RegionAt(prev.Lat, prev.Lon)
		b := hierarchy.RegionAt(cur.Lat, cur.Lon)
		if !reader.AreConnected(a, b) {
			return ErrUnreachable
		}

		distance := geo.ApproxDistance(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		if distance > maxDistance {
			return ErrDistanceExceeded
		}
		log.InfoContext(ctx, "Checked location pair", "location_distance", distance)
	}
	return nil
}
