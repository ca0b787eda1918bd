// Package geo holds the small amount of spherical geometry the worker needs
// for pre-checks and snapping. Distances are approximate on purpose: they
// feed admissibility filters, not final path costs.
package geo

import "math"

const earthRadiusMeters = 6_371_000.0

const degToRad = math.Pi / 180

// ApproxDistance returns the approximate great-circle distance in meters
// between two points using an equirectangular projection. Error stays well
// under 1% at the scales the distance limits operate on.
func ApproxDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Sqrt(ApproxDistanceSquared(lat1, lon1, lat2, lon2))
}

// ApproxDistanceSquared returns the squared equirectangular distance in
// square meters, skipping the square root for callers that only compare.
func ApproxDistanceSquared(lat1, lon1, lat2, lon2 float64) float64 {
	x := (lon2 - lon1) * math.Cos((lat1+lat2)/2*degToRad) * degToRad * earthRadiusMeters
	y := (lat2 - lat1) * degToRad * earthRadiusMeters
	return x*x + y*y
}

// PointToSegmentDist returns the distance in meters from point P to the
// segment AB together with the projection ratio along AB clamped to [0,1].
func PointToSegmentDist(pLat, pLon, aLat, aLon, bLat, bLon float64) (dist, ratio float64) {
	cosLat := math.Cos((aLat + bLat) / 2 * degToRad)

	ax, ay := aLon*cosLat, aLat
	bx, by := bLon*cosLat, bLat
	px, py := pLon*cosLat, pLat

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy

	var t float64
	if lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}

	ex := px - (ax + t*dx)
	ey := py - (ay + t*dy)
	return math.Sqrt(ex*ex+ey*ey) * degToRad * earthRadiusMeters, t
}
