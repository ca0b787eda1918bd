package worker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/routecraft/anchor/internal/correlate"
	"github.com/routecraft/anchor/internal/jsontree"
	"github.com/routecraft/anchor/internal/models"
)

// ForwardMessage builds the internal message handed to the path-finding
// stage: the request tree with the locations array replaced by per-index
// correlated_N subtrees, rendered in the hierarchical format shared with
// configuration. ViaRoute requests are stamped with the OSRM compatibility
// marker so the serializing stage knows which output dialect to produce.
func ForwardMessage(
	tree *jsontree.Node,
	action models.Action,
	results []correlate.Result,
) ([]byte, error) {
	for i, result := range results {
		node := jsontree.NewObject()
		edges := jsontree.NewArray()
		for _, match := range result.Matches {
			edge := jsontree.NewObject()
			edge.SetScalar("way_id", strconv.FormatUint(match.WayID, 10))
			edge.SetScalar("correlated_lat", format6(match.Lat))
			edge.SetScalar("correlated_lon", format6(match.Lon))
			edges.Append(edge)
		}
		node.Set("edges", edges)
		node.SetScalar("input_lat", format6(result.Input.Lat))
		node.SetScalar("input_lon", format6(result.Input.Lon))
		node.SetScalar("index", strconv.Itoa(i))
		tree.Set("correlated_"+strconv.Itoa(i), node)
	}
	tree.Delete("locations")
	if action == models.ActionViaRoute {
		tree.SetScalar("osrm", "compatibility")
	}

	var buf bytes.Buffer
	if err := tree.EncodeInfo(&buf); err != nil {
		return nil, fmt.Errorf("encode forward message: %w", err)
	}
	return buf.Bytes(), nil
}

type wayEntry struct {
	WayID         uint64  `json:"way_id"`
	CorrelatedLat float64 `json:"correlated_lat"`
	CorrelatedLon float64 `json:"correlated_lon"`
}

type locateEntry struct {
	// Ways is null on failure, never omitted.
	Ways     []wayEntry `json:"ways"`
	InputLat float64    `json:"input_lat"`
	InputLon float64    `json:"input_lon"`
	Reason   string     `json:"reason,omitempty"`
}

// ClientMessage builds the Locate JSON response: one object per location,
// order-aligned with the input. When jsonp is non-empty the array is
// wrapped in a call to the named function.
func ClientMessage(results []correlate.Result, jsonp string) ([]byte, error) {
	entries := make([]locateEntry, 0, len(results))
	for _, result := range results {
		entry := locateEntry{
			InputLat: round6(result.Input.Lat),
			InputLon: round6(result.Input.Lon),
		}
		if result.Failed() {
			entry.Reason = result.Err.Error()
		} else {
			entry.Ways = make([]wayEntry, 0, len(result.Matches))
			for _, match := range result.Matches {
				entry.Ways = append(entry.Ways, wayEntry{
					WayID:         match.WayID,
					CorrelatedLat: round6(match.Lat),
					CorrelatedLon: round6(match.Lon),
				})
			}
		}
		entries = append(entries, entry)
	}

	body, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode locate response: %w", err)
	}
	if jsonp != "" {
		wrapped := make([]byte, 0, len(jsonp)+len(body)+2)
		wrapped = append(wrapped, jsonp...)
		wrapped = append(wrapped, '(')
		wrapped = append(wrapped, body...)
		wrapped = append(wrapped, ')')
		return wrapped, nil
	}
	return body, nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func format6(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
