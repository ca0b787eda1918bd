package worker

import (
	"net/url"
	"sort"

	"github.com/routecraft/anchor/internal/jsontree"
	"github.com/routecraft/anchor/internal/models"
)

// RawRequest is the HTTP-shaped job handed to a worker. One per job,
// discarded after decoding.
type RawRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Decode normalizes the three accepted input shapes into one request tree:
// an inline JSON document in the "json" query parameter, a JSON body, or
// bare query parameters. It performs structural normalization only; no
// semantic validation happens here.
func Decode(raw RawRequest, action models.Action) (*jsontree.Node, error) {
	tree, err := baseTree(raw)
	if err != nil {
		return nil, err
	}

	// Fold the remaining query parameters into the tree. Ordering of
	// url.Values is undefined, so iterate keys sorted for determinism.
	keys := make([]string, 0, len(raw.Query))
	for key := range raw.Query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values := raw.Query[key]
		if key == "json" || key == "" || len(values) == 0 {
			continue
		}
		if len(values) == 1 {
			tree.SetScalar(key, values[0])
			continue
		}
		array := jsontree.NewArray()
		for _, value := range values {
			array.Append(jsontree.NewScalar(value))
		}
		tree.Set(key, array)
	}

	if action == models.ActionViaRoute {
		if err := convertViaRouteLocations(tree); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// baseTree picks the JSON source: the json query parameter wins over the
// body, an empty request starts from an empty tree.
func baseTree(raw RawRequest) (*jsontree.Node, error) {
	var doc []byte
	if values, ok := raw.Query["json"]; ok && len(values) > 0 && values[0] != "" {
		doc = []byte(values[0])
	} else if len(raw.Body) > 0 {
		doc = raw.Body
	} else {
		return jsontree.NewObject(), nil
	}

	tree, err := jsontree.Parse(doc)
	if err != nil || tree.Kind() != jsontree.KindObject {
		return nil, ErrParse
	}
	return tree, nil
}

// convertViaRouteLocations rewrites the OSRM-compatible "loc" CSV waypoints
// into the canonical "locations" array of {lat, lon} objects.
func convertViaRouteLocations(tree *jsontree.Node) error {
	loc, ok := tree.Child("loc")
	if !ok {
		return nil
	}

	var waypoints []string
	if value, isScalar := loc.Scalar(); isScalar {
		waypoints = append(waypoints, value)
	} else {
		for _, item := range loc.Items() {
			value, isScalar := item.Scalar()
			if !isScalar {
				return models.ErrMalformedLocation
			}
			waypoints = append(waypoints, value)
		}
	}

	locations := jsontree.NewArray()
	for _, waypoint := range waypoints {
		parsed, err := models.LocationFromCSV(waypoint)
		if err != nil {
			return err
		}
		entry := jsontree.NewObject()
		entry.Set("lat", jsontree.NewFloat(parsed.Lat))
		entry.Set("lon", jsontree.NewFloat(parsed.Lon))
		locations.Append(entry)
	}
	tree.Set("locations", locations)
	tree.Delete("loc")
	return nil
}
