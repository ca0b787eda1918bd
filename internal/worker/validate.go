package worker

import (
	"context"

	"github.com/routecraft/anchor/internal/costing"
	"github.com/routecraft/anchor/internal/jsontree"
	"github.com/routecraft/anchor/internal/models"
)

// validate turns the decoded tree into the worker's per-job state: parsed
// locations and a resolved cost model. Errors carry user-facing messages.
func (w *Worker) validate(ctx context.Context, action models.Action, tree *jsontree.Node) error {
	entries, err := tree.Array("locations")
	if err != nil {
		param := "locations"
		if action == models.ActionViaRoute {
			param = "loc"
		}
		return &MissingParameterError{Param: param}
	}
	for _, entry := range entries {
		loc, err := parseLocation(entry)
		if err != nil {
			return err
		}
		w.locations = append(w.locations, loc)
		// Fail fast the moment the limit is crossed; nothing else about the
		// request matters once it is over budget. Locate is uncapped.
		if action != models.ActionLocate && len(w.locations) > w.maxRouteLocations {
			return &TooManyLocationsError{Max: w.maxRouteLocations}
		}
	}
	if len(w.locations) == 0 {
		return ErrInsufficientLocations
	}
	w.log.InfoContext(ctx, "Parsed request locations", "location_count", len(w.locations))

	name, err := tree.String("costing")
	if err != nil {
		return ErrMissingCosting
	}
	if name == "multimodal" {
		// Multimodal costing is not location-aware yet; treat the request as
		// pedestrian until it is.
		name = costing.ModePedestrian
	}

	model, err := costing.Resolve(name, w.costingDefaults, tree, w.factory)
	if err != nil {
		return err
	}
	w.cost = model
	return nil
}

// parseLocation reads one locations[] entry. lat and lon are required and
// range-checked; heading, name and type are optional.
func parseLocation(entry *jsontree.Node) (models.Location, error) {
	lat, err := entry.Float("lat")
	if err != nil {
		return models.Location{}, models.ErrMalformedLocation
	}
	lon, err := entry.Float("lon")
	if err != nil {
		return models.Location{}, models.ErrMalformedLocation
	}
	loc, err := models.NewLocation(lat, lon)
	if err != nil {
		return models.Location{}, err
	}
	if name, err := entry.String("name"); err == nil {
		loc.Name = name
	}
	if stopType, err := entry.String("type"); err == nil && stopType == string(models.StopTypeThrough) {
		loc.Type = models.StopTypeThrough
	}
	if heading, err := entry.Float("heading"); err == nil {
		loc.Heading = &heading
	}
	return loc, nil
}
