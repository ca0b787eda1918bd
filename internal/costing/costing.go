// Package costing resolves a costing name into a configured cost model.
// The traversal-cost internals belong to the path-finding stage; the worker
// only needs each model's options and its edge-admissibility filter.
package costing

import (
	"github.com/routecraft/anchor/internal/graph"
)

// Mode names of the built-in cost models.
const (
	ModeAuto        = "auto"
	ModeAutoShorter = "auto_shorter"
	ModeBus         = "bus"
	ModeBicycle     = "bicycle"
	ModePedestrian  = "pedestrian"
)

// Options are the resolved per-model settings. Values stay stringly typed
// the way they arrive from configuration and request trees; the consuming
// cost implementation parses what it understands.
type Options map[string]string

// Clone returns a shallow copy.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for key, value := range o {
		out[key] = value
	}
	return out
}

// EdgeFilter reports whether a directed edge is admissible for a model.
// Correlation uses it to discard edges the travel mode cannot use.
type EdgeFilter func(edge graph.DirectedEdge) bool

// Model is a fully configured cost model.
type Model struct {
	Name    string
	Options Options
	Filter  EdgeFilter
}

// UnknownCostingError is returned when a costing name has neither default
// configuration nor a registered constructor.
type UnknownCostingError struct {
	Name string
}

func (e *UnknownCostingError) Error() string {
	return "No costing method found for '" + e.Name + "'"
}

func accessFilter(mask graph.Access) EdgeFilter {
	return func(edge graph.DirectedEdge) bool {
		return edge.Access&mask != 0
	}
}

func newAutoModel(opts Options) (*Model, error) {
	return &Model{Name: ModeAuto, Options: opts, Filter: accessFilter(graph.AccessAuto)}, nil
}

// auto_shorter shares auto's admissibility; it differs only in edge costs,
// which are outside this worker.
func newAutoShorterModel(opts Options) (*Model, error) {
	return &Model{Name: ModeAutoShorter, Options: opts, Filter: accessFilter(graph.AccessAuto)}, nil
}

func newBusModel(opts Options) (*Model, error) {
	return &Model{Name: ModeBus, Options: opts, Filter: accessFilter(graph.AccessBus)}, nil
}

func newBicycleModel(opts Options) (*Model, error) {
	return &Model{Name: ModeBicycle, Options: opts, Filter: accessFilter(graph.AccessBicycle)}, nil
}

func newPedestrianModel(opts Options) (*Model, error) {
	return &Model{Name: ModePedestrian, Options: opts, Filter: accessFilter(graph.AccessPedestrian)}, nil
}
