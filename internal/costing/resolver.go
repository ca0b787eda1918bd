package costing

import (
	"github.com/routecraft/anchor/internal/jsontree"
)

// Resolve looks up the configured defaults for a costing name, merges any
// per-request overrides on top and constructs the model.
//
// The merge is a shallow per-key overwrite: an override replaces or adds
// individual option keys, keys absent from the override keep their default.
//
// The defaults lookup and the factory lookup are two independent checks that
// surface the same UnknownCostingError; a name can be configured without
// being constructible and vice versa.
func Resolve(name string, defaults map[string]Options, request *jsontree.Node, factory *Factory) (*Model, error) {
	base, ok := defaults[name]
	if !ok {
		return nil, &UnknownCostingError{Name: name}
	}
	opts := base.Clone()

	if parent, err := request.Object("costing_options"); err == nil {
		if override, err := parent.Object(name); err == nil {
			for _, key := range override.Keys() {
				child, _ := override.Child(key)
				if value, isScalar := child.Scalar(); isScalar {
					opts[key] = value
				}
			}
		}
	}

	return factory.Create(name, opts)
}
