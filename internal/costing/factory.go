package costing

// Constructor builds a cost model from resolved options.
type Constructor func(opts Options) (*Model, error)

// Factory creates cost models by name. The built-in modes are registered at
// construction; extensions may register more before the worker starts. Not
// safe for concurrent mutation, per the one-worker-one-factory model.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory returns a factory with the built-in travel modes registered.
func NewFactory() *Factory {
	f := &Factory{constructors: map[string]Constructor{}}
	f.Register(ModeAuto, newAutoModel)
	f.Register(ModeAutoShorter, newAutoShorterModel)
	f.Register(ModeBus, newBusModel)
	f.Register(ModeBicycle, newBicycleModel)
	f.Register(ModePedestrian, newPedestrianModel)
	return f
}

// Register adds or replaces a constructor for a costing name.
func (f *Factory) Register(name string, c Constructor) {
	f.constructors[name] = c
}

// Create builds the named model, failing with UnknownCostingError when the
// name has no registered constructor.
func (f *Factory) Create(name string, opts Options) (*Model, error) {
	c, ok := f.constructors[name]
	if !ok {
		return nil, &UnknownCostingError{Name: name}
	}
	return c(opts)
}
