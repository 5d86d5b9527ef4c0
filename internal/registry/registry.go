package registry

// Module is the interface that all processor modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the processor handlers of a single application instance.
type Registry struct {
	HandlerRegistry map[string]*RegisteredProcessor
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		HandlerRegistry: make(map[string]*RegisteredProcessor),
	}
}

// Names returns the registered processor names in no particular order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.HandlerRegistry))
	for name := range r.HandlerRegistry {
		names = append(names, name)
	}
	return names
}
