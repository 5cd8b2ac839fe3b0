package fixtures

import (
	"fmt"
	"slices"
)

// Registry is the fixture namespace of a suite. Names are unique within a
// registry; registries are never shared between suites.
type Registry struct {
	fixtures map[string]Fixture
	order    []string
}

// NewRegistry creates an empty fixture namespace
func NewRegistry() *Registry {
	return &Registry{
		fixtures: make(map[string]Fixture),
	}
}

// Register adds a fixture to the namespace
func (r *Registry) Register(f Fixture) error {
	if f == nil {
		return fmt.Errorf("cannot register a nil fixture")
	}
	name := f.Name()
	if name == "" {
		return fmt.Errorf("fixture name is required")
	}
	if _, exists := r.fixtures[name]; exists {
		return fmt.Errorf("fixture '%s' already registered", name)
	}
	r.fixtures[name] = f
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a fixture by name
func (r *Registry) Get(name string) (Fixture, bool) {
	f, ok := r.fixtures[name]
	return f, ok
}

// List returns the registered fixture names in registration order
func (r *Registry) List() []string {
	return slices.Clone(r.order)
}

// Bind fills in the fixture of a reference declared by name. References that
// already carry a fixture are returned unchanged.
func (r *Registry) Bind(ref Ref) (Ref, error) {
	if ref.fixture != nil {
		return ref, nil
	}
	f, ok := r.fixtures[ref.name]
	if !ok {
		return ref, &UsageError{Fixture: ref.name, Reason: fmt.Sprintf("unknown fixture (registered: %v)", r.order)}
	}
	ref.fixture = f
	return ref, nil
}
