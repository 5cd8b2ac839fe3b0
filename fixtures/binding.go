package fixtures

import "slices"

// Binding is the typed pairing of a setup value with its instance.
type Binding[P any, R any] struct {
	Value   R
	Fixture *Instance[P]
}

func (b Binding[P, R]) Decompose() (R, *Instance[P]) {
	return b.Value, b.Fixture
}

func (b Binding[P, R]) Val() R {
	return b.Value
}

func (b Binding[P, R]) Params() P {
	return b.Fixture.Params
}

// Bindings holds the bindings of one invocation keyed by fixture name, in
// declaration order.
type Bindings struct {
	names  []string
	byName map[string]AnyBinding
}

func newBindings(size int) *Bindings {
	return &Bindings{
		names:  make([]string, 0, size),
		byName: make(map[string]AnyBinding, size),
	}
}

func (b *Bindings) add(name string, binding AnyBinding) {
	if _, exists := b.byName[name]; !exists {
		b.names = append(b.names, name)
	}
	b.byName[name] = binding
}

func (b Bindings) Get(name string) (AnyBinding, bool) {
	binding, ok := b.byName[name]
	return binding, ok
}

// Value returns the value bound by the named fixture, or nil.
func (b Bindings) Value(name string) any {
	return b.byName[name].Value
}

func (b Bindings) Names() []string {
	return slices.Clone(b.names)
}

func (b Bindings) Len() int {
	return len(b.names)
}
