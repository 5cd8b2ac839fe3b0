package fixtures

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
)

// Definition is a typed fixture declaration. P is the parameter tuple (a
// struct for several parameters, a scalar for one, NoParams for none) and R
// is the type of the value bound by setup.
//
// Definitions are immutable: the With* methods return modified copies.
type Definition[P any, R any] struct {
	name      string
	members   []string
	generator func() iter.Seq[P]
	setup     func(t *T, f *Instance[P]) R
	tearDown  func(t *T, f *Instance[P])
	describe  func(P) string
}

var _ Fixture = (*Definition[NoParams, int])(nil)

// New declares a fixture with the given name and setup.
func New[P any, R any](name string, setup func(t *T, f *Instance[P]) R) *Definition[P, R] {
	if setup == nil {
		panic(&UsageError{Fixture: name, Reason: "setup is required"})
	}
	return &Definition[P, R]{name: name, setup: setup}
}

func (d *Definition[P, R]) clone() *Definition[P, R] {
	c := *d
	c.members = slices.Clone(d.members)
	return &c
}

// WithParams attaches a parameter generator. gen is invoked each time the
// parameters are derived, so it must return a new sequence on every call.
// It is ignored for fixtures without parameters.
func (d *Definition[P, R]) WithParams(gen func() iter.Seq[P]) *Definition[P, R] {
	c := d.clone()
	c.generator = gen
	return c
}

// WithValues attaches a generator yielding the given tuples in order.
func (d *Definition[P, R]) WithValues(tuples ...P) *Definition[P, R] {
	values := slices.Clone(tuples)
	return d.WithParams(func() iter.Seq[P] {
		return slices.Values(values)
	})
}

// WithMembers declares internal state fields. Members start unset for every
// instance and may be assigned during setup.
func (d *Definition[P, R]) WithMembers(names ...string) *Definition[P, R] {
	c := d.clone()
	c.members = append(c.members, names...)
	return c
}

// WithTearDown attaches a teardown.
func (d *Definition[P, R]) WithTearDown(fn func(t *T, f *Instance[P])) *Definition[P, R] {
	c := d.clone()
	c.tearDown = fn
	return c
}

// WithDescriber overrides how the parameters appear in the debug
// representation of an instance.
func (d *Definition[P, R]) WithDescriber(fn func(P) string) *Definition[P, R] {
	c := d.clone()
	c.describe = fn
	return c
}

func (d *Definition[P, R]) Name() string {
	return d.name
}

func (d *Definition[P, R]) Members() []string {
	return slices.Clone(d.members)
}

func (d *Definition[P, R]) HasParameters() bool {
	t := reflect.TypeFor[P]()
	return t.Kind() != reflect.Struct || t.NumField() > 0
}

// HasGenerator reports whether the fixture can be referenced without
// arguments.
func (d *Definition[P, R]) HasGenerator() bool {
	return !d.HasParameters() || d.generator != nil
}

// Values returns the typed parameter sequence, see Fixture.Parameters.
func (d *Definition[P, R]) Values() (iter.Seq[P], bool) {
	if !d.HasParameters() {
		return func(yield func(P) bool) {
			var empty P
			yield(empty)
		}, true
	}
	if d.generator == nil {
		return nil, false
	}
	gen := d.generator
	return func(yield func(P) bool) {
		for p := range gen() {
			if !yield(p) {
				return
			}
		}
	}, true
}

func (d *Definition[P, R]) Parameters() (iter.Seq[any], bool) {
	values, ok := d.Values()
	if !ok {
		return nil, false
	}
	return func(yield func(any) bool) {
		for p := range values {
			if !yield(p) {
				return
			}
		}
	}, true
}

// MustParameters is Parameters for callers that cannot handle a missing
// generator. It panics with a *UsageError when there is none.
func (d *Definition[P, R]) MustParameters() iter.Seq[any] {
	seq, ok := d.Parameters()
	if !ok {
		panic(&UsageError{Fixture: d.name, Reason: ErrMissingGenerator})
	}
	return seq
}

// Parameterise returns one fresh instance per generated tuple.
func (d *Definition[P, R]) Parameterise() (iter.Seq[*Instance[P]], bool) {
	values, ok := d.Values()
	if !ok {
		return nil, false
	}
	return func(yield func(*Instance[P]) bool) {
		for p := range values {
			if !yield(d.New(p)) {
				return
			}
		}
	}, true
}

// New constructs an instance for p without running setup.
func (d *Definition[P, R]) New(p P) *Instance[P] {
	return &Instance[P]{
		Params:   p,
		name:     d.name,
		declared: d.members,
		members:  make(map[string]any, len(d.members)),
		describe: d.describe,
	}
}

func (d *Definition[P, R]) Construct(params any) (FixtureInstance, error) {
	p, ok := params.(P)
	if !ok {
		return nil, &UsageError{
			Fixture: d.name,
			Reason:  fmt.Sprintf("expected parameters of type %s, got %T", reflect.TypeFor[P](), params),
		}
	}
	return d.New(p), nil
}

// Bind runs setup on f and returns the typed binding.
func (d *Definition[P, R]) Bind(t *T, f *Instance[P]) Binding[P, R] {
	return Binding[P, R]{Value: d.setup(t, f), Fixture: f}
}

func (d *Definition[P, R]) Setup(t *T, inst FixtureInstance) AnyBinding {
	b := d.Bind(t, d.instance(inst))
	return AnyBinding{Value: b.Value, Fixture: b.Fixture}
}

func (d *Definition[P, R]) TearDown(t *T, inst FixtureInstance) {
	if d.tearDown == nil {
		return
	}
	d.tearDown(t, d.instance(inst))
}

func (d *Definition[P, R]) instance(inst FixtureInstance) *Instance[P] {
	f, ok := inst.(*Instance[P])
	if !ok {
		panic(&UsageError{Fixture: d.name, Reason: fmt.Sprintf("instance %T was not constructed by this fixture", inst)})
	}
	return f
}

// Ref references the fixture without arguments, so every generated tuple
// takes part in the cross product.
func (d *Definition[P, R]) Ref() Ref {
	return Use(d)
}

// Pin references the fixture with explicit arguments. The generator is not
// consulted for tests using this reference.
func (d *Definition[P, R]) Pin(p P) Ref {
	return PinAny(d, p)
}

// From returns the typed binding of this fixture in a test body. It fails the
// invocation when the test does not reference the fixture.
func (d *Definition[P, R]) From(b Bindings) Binding[P, R] {
	raw, ok := b.Get(d.name)
	if !ok {
		panic(fmt.Errorf("fixture '%s' is not bound in this test (bound: %v)", d.name, b.Names()))
	}
	value, ok := raw.Value.(R)
	if !ok && raw.Value != nil {
		panic(fmt.Errorf("fixture '%s' is bound to %T, not %s", d.name, raw.Value, reflect.TypeFor[R]()))
	}
	return Binding[P, R]{Value: value, Fixture: d.instance(raw.Fixture)}
}
