package fixtures

import "iter"

// NoParams is the parameter tuple of a fixture that takes no parameters.
// Such a fixture has exactly one parameterisation: the empty tuple.
type NoParams = struct{}

// Fixture defines the interface every fixture variant implements.
// Implementations are usually built with New, but the engine only relies on
// this contract, so hand written fixtures work the same way.
type Fixture interface {
	// Name is the identifier tests use to reference the fixture and to look
	// up its binding inside a test body.
	Name() string

	// HasParameters reports whether the fixture declares at least one parameter.
	HasParameters() bool

	// Parameters returns the lazily produced sequence of parameter tuples.
	// ok is false when the fixture declares parameters but no generator.
	// Every call returns a fresh sequence yielding the same tuples.
	Parameters() (seq iter.Seq[any], ok bool)

	// Construct stores the tuple on a new instance. It has no side effects
	// beyond that.
	Construct(params any) (FixtureInstance, error)

	// Setup computes the bound value. It has exclusive access to inst and may
	// fail through t or by panicking.
	Setup(t *T, inst FixtureInstance) AnyBinding

	// TearDown runs exactly once per constructed instance, after setup and
	// body, whether or not they failed.
	TearDown(t *T, inst FixtureInstance)
}

// FixtureInstance is one concrete realization of a fixture bound to one
// parameter tuple.
type FixtureInstance interface {
	FixtureName() string
	Tuple() any
	// String is the debug representation used in failure diagnostics.
	String() string
}

// AnyBinding pairs the value produced by setup with the instance that
// produced it.
type AnyBinding struct {
	Value   any
	Fixture FixtureInstance
}

// Body is the code of a test, executed once per invocation.
type Body func(t *T, b Bindings)

// Test is a declared test: a name, the fixtures it references in declaration
// order and the body run for each combination of their parameters.
type Test struct {
	Name     string
	Fixtures []Ref
	Body     Body
}
