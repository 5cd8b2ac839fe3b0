package fixtures

import (
	"fmt"
	"iter"
	"reflect"
	"strings"
)

// Ref is a fixture reference inside a test declaration: either bare (every
// generated tuple takes part) or pinned to one explicit tuple.
type Ref struct {
	fixture Fixture
	name    string
	tuple   any
	pinned  bool
}

// Use references f without arguments.
func Use(f Fixture) Ref {
	r := Ref{fixture: f}
	if f != nil {
		r.name = f.Name()
	}
	return r
}

// PinAny references f with an explicit tuple. The tuple must have the Go type
// of the fixture parameters.
func PinAny(f Fixture, tuple any) Ref {
	r := Use(f)
	r.tuple = tuple
	r.pinned = true
	return r
}

// byName references a fixture that is looked up in a suite namespace when the
// test runs.
func byName(name string, tuple any, pinned bool) Ref {
	return Ref{name: name, tuple: tuple, pinned: pinned}
}

func (r Ref) Name() string {
	return r.name
}

func (r Ref) Fixture() Fixture {
	return r.fixture
}

func (r Ref) Pinned() bool {
	return r.pinned
}

// PinnedTuple returns the explicit tuple of a pinned reference.
func (r Ref) PinnedTuple() any {
	return r.tuple
}

func (r Ref) String() string {
	if !r.pinned {
		return r.name
	}
	return r.name + formatTuple(r.tuple)
}

// formatTuple renders a tuple as an argument list: (21) or (6, 7).
func formatTuple(tuple any) string {
	if s, ok := tuple.(fmt.Stringer); ok {
		return "(" + s.String() + ")"
	}
	v := reflect.ValueOf(tuple)
	if !v.IsValid() {
		return "()"
	}
	if v.Kind() != reflect.Struct {
		return fmt.Sprintf("(%v)", tuple)
	}
	args := make([]string, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		if !v.Type().Field(i).IsExported() {
			continue
		}
		args = append(args, fmt.Sprintf("%v", v.Field(i).Interface()))
	}
	return "(" + strings.Join(args, ", ") + ")"
}

// Source restartably produces the tuples of one resolved reference. Every
// call returns a fresh sequence.
type Source func() iter.Seq[any]

// Resolve turns a reference into its tuple source. A bare reference to a
// fixture with parameters and no generator is a *UsageError. A pinned
// reference yields its tuple once and never consults the generator.
func Resolve(ref Ref) (Source, error) {
	if ref.fixture == nil {
		return nil, &UsageError{Fixture: ref.name, Reason: "unknown fixture"}
	}
	if ref.pinned {
		tuple := ref.tuple
		return func() iter.Seq[any] {
			return func(yield func(any) bool) {
				yield(tuple)
			}
		}, nil
	}
	if _, ok := ref.fixture.Parameters(); !ok {
		return nil, &UsageError{Fixture: ref.name, Reason: ErrMissingGenerator}
	}
	f := ref.fixture
	return func() iter.Seq[any] {
		seq, _ := f.Parameters()
		return seq
	}, nil
}
