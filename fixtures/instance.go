package fixtures

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Instance is a fixture realized for one parameter tuple. It belongs to a
// single invocation.
type Instance[P any] struct {
	Params P

	name     string
	declared []string
	members  map[string]any
	describe func(P) string
}

func (f *Instance[P]) FixtureName() string {
	return f.name
}

func (f *Instance[P]) Tuple() any {
	return f.Params
}

// Set assigns a declared member. Assigning an undeclared member panics with
// a *UsageError.
func (f *Instance[P]) Set(member string, value any) {
	if !slices.Contains(f.declared, member) {
		panic(&UsageError{Fixture: f.name, Reason: fmt.Sprintf("member '%s' is not declared", member)})
	}
	f.members[member] = value
}

// Get returns a member and whether it has been assigned.
func (f *Instance[P]) Get(member string) (any, bool) {
	v, ok := f.members[member]
	return v, ok
}

// Member returns a member converted to V. ok is false when the member is
// unset or holds a different type.
func Member[V any](f interface{ Get(string) (any, bool) }, name string) (V, bool) {
	raw, ok := f.Get(name)
	if !ok {
		var zero V
		return zero, false
	}
	v, ok := raw.(V)
	return v, ok
}

func (f *Instance[P]) String() string {
	var b strings.Builder
	b.WriteString(f.name)
	switch {
	case f.describe != nil:
		b.WriteString(f.describe(f.Params))
	case reflect.TypeOf(f.Params) != nil && reflect.TypeOf(f.Params).Kind() == reflect.Struct:
		fmt.Fprintf(&b, "%+v", f.Params)
	default:
		fmt.Fprintf(&b, "(%v)", f.Params)
	}
	if len(f.declared) > 0 {
		parts := make([]string, 0, len(f.declared))
		for _, m := range f.declared {
			if v, ok := f.members[m]; ok {
				parts = append(parts, fmt.Sprintf("%s:%v", m, v))
			} else {
				parts = append(parts, m+":<unset>")
			}
		}
		fmt.Fprintf(&b, " members{%s}", strings.Join(parts, " "))
	}
	return b.String()
}
