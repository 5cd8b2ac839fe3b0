package fixtures

import (
	"fmt"
	"iter"
)

// Assignment is the tuple chosen for one fixture reference in an invocation.
type Assignment struct {
	Ref   Ref
	Tuple any
}

// Invocation is one element of the cross product: one assignment per
// referenced fixture, in declared order.
type Invocation struct {
	Index       int
	Assignments []Assignment
}

// Tuples returns the assigned tuples in declared order.
func (inv Invocation) Tuples() []any {
	out := make([]any, len(inv.Assignments))
	for i, a := range inv.Assignments {
		out[i] = a.Tuple
	}
	return out
}

// Expand resolves every reference and returns the invocations of their cross
// product. The first reference is the outermost loop, the last the innermost.
// Inner sources are re-derived for every outer tuple. Resolution errors are
// reported before anything is enumerated.
//
// A test without references has exactly one invocation with no assignments.
func Expand(refs []Ref) (iter.Seq[Invocation], error) {
	sources := make([]Source, len(refs))
	seen := make(map[string]bool, len(refs))
	for i, ref := range refs {
		if seen[ref.name] {
			return nil, &UsageError{Fixture: ref.name, Reason: fmt.Sprintf("fixture '%s' is referenced more than once", ref.name)}
		}
		seen[ref.name] = true
		src, err := Resolve(ref)
		if err != nil {
			return nil, err
		}
		sources[i] = src
	}

	return func(yield func(Invocation) bool) {
		index := 0
		current := make([]Assignment, len(refs))
		var loop func(depth int) bool
		loop = func(depth int) bool {
			if depth == len(refs) {
				inv := Invocation{Index: index, Assignments: append([]Assignment(nil), current...)}
				index++
				return yield(inv)
			}
			for tuple := range sources[depth]() {
				current[depth] = Assignment{Ref: refs[depth], Tuple: tuple}
				if !loop(depth + 1) {
					return false
				}
			}
			return true
		}
		loop(0)
	}, nil
}

// Count returns the number of invocations Expand would produce.
func Count(refs []Ref) (int, error) {
	seq, err := Expand(refs)
	if err != nil {
		return 0, err
	}
	n := 0
	for range seq {
		n++
	}
	return n, nil
}
