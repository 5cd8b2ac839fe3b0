package suitefile

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/flanksource/galvanic/fixtures"
)

// Fixture is the engine form of a suite file fixture. The bound value is the
// result of the setup expression, also kept in the "value" member.
type Fixture = fixtures.Definition[Tuple, any]

// NewFixture turns a fixture declaration into an engine fixture.
func NewFixture(spec FixtureSpec, eval *CELEvaluator) (*Fixture, error) {
	def := fixtures.New(spec.Name, func(t *fixtures.T, f *fixtures.Instance[Tuple]) any {
		vars := f.Params.Map()
		if spec.Setup == "" {
			f.Set("value", vars)
			return vars
		}
		value, err := eval.Evaluate(spec.Setup, vars)
		if err != nil {
			t.Fatalf("setup of %s: %v", spec.Name, err)
		}
		f.Set("value", value)
		return value
	}).WithMembers("value")

	if spec.Describe != "" {
		def = def.WithDescriber(func(p Tuple) string {
			s, err := eval.Describe(spec.Describe, p)
			if err != nil {
				logger.Warnf("describe of %s: %v", spec.Name, err)
				return p.String()
			}
			return s
		})
	}

	if spec.TearDown != "" {
		def = def.WithTearDown(func(t *fixtures.T, f *fixtures.Instance[Tuple]) {
			value, ok := f.Get("value")
			if !ok {
				// setup did not complete, there is no value to check
				return
			}
			vars := f.Params.Map()
			vars["value"] = value
			passed, err := eval.EvaluateBool(spec.TearDown, vars)
			if err != nil {
				t.Fatalf("teardown of %s: %v", spec.Name, err)
			}
			if !passed {
				t.Errorf("teardown condition of %s failed: %s", spec.Name, spec.TearDown)
			}
		})
	}

	if !spec.HasGenerator() {
		return def, nil
	}
	if len(spec.Params) == 0 {
		return def.WithValues(Tuple{}), nil
	}
	tuples := make([]Tuple, len(spec.Values))
	for i, v := range spec.Values {
		tuple, err := spec.tuple(v)
		if err != nil {
			return nil, fmt.Errorf("fixture '%s': values[%d]: %w", spec.Name, i, err)
		}
		tuples[i] = tuple
	}
	return def.WithValues(tuples...), nil
}

// Build turns the file into a suite. Only tests whose name matches filter (a
// glob) are declared; an empty filter keeps every test.
func (f *File) Build(filter string, opts fixtures.RunnerOptions) (*fixtures.Suite, error) {
	if filter != "" && !doublestar.ValidatePattern(filter) {
		return nil, fmt.Errorf("invalid filter '%s'", filter)
	}
	eval := NewCELEvaluator()
	suite := fixtures.NewSuite(f.Name).WithOptions(opts)

	specs := lo.KeyBy(f.Fixtures, func(s FixtureSpec) string { return s.Name })
	for _, spec := range f.Fixtures {
		fx, err := NewFixture(spec, eval)
		if err != nil {
			return nil, err
		}
		suite.Fixture(fx)
	}

	for _, test := range f.Tests {
		if !matches(filter, test.Name) {
			logger.V(2).Infof("Skipping %s, does not match %s", test.Name, filter)
			continue
		}

		refs := make([]fixtures.Ref, 0, len(test.Fixtures))
		for _, raw := range test.Fixtures {
			ref, err := ParseRef(raw)
			if err != nil {
				return nil, fmt.Errorf("test '%s': %w", test.Name, err)
			}
			if !ref.Pinned {
				refs = append(refs, suite.Use(ref.Name))
				continue
			}
			spec, ok := specs[ref.Name]
			if !ok {
				return nil, fmt.Errorf("test '%s': unknown fixture '%s'", test.Name, ref.Name)
			}
			tuple, err := spec.pinned(ref.Args)
			if err != nil {
				return nil, fmt.Errorf("test '%s': %w", test.Name, err)
			}
			refs = append(refs, suite.Pin(ref.Name, tuple))
		}
		suite.Test(test.Name, assertions(test, eval), refs...)
	}
	return suite, suite.Err()
}

func matches(filter, name string) bool {
	if filter == "" {
		return true
	}
	ok, err := doublestar.Match(filter, name)
	return err == nil && ok
}

// assertions is the body of a suite file test. Every fixture is visible by
// name as its parameters plus "value".
func assertions(test TestSpec, eval *CELEvaluator) fixtures.Body {
	return func(t *fixtures.T, b fixtures.Bindings) {
		vars := make(map[string]any, b.Len())
		for _, name := range b.Names() {
			binding, _ := b.Get(name)
			m := map[string]any{}
			if tuple, ok := binding.Fixture.Tuple().(Tuple); ok {
				m = tuple.Map()
			}
			m["value"] = binding.Value
			vars[name] = m
		}
		for _, expr := range test.Assert {
			passed, err := eval.EvaluateBool(expr, vars)
			if err != nil {
				t.Errorf("%v", err)
				continue
			}
			if !passed {
				t.Errorf("assertion failed: %s", expr)
			}
		}
	}
}
