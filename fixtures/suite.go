package fixtures

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/samber/lo"
)

// Suite groups fixtures and tests into an isolated namespace. Tests reference
// suite fixtures by name with Use and Pin.
type Suite struct {
	name     string
	registry *Registry
	tests    []Test
	errs     []error
	options  RunnerOptions
}

// NewSuite creates a named suite.
func NewSuite(name string) *Suite {
	return &Suite{name: name, registry: NewRegistry()}
}

// AnonymousSuite creates a suite named after its call site, so two anonymous
// suites never share a name.
func AnonymousSuite() *Suite {
	name := "__galvanic"
	if _, file, line, ok := runtime.Caller(1); ok {
		base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		name = fmt.Sprintf("__galvanic_%s_%d", base, line)
	}
	return NewSuite(name)
}

func (s *Suite) Name() string {
	return s.name
}

// WithOptions sets the runner options used by Execute and Run.
func (s *Suite) WithOptions(opts RunnerOptions) *Suite {
	s.options = opts
	return s
}

// Fixture registers fixtures in the suite namespace. Duplicate names are
// recorded and reported by Err.
func (s *Suite) Fixture(fixtures ...Fixture) *Suite {
	for _, f := range fixtures {
		if err := s.registry.Register(f); err != nil {
			s.errs = append(s.errs, fmt.Errorf("suite %s: %w", s.name, err))
		}
	}
	return s
}

// Use references a suite fixture by name, without arguments.
func (s *Suite) Use(name string) Ref {
	return byName(name, nil, false)
}

// Pin references a suite fixture by name with an explicit tuple.
func (s *Suite) Pin(name string, tuple any) Ref {
	return byName(name, tuple, true)
}

// Test declares a test. refs may mix suite references from Use and Pin with
// references built directly from fixture definitions.
func (s *Suite) Test(name string, body Body, refs ...Ref) *Suite {
	if lo.ContainsBy(s.tests, func(t Test) bool { return t.Name == name }) {
		s.errs = append(s.errs, fmt.Errorf("suite %s: test '%s' already declared", s.name, name))
		return s
	}
	s.tests = append(s.tests, Test{Name: name, Fixtures: refs, Body: body})
	return s
}

// Err returns the declaration errors of the suite.
func (s *Suite) Err() error {
	return errors.Join(s.errs...)
}

// Fixtures returns the names of the registered fixtures.
func (s *Suite) Fixtures() []string {
	return s.registry.List()
}

// Registry returns the suite namespace.
func (s *Suite) Registry() *Registry {
	return s.registry
}

// Tests returns the declared tests with their references bound to the suite
// namespace.
func (s *Suite) Tests() ([]Test, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	tests := make([]Test, len(s.tests))
	for i, t := range s.tests {
		bound, err := s.bind(t)
		if err != nil {
			return nil, err
		}
		tests[i] = bound
	}
	return tests, nil
}

// Lookup returns the named test bound to the suite namespace.
func (s *Suite) Lookup(name string) (Test, error) {
	for _, t := range s.tests {
		if t.Name == name {
			return s.bind(t)
		}
	}
	return Test{}, &UsageError{Test: name, Reason: "test not declared in suite " + s.name}
}

// Execute runs every test of the suite and returns their outcomes. A
// malformed test does not prevent the others from running; its usage error
// is joined into the returned error.
func (s *Suite) Execute() ([]*Outcome, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	runner := NewRunner(s.options)
	var outcomes []*Outcome
	var errs []error
	for _, t := range s.tests {
		test, err := s.bind(t)
		if err != nil {
			outcomes = append(outcomes, &Outcome{Test: t.Name, Err: err})
			errs = append(errs, err)
			continue
		}
		outcome, err := runner.Execute(test)
		outcomes = append(outcomes, outcome)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return outcomes, errors.Join(errs...)
}

// Run runs every test of the suite as a subtest of t.
func (s *Suite) Run(t *testing.T) {
	t.Helper()
	if err := s.Err(); err != nil {
		t.Fatalf("%v", err)
	}
	runner := NewRunner(s.options)
	for _, test := range s.tests {
		t.Run(test.Name, func(t *testing.T) {
			bound, err := s.bind(test)
			if err != nil {
				t.Fatalf("%v", err)
			}
			runner.RunTest(t, bound)
		})
	}
}

func (s *Suite) bind(t Test) (Test, error) {
	refs := make([]Ref, len(t.Fixtures))
	for i, ref := range t.Fixtures {
		bound, err := s.registry.Bind(ref)
		if err != nil {
			var usage *UsageError
			if errors.As(err, &usage) {
				usage.Test = t.Name
			}
			return t, err
		}
		refs[i] = bound
	}
	return Test{Name: t.Name, Fixtures: refs, Body: t.Body}, nil
}
