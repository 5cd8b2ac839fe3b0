package suitefile

import (
	"fmt"
	"strings"
)

// File is a suite file: a namespace of fixtures and the tests that use them.
type File struct {
	// Name of the suite, files without a name get one derived from their path
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Requires is a semver constraint on the engine version, e.g. ">= 0.1.0"
	Requires string        `yaml:"requires,omitempty" json:"requires,omitempty"`
	Fixtures []FixtureSpec `yaml:"fixtures,omitempty" json:"fixtures,omitempty"`
	Tests    []TestSpec    `yaml:"tests,omitempty" json:"tests,omitempty"`

	Path string `yaml:"-" json:"path,omitempty"`
}

// FixtureSpec declares a fixture. Setup and TearDown are CEL expressions
// over the parameters; TearDown also sees the bound value as "value".
type FixtureSpec struct {
	Name string `yaml:"name" json:"name"`
	// Params are the ordered parameter names
	Params []string `yaml:"params,omitempty" json:"params,omitempty"`
	// Values is the generator: each item is a map keyed by parameter name, a
	// positional list, or a scalar for single parameter fixtures
	Values []any `yaml:"values,omitempty" json:"values,omitempty"`
	// Setup computes the bound value, defaults to the parameter map
	Setup string `yaml:"setup,omitempty" json:"setup,omitempty"`
	// TearDown must evaluate to true
	TearDown string `yaml:"teardown,omitempty" json:"teardown,omitempty"`
	// Describe is a gomplate template over the parameters used in diagnostics
	Describe string `yaml:"describe,omitempty" json:"describe,omitempty"`
}

// HasGenerator reports whether the fixture can be referenced bare.
func (f FixtureSpec) HasGenerator() bool {
	return len(f.Params) == 0 || f.Values != nil
}

// TestSpec declares a test. Fixtures are references such as "mul" or
// "double(21)"; every Assert expression must evaluate to true.
type TestSpec struct {
	Name     string   `yaml:"name" json:"name"`
	Fixtures []string `yaml:"fixtures,omitempty" json:"fixtures,omitempty"`
	Assert   []string `yaml:"assert,omitempty" json:"assert,omitempty"`
}

// Tuple is the parameter tuple of a suite file fixture.
type Tuple struct {
	Names  []string
	Values []any
}

// Map returns the tuple keyed by parameter name.
func (t Tuple) Map() map[string]any {
	m := make(map[string]any, len(t.Names))
	for i, name := range t.Names {
		m[name] = t.Values[i]
	}
	return m
}

func (t Tuple) String() string {
	parts := make([]string, len(t.Names))
	for i, name := range t.Names {
		parts[i] = fmt.Sprintf("%s:%v", name, t.Values[i])
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// normalize converts decoded YAML numbers to int64 and float64 so CEL never
// sees a mix of signed and unsigned integers.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, item := range n {
			out[k] = normalize(item)
		}
		return out
	default:
		return v
	}
}
