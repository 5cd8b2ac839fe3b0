package suitefile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"

	"github.com/flanksource/galvanic/fixtures"
)

// Load reads and validates a suite file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	parse := Parse
	if isMarkdown(path) {
		parse = ParseMarkdown
	}
	file, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file.Path = path
	if file.Name == "" {
		file.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return file, nil
}

// Parse decodes and validates a suite file
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(&file)
}

func finish(file *File) (*File, error) {
	for i := range file.Fixtures {
		if file.Fixtures[i].Values != nil {
			file.Fixtures[i].Values = lo.Map(file.Fixtures[i].Values, func(v any, _ int) any { return normalize(v) })
		}
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// LoadGlob loads every suite file matching the patterns
func LoadGlob(patterns ...string) ([]*File, error) {
	var files []*File
	seen := map[string]bool{}
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if len(matches) == 0 {
			logger.Warnf("No files matched pattern: %s", pattern)
			continue
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			file, err := Load(path)
			if err != nil {
				return nil, err
			}
			logger.V(3).Infof("Loaded %s: %d fixtures, %d tests", path, len(file.Fixtures), len(file.Tests))
			files = append(files, file)
		}
	}
	return files, nil
}

// Validate checks names, references, engine version and compiles every CEL
// expression against the variables in its scope.
func (f *File) Validate() error {
	if f.Requires != "" {
		constraint, err := semver.NewConstraint(f.Requires)
		if err != nil {
			return fmt.Errorf("invalid requires constraint '%s': %w", f.Requires, err)
		}
		if !constraint.Check(semver.MustParse(fixtures.Version)) {
			return fmt.Errorf("suite requires engine %s, running %s", f.Requires, fixtures.Version)
		}
	}

	evaluator := NewCELEvaluator()
	specs := map[string]FixtureSpec{}
	for _, spec := range f.Fixtures {
		if !identifier.MatchString(spec.Name) {
			return fmt.Errorf("invalid fixture name '%s'", spec.Name)
		}
		if _, exists := specs[spec.Name]; exists {
			return fmt.Errorf("fixture '%s' declared more than once", spec.Name)
		}
		if dup := lo.FindDuplicates(spec.Params); len(dup) > 0 {
			return fmt.Errorf("fixture '%s': duplicate parameters %v", spec.Name, dup)
		}
		for _, p := range spec.Params {
			if !identifier.MatchString(p) || p == "value" {
				return fmt.Errorf("fixture '%s': invalid parameter name '%s'", spec.Name, p)
			}
		}
		for i, v := range spec.Values {
			if _, err := spec.tuple(v); err != nil {
				return fmt.Errorf("fixture '%s': values[%d]: %w", spec.Name, i, err)
			}
		}
		if err := evaluator.Validate(spec.Setup, spec.Params...); err != nil {
			return fmt.Errorf("fixture '%s' setup: %w", spec.Name, err)
		}
		if err := evaluator.Validate(spec.TearDown, append(slices.Clone(spec.Params), "value")...); err != nil {
			return fmt.Errorf("fixture '%s' teardown: %w", spec.Name, err)
		}
		specs[spec.Name] = spec
	}

	tests := map[string]bool{}
	for _, test := range f.Tests {
		if test.Name == "" {
			return fmt.Errorf("test name is required")
		}
		if tests[test.Name] {
			return fmt.Errorf("test '%s' declared more than once", test.Name)
		}
		tests[test.Name] = true

		var names []string
		for _, raw := range test.Fixtures {
			ref, err := ParseRef(raw)
			if err != nil {
				return fmt.Errorf("test '%s': %w", test.Name, err)
			}
			spec, ok := specs[ref.Name]
			if !ok {
				return fmt.Errorf("test '%s': unknown fixture '%s'", test.Name, ref.Name)
			}
			if ref.Pinned && len(ref.Args) != len(spec.Params) {
				return fmt.Errorf("test '%s': fixture '%s' takes %d arguments, got %d", test.Name, ref.Name, len(spec.Params), len(ref.Args))
			}
			names = append(names, ref.Name)
		}
		for _, expr := range test.Assert {
			if err := evaluator.Validate(expr, names...); err != nil {
				return fmt.Errorf("test '%s' assert: %w", test.Name, err)
			}
		}
	}
	return nil
}

var (
	identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	refPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?:\((.*)\))?\s*$`)
)

// Ref is a parsed fixture reference.
type Ref struct {
	Name   string
	Pinned bool
	Args   []any
}

// ParseRef parses "name" or "name(arg, ...)". Arguments are YAML flow
// scalars, so strings may be quoted.
func ParseRef(s string) (Ref, error) {
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return Ref{}, fmt.Errorf("invalid fixture reference '%s'", s)
	}
	ref := Ref{Name: m[1]}
	if !strings.Contains(s, "(") {
		return ref, nil
	}
	ref.Pinned = true
	var args []any
	if err := yaml.Unmarshal([]byte("["+m[2]+"]"), &args); err != nil {
		return Ref{}, fmt.Errorf("invalid arguments in '%s': %w", s, err)
	}
	ref.Args = lo.Map(args, func(v any, _ int) any { return normalize(v) })
	return ref, nil
}

// tuple converts one generator item to a tuple.
func (f FixtureSpec) tuple(item any) (Tuple, error) {
	t := Tuple{Names: f.Params, Values: make([]any, len(f.Params))}
	switch v := item.(type) {
	case map[string]any:
		if len(v) != len(f.Params) {
			return t, fmt.Errorf("expected keys %v, got %v", f.Params, lo.Keys(v))
		}
		for i, name := range f.Params {
			value, ok := v[name]
			if !ok {
				return t, fmt.Errorf("missing parameter '%s'", name)
			}
			t.Values[i] = value
		}
	case []any:
		if len(v) != len(f.Params) {
			return t, fmt.Errorf("expected %d values, got %d", len(f.Params), len(v))
		}
		copy(t.Values, v)
	default:
		if len(f.Params) != 1 {
			return t, fmt.Errorf("a scalar value requires exactly one parameter, fixture has %d", len(f.Params))
		}
		t.Values[0] = v
	}
	return t, nil
}

// pinned converts the arguments of a pinned reference to a tuple.
func (f FixtureSpec) pinned(args []any) (Tuple, error) {
	if len(args) != len(f.Params) {
		return Tuple{}, fmt.Errorf("fixture '%s' takes %d arguments, got %d", f.Name, len(f.Params), len(args))
	}
	return Tuple{Names: f.Params, Values: args}, nil
}
