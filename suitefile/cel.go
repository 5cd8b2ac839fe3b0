package suitefile

import (
	"fmt"
	"strings"

	"github.com/flanksource/gomplate/v3"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// CELEvaluator compiles suite file expressions with cel-go and evaluates them
// with gomplate
type CELEvaluator struct{}

func NewCELEvaluator() *CELEvaluator {
	return &CELEvaluator{}
}

// Validate compiles expression with the given variables declared as dynamic
// values. Unknown identifiers and syntax errors are reported.
func (e *CELEvaluator) Validate(expression string, variables ...string) error {
	if strings.TrimSpace(expression) == "" {
		return nil
	}

	opts := []cel.EnvOption{cel.StdLib(), ext.Strings()}
	for _, v := range variables {
		opts = append(opts, cel.Variable(v, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return fmt.Errorf("failed to create CEL environment: %w", err)
	}

	_, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid CEL expression '%s': %w", expression, issues.Err())
	}
	return nil
}

// Evaluate runs expression against data
func (e *CELEvaluator) Evaluate(expression string, data map[string]any) (any, error) {
	output, err := gomplate.RunExpression(data, gomplate.Template{
		Expression: expression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate CEL expression '%s': %w", expression, err)
	}
	return output, nil
}

// EvaluateBool runs an expression that must produce a boolean
func (e *CELEvaluator) EvaluateBool(expression string, data map[string]any) (bool, error) {
	if expression == "" || expression == "true" {
		return true, nil
	}
	output, err := e.Evaluate(expression, data)
	if err != nil {
		return false, err
	}

	switch v := output.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("CEL expression did not return a boolean: got %T(%v)", output, output)
}

// Describe renders a describe template over the tuple
func (e *CELEvaluator) Describe(template string, tuple Tuple) (string, error) {
	return gomplate.RunTemplate(tuple.Map(), gomplate.Template{
		Template: template,
	})
}
