package fixtures

import (
	"errors"
	"fmt"
	"strings"
)

// Phase identifies where in an invocation a failure happened.
type Phase string

const (
	PhaseConstruct Phase = "construct"
	PhaseSetup     Phase = "setup"
	PhaseBody      Phase = "body"
	PhaseTearDown  Phase = "teardown"
)

// UsageError reports a malformed test or fixture declaration. It is fatal for
// the test and is never attributed to a single invocation.
type UsageError struct {
	Test    string
	Fixture string
	Reason  string
}

func (e *UsageError) Error() string {
	var b strings.Builder
	b.WriteString("fixture usage error")
	if e.Test != "" {
		fmt.Fprintf(&b, " in test '%s'", e.Test)
	}
	if e.Fixture != "" {
		fmt.Fprintf(&b, " for fixture '%s'", e.Fixture)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// ErrMissingGenerator is the reason given when a fixture with parameters is
// referenced without arguments and has no generator.
const ErrMissingGenerator = "a fixture referenced without explicit arguments must either take zero parameters " +
	"or declare a parameter generator"

// InvocationFailure is a failure raised while constructing, setting up or
// running the body of one parameter combination.
type InvocationFailure struct {
	Index       int
	Description string
	Phase       Phase
	Err         error
	Stack       []byte
}

func (e *InvocationFailure) Error() string {
	return fmt.Sprintf("invocation %d failed during %s: %v", e.Index, e.Phase, e.Err)
}

func (e *InvocationFailure) Unwrap() error {
	return e.Err
}

// TeardownFailure is a failure raised by a fixture's teardown.
type TeardownFailure struct {
	Index       int
	Fixture     string
	Description string
	Err         error
	Stack       []byte
}

func (e *TeardownFailure) Error() string {
	return fmt.Sprintf("teardown of '%s' failed in invocation %d: %v", e.Fixture, e.Index, e.Err)
}

func (e *TeardownFailure) Unwrap() error {
	return e.Err
}

// IsUsageError reports whether err is or wraps a *UsageError.
func IsUsageError(err error) bool {
	var usage *UsageError
	return errors.As(err, &usage)
}
