package fixtures

import (
	"io"
	"os"
	"time"

	"github.com/flanksource/commons/logger"
)

// DefaultDelimiter separates instance descriptions in an invocation
// description.
const DefaultDelimiter = ", "

// RunnerOptions configures the runner
type RunnerOptions struct {
	Stdout    io.Writer // Diagnostics of failing invocations, defaults to os.Stdout
	Delimiter string    // Defaults to DefaultDelimiter
	Logger    logger.Logger
}

func (o RunnerOptions) withDefaults() RunnerOptions {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Delimiter == "" {
		o.Delimiter = DefaultDelimiter
	}
	if o.Logger == nil {
		o.Logger = logger.StandardLogger()
	}
	return o
}

// Runner expands tests into invocations and executes them one after the
// other. A Runner holds no state between tests.
type Runner struct {
	options RunnerOptions
}

// NewRunner creates a new runner
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{options: opts.withDefaults()}
}

// Execute runs every invocation of test, failed or not, and returns the
// aggregate outcome. Malformed declarations are returned as a *UsageError,
// either before any invocation ran or as soon as one is detected.
func (r *Runner) Execute(test Test) (*Outcome, error) {
	start := time.Now()
	agg := newAggregator(test.Name, r.options.Stdout, r.options.Logger)
	outcome := agg.outcome

	if test.Body == nil {
		outcome.Err = &UsageError{Test: test.Name, Reason: "test has no body"}
		return outcome, outcome.Err
	}

	invocations, err := Expand(test.Fixtures)
	if err != nil {
		if usage, ok := err.(*UsageError); ok && usage.Test == "" {
			usage.Test = test.Name
		}
		outcome.Err = err
		return outcome, err
	}

	r.options.Logger.V(1).Infof("Running %s with fixtures %v", test.Name, test.Fixtures)
	for inv := range invocations {
		result, err := r.invoke(test, inv)
		agg.record(result)
		if err != nil {
			outcome.Err = err
			outcome.Duration = time.Since(start)
			return outcome, err
		}
	}
	outcome.Duration = time.Since(start)

	if outcome.Executed() == 0 {
		r.options.Logger.Warnf("%s: a parameter generator yielded no tuples, nothing was executed", test.Name)
	}
	r.options.Logger.V(1).Infof("%s", outcome.String())
	return outcome, nil
}

// TestingT is the part of *testing.T the runner reports to.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// RunTest executes test and reports the aggregate result to host: nothing
// when every invocation passed, a single failure otherwise.
func (r *Runner) RunTest(host TestingT, test Test) *Outcome {
	host.Helper()
	outcome, err := r.Execute(test)
	if err != nil {
		host.Errorf("%v", err)
		host.FailNow()
		return outcome
	}
	if outcome.Failed() {
		host.Errorf("%s", FailureMessage)
		host.FailNow()
	}
	return outcome
}

// RunTest runs test with the default options.
func RunTest(host TestingT, test Test) *Outcome {
	host.Helper()
	return NewRunner(RunnerOptions{}).RunTest(host, test)
}

// Run declares and runs a test in one call:
//
//	fixtures.Run(t, "products", func(t *fixtures.T, b fixtures.Bindings) {
//		assert.Equal(t, 42, double.From(b).Value)
//	}, double.Pin(21))
func Run(host TestingT, name string, body Body, refs ...Ref) *Outcome {
	host.Helper()
	return RunTest(host, Test{Name: name, Fixtures: refs, Body: body})
}
