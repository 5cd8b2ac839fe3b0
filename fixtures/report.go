package fixtures

import (
	"fmt"
	"io"

	"github.com/flanksource/commons/logger"
)

// FailureBanner precedes the description of a failing invocation.
const FailureBanner = "The above error occurred with the following parameterisation of the test case:"

// FailureMessage is reported to the host when any invocation of a test failed.
const FailureMessage = "Some parameterised test cases failed"

// aggregator collects the results of one test. It is owned by a single
// Execute call.
type aggregator struct {
	outcome *Outcome
	out     io.Writer
	log     logger.Logger
}

func newAggregator(test string, out io.Writer, log logger.Logger) *aggregator {
	return &aggregator{outcome: &Outcome{Test: test}, out: out, log: log}
}

func (a *aggregator) record(result *InvocationResult) {
	a.outcome.Results = append(a.outcome.Results, result)
	a.outcome.Stats = a.outcome.Stats.Add(result)

	if result.Failure != nil {
		a.log.Errorf("[%s#%d] %v", a.outcome.Test, result.Index, result.Failure.Err)
		if len(result.Failure.Stack) > 0 {
			a.log.V(3).Infof("%s", result.Failure.Stack)
		}
		a.diagnostic(result.Failure.Description)
	}
	for _, td := range result.Teardowns {
		a.log.Errorf("[%s#%d] teardown of %s: %v", a.outcome.Test, result.Index, td.Fixture, td.Err)
		a.diagnostic(td.Description)
	}
	if result.Failed() {
		a.outcome.LastFailure = result.Description
	}
}

func (a *aggregator) diagnostic(description string) {
	fmt.Fprintf(a.out, "%s\n    %s\n\n", FailureBanner, description)
}
