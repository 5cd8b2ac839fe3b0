package fixtures

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flanksource/clicky/task"
)

// InitialDescription is the description of an invocation whose setups did not
// all complete.
const InitialDescription = "Test panicked before all fixtures have been assigned."

// invoke runs one invocation: construct, setup, body, teardown. Failures are
// recorded on the result. The returned error is a *UsageError that must stop
// the whole test.
func (r *Runner) invoke(test Test, inv Invocation) (*InvocationResult, error) {
	start := time.Now()
	name := fmt.Sprintf("%s#%d", test.Name, inv.Index)
	result := &InvocationResult{
		Index:       inv.Index,
		Description: InitialDescription,
		Tuples:      inv.Tuples(),
	}

	stack := &teardownStack{}
	t := newT(name, r.options.Logger)
	t.cleanup = stack.push
	phase := PhaseConstruct

	g := guard(func() {
		instances := make([]FixtureInstance, len(inv.Assignments))
		for i, a := range inv.Assignments {
			fx := a.Ref.fixture
			inst, err := fx.Construct(a.Tuple)
			if err != nil {
				panic(err)
			}
			instances[i] = inst
			result.Constructed++
			stack.push(a.Ref.name, func(t *T) {
				result.TornDown++
				fx.TearDown(t, inst)
			})
		}

		phase = PhaseSetup
		bindings := newBindings(len(instances))
		for i, a := range inv.Assignments {
			bindings.add(a.Ref.name, a.Ref.fixture.Setup(t, instances[i]))
			if t.Failed() {
				return
			}
		}
		result.Description = r.describe(instances)

		phase = PhaseBody
		test.Body(t, *bindings)
	})

	var usage *UsageError
	var err error
	switch {
	case g.recovered != nil:
		if _, ok := g.recovered.(failNow); ok {
			result.Status = task.StatusFAIL
			err = t.err()
		} else if e, ok := g.recovered.(error); ok && errors.As(e, &usage) {
			result.Status = task.StatusERR
			err = e
		} else {
			result.Status = task.StatusERR
			err = panicError(g.recovered)
		}
	case g.goexit:
		result.Status = task.StatusERR
		err = fmt.Errorf("runtime.Goexit called during %s, use the invocation T instead of the host test", phase)
	case t.Failed():
		result.Status = task.StatusFAIL
		err = t.err()
	default:
		result.Status = task.StatusPASS
	}
	if err != nil {
		result.Failure = &InvocationFailure{
			Index:       inv.Index,
			Description: result.Description,
			Phase:       phase,
			Err:         err,
			Stack:       g.stack,
		}
	}

	result.Teardowns = stack.unwind(name, inv.Index, result.Description, r.options.Logger)
	if len(result.Teardowns) > 0 && result.Status == task.StatusPASS {
		result.Status = task.StatusFAIL
	}
	result.Duration = time.Since(start)

	if usage != nil {
		if usage.Test == "" {
			usage.Test = test.Name
		}
		return result, usage
	}
	return result, nil
}

func (r *Runner) describe(instances []FixtureInstance) string {
	parts := make([]string, len(instances))
	for i, inst := range instances {
		parts[i] = inst.String()
	}
	return strings.Join(parts, r.options.Delimiter)
}
