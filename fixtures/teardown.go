package fixtures

import (
	"fmt"

	"github.com/flanksource/commons/logger"
)

type teardownHook struct {
	label string
	fn    func(t *T)
}

// teardownStack holds the teardowns of one invocation. Hooks run in reverse
// order of registration, each in its own guarded region, so a failing hook
// never prevents the ones below it from running.
type teardownStack struct {
	hooks []teardownHook
}

func (s *teardownStack) push(label string, fn func(t *T)) {
	s.hooks = append(s.hooks, teardownHook{label: label, fn: fn})
}

func (s *teardownStack) len() int {
	return len(s.hooks)
}

// unwind pops and runs every hook and returns the failures in the order they
// happened.
func (s *teardownStack) unwind(name string, index int, description string, log logger.Logger) []*TeardownFailure {
	var failures []*TeardownFailure
	for len(s.hooks) > 0 {
		hook := s.hooks[len(s.hooks)-1]
		s.hooks = s.hooks[:len(s.hooks)-1]
		log.V(3).Infof("[%s] tearing down %s", name, hook.label)

		t := newT(name, log)
		t.cleanup = s.push
		g := guard(func() { hook.fn(t) })

		var err error
		switch {
		case g.recovered != nil:
			if _, ok := g.recovered.(failNow); ok {
				err = t.err()
			} else {
				err = panicError(g.recovered)
			}
		case g.goexit:
			err = fmt.Errorf("runtime.Goexit called in teardown")
		case t.Failed():
			err = t.err()
		}
		if err == nil {
			continue
		}
		log.Errorf("Teardown of %s failed: %v", hook.label, err)
		failures = append(failures, &TeardownFailure{
			Index:       index,
			Fixture:     hook.label,
			Description: description,
			Err:         err,
			Stack:       g.stack,
		})
	}
	return failures
}

// panicError converts a recovered value to an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
