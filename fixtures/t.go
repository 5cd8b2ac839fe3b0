package fixtures

import (
	"fmt"
	"strings"

	"github.com/flanksource/commons/logger"
)

// failNow is the panic value used by FailNow to leave the current phase.
type failNow struct{}

// T is the per-invocation test handle passed to setup, the body and
// teardown. It records failures instead of reporting them to the host, so a
// failing combination never stops the others. T satisfies the TestingT
// interfaces of testify's assert and require packages.
type T struct {
	name     string
	failed   bool
	messages []string
	log      logger.Logger
	cleanup  func(label string, fn func(*T))
}

func newT(name string, log logger.Logger) *T {
	return &T{name: name, log: log}
}

// Name is "<test>#<index>".
func (t *T) Name() string {
	return t.name
}

func (t *T) Helper() {}

func (t *T) Fail() {
	t.failed = true
}

// FailNow marks the invocation failed and stops the running setup, body or
// teardown. Remaining teardowns still run.
func (t *T) FailNow() {
	t.failed = true
	panic(failNow{})
}

func (t *T) Failed() bool {
	return t.failed
}

func (t *T) Errorf(format string, args ...any) {
	t.record(fmt.Sprintf(format, args...))
	t.Fail()
}

func (t *T) Error(args ...any) {
	t.record(fmt.Sprint(args...))
	t.Fail()
}

func (t *T) Fatalf(format string, args ...any) {
	t.record(fmt.Sprintf(format, args...))
	t.FailNow()
}

func (t *T) Fatal(args ...any) {
	t.record(fmt.Sprint(args...))
	t.FailNow()
}

func (t *T) Logf(format string, args ...any) {
	if t.log != nil {
		t.log.V(2).Infof("[%s] %s", t.name, fmt.Sprintf(format, args...))
	}
}

func (t *T) Log(args ...any) {
	t.Logf("%s", fmt.Sprint(args...))
}

// Cleanup registers fn to run with the fixture teardowns of this
// invocation, in last registered, first run order.
func (t *T) Cleanup(fn func()) {
	if t.cleanup == nil {
		panic(&UsageError{Reason: "Cleanup called outside of an invocation"})
	}
	t.cleanup("cleanup", func(*T) { fn() })
}

// Messages returns the recorded failure messages.
func (t *T) Messages() []string {
	return append([]string(nil), t.messages...)
}

func (t *T) record(msg string) {
	t.messages = append(t.messages, strings.TrimSpace(msg))
}

func (t *T) err() error {
	if len(t.messages) == 0 {
		return fmt.Errorf("test failed")
	}
	return fmt.Errorf("%s", strings.Join(t.messages, "\n"))
}
