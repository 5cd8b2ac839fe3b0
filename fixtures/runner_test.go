package fixtures

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/flanksource/clicky/task"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	errors    []string
	failedNow bool
}

func (h *fakeHost) Helper() {}

func (h *fakeHost) Errorf(format string, args ...any) {
	h.errors = append(h.errors, fmt.Sprintf(format, args...))
}

func (h *fakeHost) FailNow() {
	h.failedNow = true
}

func newTestRunner() (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewRunner(RunnerOptions{Stdout: out}), out
}

func TestPinnedScenario(t *testing.T) {
	runner, out := newTestRunner()
	double := newDouble()

	var values []int
	outcome, err := runner.Execute(Test{
		Name:     "pinned",
		Fixtures: []Ref{double.Pin(21)},
		Body: func(t *T, b Bindings) {
			values = append(values, double.From(b).Value)
		},
	})
	require.NoError(t, err)
	assert.False(t, outcome.Failed())
	assert.Equal(t, 1, outcome.Executed())
	assert.Equal(t, []int{42}, values)
	assert.Equal(t, "double(21)", outcome.Results[0].Description)
	assert.Empty(t, out.String())
}

func TestAutoIteratingScenario(t *testing.T) {
	runner, _ := newTestRunner()
	mul := newMul()

	var pairs [][2]int
	outcome, err := runner.Execute(Test{
		Name:     "products",
		Fixtures: []Ref{mul.Ref()},
		Body: func(t *T, b Bindings) {
			value, f := mul.From(b).Decompose()
			pairs = append(pairs, [2]int{value, f.Params.Y - f.Params.X})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Executed())
	if diff := cmp.Diff([][2]int{{1, 0}, {8, 2}, {18, 3}}, pairs); diff != "" {
		t.Errorf("bound values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Stats{Total: 3, Passed: 3}, outcome.Stats)
}

func TestCrossProductScenario(t *testing.T) {
	runner, _ := newTestRunner()

	setupsA, setupsB := 0, 0
	a := New("A", func(t *T, f *Instance[int]) int { setupsA++; return f.Params }).WithValues(1, 2, 3)
	b := New("B", func(t *T, f *Instance[int]) int { setupsB++; return f.Params }).WithValues(1, 2, 3)

	seen := map[[2]int][2]int{}
	outcome, err := runner.Execute(Test{
		Name:     "cross",
		Fixtures: []Ref{a.Ref(), b.Ref()},
		Body: func(t *T, bs Bindings) {
			seen[[2]int{a.From(bs).Value, b.From(bs).Value}] = [2]int{setupsA, setupsB}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, outcome.Executed())
	assert.Equal(t, [2]int{5, 5}, seen[[2]int{2, 2}])
	assert.Equal(t, [2]int{9, 9}, seen[[2]int{3, 3}])
}

func TestMissingGeneratorScenario(t *testing.T) {
	runner, out := newTestRunner()
	ran := false

	outcome, err := runner.Execute(Test{
		Name:     "unpinned",
		Fixtures: []Ref{newDouble().Ref()},
		Body:     func(*T, Bindings) { ran = true },
	})
	require.Error(t, err)
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
	assert.Equal(t, "unpinned", usage.Test)
	assert.Equal(t, ErrMissingGenerator, usage.Reason)
	assert.False(t, ran)
	assert.Zero(t, outcome.Executed())
	assert.True(t, outcome.Failed())
	assert.Empty(t, out.String())
}

func TestSetupTeardownPerParameterisation(t *testing.T) {
	runner, _ := newTestRunner()
	setups, teardowns := 0, 0
	counting := New("counting", func(t *T, f *Instance[int]) struct{} {
		setups++
		return struct{}{}
	}).WithValues(1, 2, 3).WithTearDown(func(t *T, f *Instance[int]) {
		teardowns++
	})

	outcome, err := runner.Execute(Test{
		Name:     "counting",
		Fixtures: []Ref{counting.Ref()},
		Body: func(t *T, b Bindings) {
			it := counting.From(b).Params()
			assert.Equal(t, it, setups)
			assert.Equal(t, it-1, teardowns)
		},
	})
	require.NoError(t, err)
	assert.False(t, outcome.Failed())
	assert.Equal(t, 3, teardowns)
}

func TestNoShortCircuit(t *testing.T) {
	runner, out := newTestRunner()

	constructed, tornDown := map[string]int{}, map[string]int{}
	track := func(name string, values ...int) *Definition[int, int] {
		return New(name, func(t *T, f *Instance[int]) int {
			constructed[name]++
			return f.Params
		}).WithValues(values...).WithTearDown(func(t *T, f *Instance[int]) {
			tornDown[name]++
		})
	}
	outer, inner := track("outer", 1, 2, 3), track("inner", 1, 2)

	outcome, err := runner.Execute(Test{
		Name:     "mixed",
		Fixtures: []Ref{outer.Ref(), inner.Ref()},
		Body: func(t *T, b Bindings) {
			switch outer.From(b).Value {
			case 1:
				panic("boom")
			case 2:
				require.Equal(t, 0, inner.From(b).Value)
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, outcome.Executed())
	assert.True(t, outcome.Failed())
	assert.Equal(t, Stats{Total: 6, Passed: 2, Failed: 2, Error: 2}, outcome.Stats)
	assert.Equal(t, constructed, tornDown)
	assert.Equal(t, map[string]int{"outer": 6, "inner": 6}, tornDown)
	for _, r := range outcome.Results {
		assert.Equal(t, r.Constructed, r.TornDown)
	}

	assert.Equal(t, 4, strings.Count(out.String(), FailureBanner))
	assert.Contains(t, out.String(), FailureBanner+"\n    outer(1), inner(2)\n\n")
	assert.Equal(t, "outer(2), inner(2)", outcome.LastFailure)

	first := outcome.Results[0].Failure
	require.NotNil(t, first)
	assert.Equal(t, PhaseBody, first.Phase)
	assert.Contains(t, first.Error(), "panic: boom")
	assert.NotEmpty(t, first.Stack)
}

func TestTeardownReverseOrder(t *testing.T) {
	runner, _ := newTestRunner()
	var order []string
	fixture := func(name string) *Definition[NoParams, string] {
		return New(name, func(t *T, f *Instance[NoParams]) string {
			order = append(order, "setup "+name)
			return name
		}).WithTearDown(func(t *T, f *Instance[NoParams]) {
			order = append(order, "teardown "+name)
		})
	}
	first, second, third := fixture("first"), fixture("second"), fixture("third")

	_, err := runner.Execute(Test{
		Name:     "order",
		Fixtures: []Ref{first.Ref(), second.Ref(), third.Ref()},
		Body: func(t *T, b Bindings) {
			t.Cleanup(func() { order = append(order, "cleanup") })
			order = append(order, "body")
		},
	})
	require.NoError(t, err)
	expected := []string{
		"setup first", "setup second", "setup third",
		"body",
		"cleanup",
		"teardown third", "teardown second", "teardown first",
	}
	if diff := cmp.Diff(expected, order); diff != "" {
		t.Errorf("lifecycle order mismatch (-want +got):\n%s", diff)
	}
}

func TestSetupFailure(t *testing.T) {
	runner, out := newTestRunner()
	var tornDown []string
	ok := New("ok", func(t *T, f *Instance[NoParams]) int { return 1 }).
		WithTearDown(func(*T, *Instance[NoParams]) { tornDown = append(tornDown, "ok") })
	broken := New("broken", func(t *T, f *Instance[NoParams]) int {
		t.Fatalf("cannot connect")
		return 0
	}).WithTearDown(func(*T, *Instance[NoParams]) { tornDown = append(tornDown, "broken") })
	never := New("never", func(t *T, f *Instance[NoParams]) int { return 2 }).
		WithTearDown(func(*T, *Instance[NoParams]) { tornDown = append(tornDown, "never") })

	bodyRan := false
	outcome, err := runner.Execute(Test{
		Name:     "setup",
		Fixtures: []Ref{ok.Ref(), broken.Ref(), never.Ref()},
		Body:     func(*T, Bindings) { bodyRan = true },
	})
	require.NoError(t, err)
	assert.False(t, bodyRan)

	result := outcome.Results[0]
	assert.Equal(t, task.StatusFAIL, result.Status)
	require.NotNil(t, result.Failure)
	assert.Equal(t, PhaseSetup, result.Failure.Phase)
	assert.EqualError(t, result.Failure.Err, "cannot connect")
	assert.Equal(t, InitialDescription, result.Description)
	assert.Contains(t, out.String(), InitialDescription)
	assert.Equal(t, []string{"never", "broken", "ok"}, tornDown)
}

func TestGoexitIsIsolated(t *testing.T) {
	runner, _ := newTestRunner()
	tornDown := 0
	fx := New("fx", func(t *T, f *Instance[int]) int { return f.Params }).
		WithValues(1, 2).
		WithTearDown(func(*T, *Instance[int]) { tornDown++ })

	outcome, err := runner.Execute(Test{
		Name:     "goexit",
		Fixtures: []Ref{fx.Ref()},
		Body: func(t *T, b Bindings) {
			if fx.From(b).Value == 1 {
				runtime.Goexit()
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Executed())
	assert.Equal(t, 2, tornDown)
	assert.Equal(t, task.StatusERR, outcome.Results[0].Status)
	assert.Contains(t, outcome.Results[0].Failure.Error(), "runtime.Goexit")
	assert.Equal(t, task.StatusPASS, outcome.Results[1].Status)
}

func TestTeardownFailuresCompound(t *testing.T) {
	runner, out := newTestRunner()
	var tornDown []string
	failing := New("failing", func(t *T, f *Instance[NoParams]) int { return 0 }).
		WithTearDown(func(t *T, f *Instance[NoParams]) {
			tornDown = append(tornDown, "failing")
			panic("leak detected")
		})
	healthy := New("healthy", func(t *T, f *Instance[NoParams]) int { return 0 }).
		WithTearDown(func(t *T, f *Instance[NoParams]) {
			tornDown = append(tornDown, "healthy")
			assert.Fail(t, "postcondition violated")
		})
	first := New("first", func(t *T, f *Instance[NoParams]) int { return 0 }).
		WithTearDown(func(t *T, f *Instance[NoParams]) { tornDown = append(tornDown, "first") })

	t.Run("body passes", func(t *testing.T) {
		tornDown = nil
		outcome, err := runner.Execute(Test{
			Name:     "teardown",
			Fixtures: []Ref{first.Ref(), healthy.Ref(), failing.Ref()},
			Body:     func(*T, Bindings) {},
		})
		require.NoError(t, err)
		result := outcome.Results[0]
		assert.Nil(t, result.Failure)
		require.Len(t, result.Teardowns, 2)
		assert.Equal(t, "failing", result.Teardowns[0].Fixture)
		assert.Equal(t, "healthy", result.Teardowns[1].Fixture)
		assert.Equal(t, task.StatusFAIL, result.Status)
		assert.True(t, outcome.Failed())
		assert.Equal(t, []string{"failing", "healthy", "first"}, tornDown)
	})

	t.Run("body failure is kept", func(t *testing.T) {
		tornDown = nil
		out.Reset()
		outcome, err := runner.Execute(Test{
			Name:     "teardown",
			Fixtures: []Ref{first.Ref(), failing.Ref()},
			Body:     func(t *T, _ Bindings) { t.Errorf("body failed") },
		})
		require.NoError(t, err)
		result := outcome.Results[0]
		require.NotNil(t, result.Failure)
		assert.EqualError(t, result.Failure.Err, "body failed")
		require.Len(t, result.Teardowns, 1)
		assert.Contains(t, result.Teardowns[0].Error(), "leak detected")

		var td *TeardownFailure
		assert.True(t, errors.As(result.Err(), &td))
		assert.Equal(t, 2, strings.Count(out.String(), FailureBanner))
		assert.Equal(t, []string{"failing", "first"}, tornDown)
	})
}

func TestRunTestSignalsHost(t *testing.T) {
	fx := counter("fx", 1, 2, 3)
	runner, _ := newTestRunner()

	t.Run("passing", func(t *testing.T) {
		host := &fakeHost{}
		outcome := runner.RunTest(host, Test{Name: "pass", Fixtures: []Ref{fx.Ref()}, Body: func(*T, Bindings) {}})
		assert.Empty(t, host.errors)
		assert.False(t, host.failedNow)
		assert.Equal(t, 3, outcome.Executed())
	})

	t.Run("failing", func(t *testing.T) {
		host := &fakeHost{}
		outcome := runner.RunTest(host, Test{Name: "fail", Fixtures: []Ref{fx.Ref()}, Body: func(t *T, b Bindings) {
			assert.NotEqual(t, 2, fx.From(b).Value)
		}})
		assert.Equal(t, []string{FailureMessage}, host.errors)
		assert.True(t, host.failedNow)
		assert.Equal(t, 3, outcome.Executed())
	})

	t.Run("usage error", func(t *testing.T) {
		host := &fakeHost{}
		runner.RunTest(host, Test{Name: "usage", Fixtures: []Ref{newDouble().Ref()}, Body: func(*T, Bindings) {}})
		require.Len(t, host.errors, 1)
		assert.Contains(t, host.errors[0], ErrMissingGenerator)
		assert.True(t, host.failedNow)
	})
}

func TestUndeclaredMemberIsFatal(t *testing.T) {
	runner, _ := newTestRunner()
	tornDown := 0
	fx := New("fx", func(t *T, f *Instance[int]) int {
		f.Set("missing", 1)
		return 0
	}).WithValues(1, 2).WithTearDown(func(*T, *Instance[int]) { tornDown++ })

	outcome, err := runner.Execute(Test{Name: "members", Fixtures: []Ref{fx.Ref()}, Body: func(*T, Bindings) {}})
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
	assert.Equal(t, 1, outcome.Executed())
	assert.Equal(t, 1, tornDown)
}

func TestRun(t *testing.T) {
	mul := newMul()
	double := newDouble()
	outcome := Run(t, "products", func(t *T, b Bindings) {
		m := mul.From(b)
		assert.Equal(t, m.Params().X*m.Params().Y, m.Value)
		assert.Equal(t, 42, double.From(b).Value)
	}, mul.Ref(), double.Pin(21))
	assert.Equal(t, 3, outcome.Executed())
}
