package fixtures

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/task"
)

// InvocationResult is the outcome of one invocation.
type InvocationResult struct {
	Index       int           `json:"index"`
	Description string        `json:"description,omitempty" pretty:"label=Parameters,style=text-blue-600"`
	Tuples      []any         `json:"tuples,omitempty"`
	Status      task.Status   `json:"status,omitempty"`
	Duration    time.Duration `json:"duration,omitempty" pretty:"label=Duration,style=text-yellow-600,omitempty"`

	Failure   *InvocationFailure `json:"failure,omitempty"`
	Teardowns []*TeardownFailure `json:"teardowns,omitempty"`

	// Constructed and TornDown count the fixture instances of the invocation.
	Constructed int `json:"constructed"`
	TornDown    int `json:"torn_down"`
}

func (r InvocationResult) Failed() bool {
	return r.Failure != nil || len(r.Teardowns) > 0
}

// Err joins the invocation failure and every teardown failure.
func (r InvocationResult) Err() error {
	var errs []error
	if r.Failure != nil {
		errs = append(errs, r.Failure)
	}
	for _, td := range r.Teardowns {
		errs = append(errs, td)
	}
	return errors.Join(errs...)
}

func (r InvocationResult) Stats() Stats {
	return Stats{}.Add(&r)
}

func (r InvocationResult) String() string {
	return fmt.Sprintf("#%d %s - %s", r.Index, r.Description, r.Status.String())
}

func (r InvocationResult) Pretty() api.Text {
	t := r.Status.Pretty().Append(" ").
		Append(fmt.Sprintf("#%d ", r.Index), "text-gray-500").
		Append(r.Description, "italic text-orange-500")
	if r.Duration > 0 {
		t = t.Append(fmt.Sprintf(" (%s)", r.Duration), "text-gray-500")
	}
	if r.Failure != nil {
		t = t.Space().Append(r.Failure.Err.Error(), "text-red-600")
	}
	for _, td := range r.Teardowns {
		t = t.Space().Append(td.Error(), "text-red-600")
	}
	return t
}

func (r *InvocationResult) Tree() api.TreeNode {
	return r
}

func (r *InvocationResult) GetChildren() []api.TreeNode {
	return nil
}

// Stats provides summary statistics over invocations or tests.
type Stats struct {
	Total  int `json:"total,omitempty"`
	Passed int `json:"passed,omitempty"`
	Failed int `json:"failed,omitempty"`
	Error  int `json:"error,omitempty"`
}

func (s Stats) Merge(o Stats) Stats {
	return Stats{
		Total:  s.Total + o.Total,
		Passed: s.Passed + o.Passed,
		Failed: s.Failed + o.Failed,
		Error:  s.Error + o.Error,
	}
}

func (s Stats) Add(result *InvocationResult) Stats {
	if result == nil {
		return s
	}
	s.Total++
	switch result.Status {
	case task.StatusFAIL, task.StatusFailed:
		s.Failed++
	case task.StatusPASS, task.StatusSuccess:
		s.Passed++
	case task.StatusERR, task.StatusCancelled:
		s.Error++
	}
	return s
}

func (s Stats) IsOK() bool {
	return s.Failed == 0 && s.Error == 0
}

func (s Stats) HasFailures() bool {
	return s.Failed > 0 || s.Error > 0
}

func (s Stats) Health() task.Health {
	if s.HasFailures() {
		return task.HealthError
	}
	if s.Total == 0 {
		return task.HealthWarning
	}
	return task.HealthOK
}

// Pretty prints passed in green and failed in red
func (s Stats) Pretty() api.Text {
	t := api.Text{}
	if s.Passed > 0 {
		t = t.Append(strconv.Itoa(s.Passed), "text-green-500")
	}
	if s.Failed > 0 {
		if !t.IsEmpty() {
			t = t.Append("/", "text-gray-500")
		}
		t = t.Append(strconv.Itoa(s.Failed), "text-red-500")
	}
	if s.Error > 0 {
		t = t.Append(fmt.Sprintf(" %d errors", s.Error), "text-red-500")
	}
	return t
}

func (s Stats) String() string {
	if s.Total == 0 {
		return "-"
	}
	str := fmt.Sprintf("%d/%d", s.Passed, s.Total)
	if s.Error > 0 {
		str += fmt.Sprintf(" %d error", s.Error)
	}
	return str
}

// Outcome is the aggregate result of one test across all its invocations.
type Outcome struct {
	Test     string              `json:"test"`
	Results  []*InvocationResult `json:"results,omitempty"`
	Stats    Stats               `json:"stats"`
	Duration time.Duration       `json:"duration,omitempty"`

	// LastFailure is the description of the most recent failing invocation.
	LastFailure string `json:"last_failure,omitempty"`
	// Err is set when the test could not be expanded or executed at all.
	Err error `json:"-"`
}

// Failed reports whether any invocation failed or the test was malformed.
func (o *Outcome) Failed() bool {
	return o.Err != nil || o.Stats.HasFailures()
}

// Executed is the number of invocations that ran.
func (o *Outcome) Executed() int {
	return len(o.Results)
}

func (o *Outcome) Status() task.Status {
	switch {
	case o.Err != nil:
		return task.StatusERR
	case o.Stats.HasFailures():
		return task.StatusFAIL
	default:
		return task.StatusPASS
	}
}

func (o *Outcome) String() string {
	return fmt.Sprintf("%s - %s (%s)", o.Test, o.Status().String(), o.Stats.String())
}

func (o *Outcome) Pretty() api.Text {
	t := o.Status().Pretty().Append(" ").Append(o.Test, "font-bold")
	if o.Stats.Total > 0 {
		t = t.Append(" (").Add(o.Stats.Pretty()).Append(")")
	}
	if o.Err != nil {
		t = t.Space().Append(o.Err.Error(), "text-red-600")
	}
	return t
}

func (o *Outcome) Tree() api.TreeNode {
	return o
}

func (o *Outcome) GetChildren() []api.TreeNode {
	if len(o.Results) == 0 {
		return nil
	}
	nodes := make([]api.TreeNode, len(o.Results))
	for i, r := range o.Results {
		nodes[i] = r.Tree()
	}
	return nodes
}

// Summary renders outcomes as a clicky tree.
func Summary(outcomes ...*Outcome) string {
	var out string
	for _, o := range outcomes {
		out += clicky.MustFormat(o) + "\n"
	}
	return out
}
