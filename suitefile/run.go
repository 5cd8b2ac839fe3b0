package suitefile

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/task"
	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/flanksource/galvanic/fixtures"
)

// Options configures how suite files are run
type Options struct {
	Filter string // Run only tests matching this glob
	Runner fixtures.RunnerOptions
}

// FileReport holds the outcomes of one suite file
type FileReport struct {
	Path     string              `json:"path"`
	Suite    string              `json:"suite"`
	Outcomes []*fixtures.Outcome `json:"outcomes,omitempty"`
	Err      error               `json:"-"`
}

// Stats counts tests, not invocations.
func (r *FileReport) Stats() fixtures.Stats {
	s := fixtures.Stats{}
	for _, o := range r.Outcomes {
		s.Total++
		switch o.Status() {
		case task.StatusPASS:
			s.Passed++
		case task.StatusFAIL:
			s.Failed++
		default:
			s.Error++
		}
	}
	if len(r.Outcomes) == 0 && r.Err != nil {
		s.Total++
		s.Error++
	}
	return s
}

func (r *FileReport) Failed() bool {
	return r.Err != nil || lo.SomeBy(r.Outcomes, func(o *fixtures.Outcome) bool { return o.Failed() })
}

func (r *FileReport) Pretty() api.Text {
	stats := r.Stats()
	t := clicky.Text("").Append(r.Suite, "font-bold").Append(" ").Append(r.Path, "text-gray-500")
	if stats.Total > 0 {
		t = t.Append(" (").Add(stats.Pretty()).Append(")")
	}
	if r.Err != nil && len(r.Outcomes) == 0 {
		t = t.Space().Append(r.Err.Error(), "text-red-600")
	}
	return api.Text{Content: t.String(), Style: stats.Health().Style()}
}

func (r *FileReport) GetChildren() []api.TreeNode {
	return lo.Map(r.Outcomes, func(o *fixtures.Outcome, _ int) api.TreeNode { return o.Tree() })
}

// Report is the result of running a set of suite files
type Report struct {
	Files []*FileReport `json:"files"`
}

func (r *Report) Stats() fixtures.Stats {
	s := fixtures.Stats{}
	for _, f := range r.Files {
		s = s.Merge(f.Stats())
	}
	return s
}

func (r *Report) Failed() bool {
	return lo.SomeBy(r.Files, func(f *FileReport) bool { return f.Failed() })
}

func (r *Report) Pretty() api.Text {
	return clicky.Text("Suites", "font-bold").Append(" (").Add(r.Stats().Pretty()).Append(")")
}

func (r *Report) GetChildren() []api.TreeNode {
	return lo.Map(r.Files, func(f *FileReport, _ int) api.TreeNode { return f })
}

// Run builds and executes every file. Files run one after the other; a file
// that fails to build is reported and the others still run.
func Run(files []*File, opts Options) *Report {
	report := &Report{}
	for _, file := range files {
		fr := &FileReport{Path: file.Path, Suite: file.Name}
		report.Files = append(report.Files, fr)

		suite, err := file.Build(opts.Filter, opts.Runner)
		if err != nil {
			fr.Err = fmt.Errorf("failed to build suite %s: %w", file.Name, err)
			logger.Errorf("%v", fr.Err)
			continue
		}
		logger.Infof("Running suite %s (%s)", file.Name, file.Path)
		fr.Outcomes, fr.Err = suite.Execute()
	}
	return report
}
