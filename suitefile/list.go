package suitefile

import (
	"fmt"
	"strings"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/samber/lo"

	"github.com/flanksource/galvanic/fixtures"
)

// TestListing describes a test without running it
type TestListing struct {
	Suite       string   `json:"suite"`
	Test        string   `json:"test"`
	Fixtures    []string `json:"fixtures"`
	Invocations int      `json:"invocations"`
	Err         error    `json:"-"`
}

func (l TestListing) Pretty() api.Text {
	t := clicky.Text(l.Test, "font-bold").Append(" ").Append(strings.Join(l.Fixtures, " x "), "text-gray-500")
	if l.Err != nil {
		return t.Space().Append(l.Err.Error(), "text-red-600")
	}
	return t.Append(fmt.Sprintf(" %d invocations", l.Invocations), "text-blue-500")
}

type Listing struct {
	Tests []TestListing `json:"tests"`
}

func (l *Listing) Pretty() api.Text {
	return clicky.Text("Tests", "font-bold").Append(fmt.Sprintf(" (%d)", len(l.Tests)))
}

func (l *Listing) GetChildren() []api.TreeNode {
	return lo.Map(l.Tests, func(t TestListing, _ int) api.TreeNode { return t })
}

// List enumerates the tests of every file with the number of invocations
// each would run. Generators are consumed to count, setups are not run.
func List(files []*File, filter string) *Listing {
	listing := &Listing{}
	for _, file := range files {
		suite, err := file.Build(filter, fixtures.RunnerOptions{})
		if err != nil {
			listing.Tests = append(listing.Tests, TestListing{Suite: file.Name, Err: err})
			continue
		}
		for _, spec := range file.Tests {
			if !matches(filter, spec.Name) {
				continue
			}
			entry := TestListing{Suite: file.Name, Test: spec.Name, Fixtures: spec.Fixtures}
			test, err := suite.Lookup(spec.Name)
			if err == nil {
				entry.Invocations, err = fixtures.Count(test.Fixtures)
			}
			entry.Err = err
			listing.Tests = append(listing.Tests, entry)
		}
	}
	return listing
}
