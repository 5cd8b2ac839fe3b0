package main

import (
	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"

	"github.com/flanksource/galvanic/suitefile"
)

type ListOptions struct {
	Filter string   `json:"filter" flag:"filter" help:"Only list tests whose name matches this glob"`
	Paths  []string `json:"-" args:"true"`
}

func (o ListOptions) GetName() string { return "list" }

func (o ListOptions) Help() api.Text {
	return clicky.Text(`List the tests of the given suite files and how many
parameter combinations each would run. Setups are not executed.

EXAMPLES:
  galvanic list
  galvanic list suites/*.galvanic.yaml --format json`)
}

func init() {
	clicky.AddCommand(rootCmd, ListOptions{}, func(opts ListOptions) (any, error) {
		cfg, files, err := load(opts.Paths, opts.Filter, "")
		if err != nil {
			return nil, err
		}
		return suitefile.List(files, cfg.Filter), nil
	})
}
