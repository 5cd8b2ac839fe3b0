package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/samber/lo"

	"github.com/flanksource/galvanic/config"
	"github.com/flanksource/galvanic/suitefile"
)

type RunOptions struct {
	Filter    string   `json:"filter" flag:"filter" help:"Only run tests whose name matches this glob"`
	Delimiter string   `json:"delimiter" flag:"delimiter" help:"Separator between fixture descriptions in failure reports"`
	Paths     []string `json:"-" args:"true"`
}

func (o RunOptions) GetName() string { return "run" }

func (o RunOptions) Help() api.Text {
	return clicky.Text(`Run every test of the given suite files.

Each test runs once per combination of its fixtures' parameters. A failing
combination is reported together with the fixture instances that produced
it and does not stop the remaining combinations.

Defaults are read from ~/.galvanic.yaml, ./.galvanic.yaml and GALVANIC_*
environment variables.

EXAMPLES:
  # Run suites matched by the configured paths
  galvanic run

  # Run one file, only tests starting with "slow"
  galvanic run suites/math.galvanic.yaml --filter 'slow*'`)
}

// load resolves the effective config and the suite files it selects.
func load(paths []string, filter, delimiter string) (config.Config, []*suitefile.File, error) {
	wd, err := getWorkingDir()
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if len(paths) > 0 {
		cfg.Paths = paths
	}
	cfg.Filter = lo.CoalesceOrEmpty(filter, cfg.Filter)
	cfg.Delimiter = lo.CoalesceOrEmpty(delimiter, cfg.Delimiter)

	patterns := lo.Map(cfg.Paths, func(p string, _ int) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(wd, p)
	})
	files, err := suitefile.LoadGlob(patterns...)
	if err != nil {
		return cfg, nil, err
	}
	if len(files) == 0 {
		return cfg, nil, fmt.Errorf("no suite files found matching %v", cfg.Paths)
	}
	return cfg, files, nil
}

func init() {
	clicky.AddCommand(rootCmd, RunOptions{}, func(opts RunOptions) (any, error) {
		cfg, files, err := load(opts.Paths, opts.Filter, opts.Delimiter)
		if err != nil {
			return nil, err
		}
		runner := cfg.Runner()
		runner.Stdout = os.Stderr
		report := suitefile.Run(files, suitefile.Options{Filter: cfg.Filter, Runner: runner})
		if report.Failed() {
			exitCode = 1
		}
		return report, nil
	})
}
