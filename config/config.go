package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/flanksource/galvanic/fixtures"
)

const (
	FileName  = ".galvanic.yaml"
	EnvPrefix = "GALVANIC_"
)

// Config holds the command line defaults. Later sources override earlier
// ones: built-in defaults, ~/.galvanic.yaml, <dir>/.galvanic.yaml, then
// GALVANIC_* environment variables.
type Config struct {
	Delimiter string   `koanf:"delimiter" json:"delimiter"`
	Paths     []string `koanf:"paths" json:"paths"`
	Filter    string   `koanf:"filter" json:"filter,omitempty"`
}

func Defaults() Config {
	return Config{
		Delimiter: fixtures.DefaultDelimiter,
		Paths:     []string{"**/*.galvanic.yaml"},
	}
}

// Load merges every configuration source visible from dir.
func Load(dir string) (Config, error) {
	var files []string
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, FileName))
	}
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve %s: %w", dir, err)
		}
		files = append(files, filepath.Join(abs, FileName))
	}
	return LoadFiles(files...)
}

// LoadFiles is Load with explicit config files. Missing files are skipped.
func LoadFiles(paths ...string) (Config, error) {
	k := koanf.New(".")
	d := Defaults()
	if err := k.Load(confmap.Provider(map[string]any{
		"delimiter": d.Delimiter,
		"paths":     d.Paths,
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	seen := map[string]bool{}
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
		logger.V(3).Infof("Loaded config from %s", path)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Runner translates the config into engine options.
func (c Config) Runner() fixtures.RunnerOptions {
	return fixtures.RunnerOptions{
		Delimiter: c.Delimiter,
		Logger:    logger.StandardLogger(),
	}
}
