// Package config holds the settings of the command line tool.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Minimization strategies.
const (
	MinimizeNone      = "none"
	MinimizeDeletion  = "deletion"
	MinimizeInsertion = "insertion"
)

// Log formats.
const (
	FormatAuto = "auto" // Text on a terminal, JSON otherwise
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the configuration of a run.
type Config struct {
	DefaultRelevant bool          `yaml:"default_relevant"`
	MaxSteps        uint64        `yaml:"max_steps"` // 0 means unlimited
	Timeout         time.Duration `yaml:"timeout"`   // 0 means no timeout
	Minimize        string        `yaml:"minimize"`
	Jobs            int           `yaml:"jobs"` // How many files are checked in parallel
	Log             Log           `yaml:"log"`
	Metrics         Metrics       `yaml:"metrics"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics configures the export of statistics.
type Metrics struct {
	Path      string `yaml:"path"` // Prometheus textfile; empty means no export
	Namespace string `yaml:"namespace"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DefaultRelevant: true,
		Minimize:        MinimizeNone,
		Jobs:            1,
		Log:             Log{Level: "warning", Format: FormatAuto},
		Metrics:         Metrics{Namespace: "gophereuf"},
	}
}

// Load reads the configuration in path over the defaults and validates it.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read config %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "could not parse config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %q", path)
	}
	return cfg, nil
}

// Validate checks the values of the enumerations and the bounds of numeric fields.
func (c Config) Validate() error {
	switch c.Minimize {
	case MinimizeNone, MinimizeDeletion, MinimizeInsertion:
	default:
		return errors.Errorf("unknown minimization %q", c.Minimize)
	}
	switch c.Log.Format {
	case FormatAuto, FormatText, FormatJSON:
	default:
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Jobs < 1 {
		return errors.Errorf("jobs must be positive, got %d", c.Jobs)
	}
	if c.Timeout < 0 {
		return errors.Errorf("negative timeout %s", c.Timeout)
	}
	return nil
}
