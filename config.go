package eqsat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnoverse/eqsat/internal/extract"
	"github.com/gnoverse/eqsat/internal/rewrite"
	"github.com/gnoverse/eqsat/internal/runner"
)

// DefaultConfigFile is looked up in the working directory when no
// configuration path is given.
const DefaultConfigFile = ".eqsat.yaml"

// ErrUnknownCost is returned for a cost name other than "size" or "depth".
var ErrUnknownCost = errors.New("unknown cost function")

// Config is the on-disk engine configuration:
//
//	limits:
//	  iterations: 100
//	  nodes: 30000
//	  time: 2m0s
//	rules: ./rules.yaml   # empty: built-in rules
//	cost: size            # size | depth
//	workers: 4            # batch parallelism, 0: one per CPU
type Config struct {
	Limits  runner.Limits `yaml:"limits"`
	Rules   string        `yaml:"rules,omitempty"`
	Cost    string        `yaml:"cost"`
	Workers int           `yaml:"workers,omitempty"`

	// dir resolves a relative Rules path against the file the config was
	// loaded from.
	dir string
}

// DefaultConfig mirrors the engine defaults.
func DefaultConfig() Config {
	return Config{
		Limits: runner.DefaultLimits(),
		Cost:   "size",
	}
}

// LoadConfig reads a YAML configuration file. Missing fields keep their
// defaults; unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// WriteConfig writes cfg to path as YAML.
func WriteConfig(path string, cfg Config) error {
	d, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(d)
	return err
}

func (c Config) Validate() error {
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	_, err := CostByName(c.Cost)
	return err
}

// RulesPath returns the rule file path, resolved against the config
// file's directory, or "" for the built-in rules.
func (c Config) RulesPath() string {
	if c.Rules == "" || filepath.IsAbs(c.Rules) || c.dir == "" {
		return c.Rules
	}
	return filepath.Join(c.dir, c.Rules)
}

// CostByName maps "size" (or "") to AstSize and "depth" to AstDepth.
func CostByName(name string) (extract.CostFunction, error) {
	switch name {
	case "", "size":
		return extract.AstSize{}, nil
	case "depth":
		return extract.AstDepth{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCost, name)
	}
}

// Engine builds an engine from the configuration. extra options are
// applied last and win over configured values.
func (c Config) Engine(logger *zap.Logger, extra ...Option) (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cf, err := CostByName(c.Cost)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithLimits(c.Limits),
		WithCost(cf),
		WithLogger(logger),
	}
	if path := c.RulesPath(); path != "" {
		rs, err := rewrite.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading rules: %w", err)
		}
		opts = append(opts, WithRules(rs))
	}
	return New(append(opts, extra...)...), nil
}
