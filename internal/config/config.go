// Package config holds the hashvault command configuration: defaults, file
// loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tamirms/hashvault"
	hverrors "github.com/tamirms/hashvault/errors"
)

// Actions
const (
	ActionGenerate = "gen"
	ActionSearch   = "search"
	ActionVerify   = "verify"
)

// ErrUnknownAction is returned by Validate for an action other than gen,
// search or verify.
var ErrUnknownAction = fmt.Errorf("%w: action must be gen, search or verify", hverrors.ErrConfiguration)

// Config holds the application configuration.
type Config struct {
	Exponent    int    `toml:"exponent" yaml:"exponent"`
	Path        string `toml:"path" yaml:"path"`
	Action      string `toml:"action" yaml:"action"`
	Difficulty  int    `toml:"difficulty" yaml:"difficulty"`
	Searches    int    `toml:"searches" yaml:"searches"`
	Partitions  int    `toml:"partitions" yaml:"partitions"`
	Workers     int    `toml:"workers" yaml:"workers"`
	Hash        string `toml:"hash" yaml:"hash"`
	Compression string `toml:"compression" yaml:"compression"`
	Seed        uint64 `toml:"seed" yaml:"seed"` // 0 draws targets from a random seed

	Verbose       bool   `toml:"verbose" yaml:"verbose"`
	LogFile       string `toml:"log_file" yaml:"log_file"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxAgeDays int    `toml:"log_max_age_days" yaml:"log_max_age_days"`
}

// NewConfig creates a new configuration with default values.
func NewConfig() *Config {
	return &Config{
		Exponent:      26,
		Path:          "output",
		Action:        ActionGenerate,
		Difficulty:    3,
		Searches:      1000,
		Partitions:    hashvault.DefaultPartitions,
		Workers:       runtime.NumCPU(),
		Hash:          hashvault.HashBlake3.String(),
		Compression:   hashvault.CompressionNone.String(),
		LogMaxSizeMB:  100,
		LogMaxAgeDays: 7,
	}
}

// Load reads a configuration file over the defaults. The format is chosen by
// extension: .toml, or .yaml/.yml.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.LoadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the file at path into c. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, c); err != nil {
			return errors.Wrapf(err, "decode toml config %s", path)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return errors.Wrapf(err, "decode yaml config %s", path)
		}
	default:
		return errors.Errorf("unsupported config file extension %q", ext)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Action {
	case ActionGenerate, ActionSearch, ActionVerify:
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownAction, c.Action)
	}
	if c.Action == ActionGenerate {
		if _, err := hashvault.TotalRecords(c.Exponent); err != nil {
			return err
		}
	}
	if c.Partitions <= 0 {
		return fmt.Errorf("%w: got %d", hverrors.ErrInvalidPartitions, c.Partitions)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", hverrors.ErrConfiguration, c.Workers)
	}
	if _, err := c.HashAlgorithm(); err != nil {
		return err
	}
	if _, err := c.CompressionMode(); err != nil {
		return err
	}
	if c.Action == ActionSearch {
		if err := hashvault.ValidateDifficulty(c.Difficulty); err != nil {
			return err
		}
	}
	return nil
}

// HashAlgorithm returns the configured digest algorithm.
func (c *Config) HashAlgorithm() (hashvault.HashAlgorithm, error) {
	return hashvault.ParseHashAlgorithm(c.Hash)
}

// CompressionMode returns the configured shard compression.
func (c *Config) CompressionMode() (hashvault.Compression, error) {
	return hashvault.ParseCompression(c.Compression)
}
