package config

import (
	"fmt"

	"github.com/ajnelson-nist/dfxml/internal/domain"
)

// Config is the complete configuration for idiff
type Config struct {
	// Log configures the logger
	Log LogConfig `mapstructure:"log"`

	// Diff configures the matching and classification run
	Diff DiffConfig `mapstructure:"diff"`

	// Output configures differential serialization
	Output OutputConfig `mapstructure:"output"`

	// State configures run-history persistence
	State StateConfig `mapstructure:"state"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`

	// File, when non-empty, enables rotating file output at this path
	File string `mapstructure:"file"`
}

// DiffConfig configures the differential run
type DiffConfig struct {
	// IgnoreProperties names object attributes excluded from all
	// difference operations (e.g. "atime" to ignore access-time noise)
	IgnoreProperties []string `mapstructure:"ignore_properties"`

	// IgnoreNames adds file names to skip while loading snapshots, on
	// top of the built-in pseudo-file names
	IgnoreNames []string `mapstructure:"ignore_names"`

	// DropUnchanged removes unchanged records from the output
	DropUnchanged bool `mapstructure:"drop_unchanged"`

	// Parallelism is the number of snapshot pairs diffed concurrently
	// (0 or 1 = sequential)
	Parallelism int `mapstructure:"parallelism"`
}

// OutputConfig configures differential serialization
type OutputConfig struct {
	// Format is "xml" or "json"
	Format string `mapstructure:"format"`
}

// StateConfig configures run-history persistence
type StateConfig struct {
	// Enabled turns run-history recording on
	Enabled bool `mapstructure:"enabled"`

	// Dir is the directory holding the history database
	Dir string `mapstructure:"dir"`
}

// knownProperties are the attribute names accepted in ignore_properties
var knownProperties = map[string]bool{
	domain.AttrPath:             true,
	domain.AttrSizeBytes:        true,
	domain.AttrContentHashes:    true,
	domain.AttrAllocated:        true,
	string(domain.TimeModified): true,
	string(domain.TimeAccessed): true,
	string(domain.TimeChanged):  true,
	string(domain.TimeCreated):  true,
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	for _, p := range c.Diff.IgnoreProperties {
		if !knownProperties[p] {
			return fmt.Errorf("%w: unknown ignore property: %s", domain.ErrConfigInvalid, p)
		}
	}
	if c.Diff.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism cannot be negative", domain.ErrConfigInvalid)
	}
	switch c.Output.Format {
	case "", "xml", "json":
	default:
		return fmt.Errorf("%w: unknown output format: %s", domain.ErrConfigInvalid, c.Output.Format)
	}
	if c.State.Enabled && c.State.Dir == "" {
		return fmt.Errorf("%w: state enabled but no directory configured", domain.ErrConfigInvalid)
	}
	return nil
}
