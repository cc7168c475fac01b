// Package config provides configuration management for the leaphed CLI.
//
// Configuration is layered with koanf: built-in defaults, then leaphed.yaml,
// then LEAPHED_ environment variables, then explicitly set command-line
// flags.
package config

import "github.com/leapstack-labs/leaphed/pkg/adapter"

// TargetConfig is the database a deploy runs against.
type TargetConfig = adapter.Config

// Config holds all CLI configuration options.
type Config struct {
	// LibraryDir is searched for imported libraries. Empty uses the
	// directory of each artifact.
	LibraryDir string `koanf:"library_dir"`

	StatePath string `koanf:"state_path"`

	// Dialect is the SQL dialect translate writes.
	Dialect string `koanf:"dialect"`

	OutputDir string `koanf:"output_dir"`

	LogLevel string `koanf:"log_level"`
	Verbose  bool   `koanf:"verbose"`

	// Models limits the data models available to artifacts.
	Models []string `koanf:"models"`

	// Mapping renames model classes and properties to physical tables and
	// columns; see sqlgen.DecodeMapping.
	Mapping map[string]any `koanf:"mapping"`

	Environment  string               `koanf:"environment"`
	Target       *TargetConfig        `koanf:"target"`
	Deploy       DeployConfig         `koanf:"deploy"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// DeployConfig holds deploy options.
type DeployConfig struct {
	// Seeds maps table names to CSV files loaded before the batch runs.
	Seeds map[string]string `koanf:"seeds"`

	SkipMigrations bool `koanf:"skip_migrations"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Dialect string        `koanf:"dialect"`
	Target  *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultStateFile = ".leaphed/state.db"
	DefaultDialect   = "ansi"
	DefaultOutputDir = "build"
	DefaultLogLevel  = "warn"
	DefaultEnv       = "dev"
)
