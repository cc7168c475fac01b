package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaphed/internal/engine"
	"github.com/leapstack-labs/leaphed/pkg/adapter"
	"github.com/leapstack-labs/leaphed/pkg/dialect"
	"github.com/leapstack-labs/leaphed/pkg/sqlgen"
)

// Validate checks the dialect, model names, log level and target type.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	if _, err := dialect.Lookup(c.Dialect); err != nil {
		return fmt.Errorf("invalid dialect: %w", err)
	}
	for _, m := range c.Models {
		if !engine.IsKnownModel(m) {
			return fmt.Errorf("unknown model %q in models (available: %s)", m, strings.Join(engine.ModelNames(), ", "))
		}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Target != nil {
		if err := ValidateTarget(c.Target); err != nil {
			return fmt.Errorf("invalid target configuration: %w", err)
		}
	}
	return nil
}

// ValidateTarget checks that the target names a registered adapter.
func ValidateTarget(t *TargetConfig) error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.ListAdapters()}
	}
	return nil
}

// ParseLevel parses a log level name.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: use debug, info, warn or error", name)
	}
	return level, nil
}

// ModelMapping decodes the configured model mapping, or returns nil when
// none is configured.
func (c *Config) ModelMapping() (*sqlgen.Mapping, error) {
	if len(c.Mapping) == 0 {
		return nil, nil
	}
	m, err := sqlgen.DecodeMapping(c.Mapping)
	if err != nil {
		return nil, fmt.Errorf("invalid mapping: %w", err)
	}
	return m, nil
}
