package sqlite

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds SQLite-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Pragmas applied after connecting (e.g., journal_mode, foreign_keys).
	Pragmas map[string]string `mapstructure:"pragmas"`

	// BusyTimeout in milliseconds, 0 keeps the driver default.
	BusyTimeout int `mapstructure:"busy_timeout"`
}

// DecodeParams decodes raw target params.
func DecodeParams(raw map[string]any) (Params, error) {
	var p Params
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(raw); err != nil {
		return p, fmt.Errorf("invalid sqlite params: %w", err)
	}
	return p, nil
}
