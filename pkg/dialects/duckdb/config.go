// Package duckdb provides the DuckDB SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package duckdb

import "github.com/leapstack-labs/leaphed/pkg/dialect"

// Config is the DuckDB dialect configuration.
var Config = dialect.Config{
	Name:        "duckdb",
	Placeholder: dialect.PlaceholderQuestion,
	Limit:       dialect.LimitClause,
	Concat:      "||",
	Identifiers: dialect.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: dialect.NormCaseInsensitive,
	},
}
