// Package sqlite provides the SQLite SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package sqlite

import "github.com/leapstack-labs/leaphed/pkg/dialect"

// Config is the SQLite dialect configuration.
var Config = dialect.Config{
	Name:        "sqlite",
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

// units are the date and time modifier spellings of datetime().
var units = map[string]string{
	"year":   "years",
	"month":  "months",
	"week":   "weeks",
	"day":    "days",
	"hour":   "hours",
	"minute": "minutes",
	"second": "seconds",
}

// dayFactors converts a julianday difference into a unit count.
var dayFactors = map[string]string{
	"years":   " / 365.25",
	"months":  " / 30.4375",
	"weeks":   " / 7",
	"days":    "",
	"hours":   " * 24",
	"minutes": " * 1440",
	"seconds": " * 86400",
}
