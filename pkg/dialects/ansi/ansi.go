// Package ansi provides the base ANSI SQL dialect.
//
// It renders every portable function with the standard spelling, limits rows
// with FETCH FIRST and is the default when no database-specific dialect is
// configured.
package ansi

import "github.com/leapstack-labs/leaphed/pkg/dialect"

func init() {
	dialect.Register(ANSI)
}

// ANSI is the base ANSI SQL dialect.
var ANSI = dialect.NewDialect("ansi").
	Identifiers(`"`, `"`, `""`, dialect.NormLowercase).
	PlaceholderStyle(dialect.PlaceholderQuestion).
	Limit(dialect.FetchFirstClause).
	Build()
