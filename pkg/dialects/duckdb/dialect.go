package duckdb

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the DuckDB dialect.
var DuckDB = dialect.New(Config).
	Function(dialect.FnIfNull, "IFNULL({0}, {1})").
	Function(dialect.FnToday, "CAST(current_date AS TIMESTAMP)").
	Function(dialect.FnNow, "CAST(now() AS TIMESTAMP)").
	Function(dialect.FnDateAdd, "({0} + ({1}) * INTERVAL 1 {2})").
	Function(dialect.FnDateFrom, "CAST(CAST({0} AS DATE) AS TIMESTAMP)").
	Function(dialect.FnTruncDiv, "(({0}) // ({1}))").
	Function(dialect.FnMod, "(({0}) % ({1}))").
	Function(dialect.FnLength, "length({0})").
	FunctionFunc(dialect.FnDateDiff, func(args []string) string {
		return fmt.Sprintf("date_diff('%s', %s, %s)", strings.ToLower(args[0]), args[1], args[2])
	}).
	WithReservedWords(dialect.StandardReservedWords...).
	WithReservedWords("asof", "pivot", "qualify", "unpivot", "positional", "semi", "anti").
	Build()
