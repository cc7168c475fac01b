package sqlite

import (
	"fmt"

	"github.com/leapstack-labs/leaphed/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

// SQLite is the SQLite dialect. Date and time values are ISO-8601 text as
// produced by datetime().
var SQLite = dialect.New(Config).
	Units(units).
	Function(dialect.FnIfNull, "IFNULL({0}, {1})").
	Function(dialect.FnToday, "datetime('now', 'start of day')").
	Function(dialect.FnNow, "datetime('now')").
	Function(dialect.FnDateTime, "datetime({0})").
	Function(dialect.FnDateFrom, "datetime({0}, 'start of day')").
	Function(dialect.FnMod, "(({0}) % ({1}))").
	Function(dialect.FnCeiling, "(CAST({0} AS INTEGER) + (({0}) > CAST({0} AS INTEGER)))").
	Function(dialect.FnFloor, "(CAST({0} AS INTEGER) - (({0}) < CAST({0} AS INTEGER)))").
	Function(dialect.FnLength, "LENGTH({0})").
	FunctionFunc(dialect.FnDateAdd, dateAdd).
	FunctionFunc(dialect.FnDateDiff, dateDiff).
	WithReservedWords(dialect.StandardReservedWords...).
	WithReservedWords("abort", "autoincrement", "glob", "index", "isnull", "notnull", "pragma", "raise", "regexp", "vacuum").
	Build()

// dateAdd renders dateadd(date, amount, unit). SQLite has no week modifier.
func dateAdd(args []string) string {
	date, amount, unit := args[0], args[1], args[2]
	if unit == "weeks" {
		return fmt.Sprintf("datetime(%s, ((%s) * 7) || ' days')", date, amount)
	}
	return fmt.Sprintf("datetime(%s, (%s) || ' %s')", date, amount, unit)
}

// dateDiff renders datediff(unit, start, end) as whole units elapsed.
func dateDiff(args []string) string {
	unit, start, end := args[0], args[1], args[2]
	return fmt.Sprintf("CAST((julianday(%s) - julianday(%s))%s AS INTEGER)", end, start, dayFactors[unit])
}
