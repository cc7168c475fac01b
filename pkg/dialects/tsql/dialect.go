package tsql

import "github.com/leapstack-labs/leaphed/pkg/dialect"

func init() {
	dialect.Register(TSQL)
}

// TSQL is the Transact-SQL dialect. SQL Server has no boolean values, so
// predicates are stored as 1 and 0 like every other dialect here.
var TSQL = dialect.New(Config).
	Function(dialect.FnIfNull, "ISNULL({0}, {1})").
	Function(dialect.FnToday, "CAST(CAST(GETDATE() AS DATE) AS DATETIME)").
	Function(dialect.FnNow, "GETDATE()").
	Function(dialect.FnDateTime, "CAST({0} AS DATETIME)").
	Function(dialect.FnDateAdd, "DATEADD({2}, {1}, {0})").
	Function(dialect.FnDateDiff, "DATEDIFF({0}, {1}, {2})").
	Function(dialect.FnDateFrom, "CAST(CAST({0} AS DATE) AS DATETIME)").
	Function(dialect.FnTruncDiv, "(({0}) / ({1}))").
	Function(dialect.FnMod, "(({0}) % ({1}))").
	Function(dialect.FnLength, "LEN({0})").
	WithReservedWords(tsqlReservedWords...).
	Build()
