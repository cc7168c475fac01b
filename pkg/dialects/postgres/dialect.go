package postgres

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect.
var Postgres = dialect.New(Config).
	Function(dialect.FnToday, "CAST(CURRENT_DATE AS TIMESTAMP)").
	Function(dialect.FnNow, "LOCALTIMESTAMP").
	Function(dialect.FnDateAdd, "({0} + ({1}) * INTERVAL '1 {2}')").
	Function(dialect.FnDateFrom, "DATE_TRUNC('day', {0})").
	Function(dialect.FnTruncDiv, "DIV({0}, {1})").
	Function(dialect.FnLength, "LENGTH({0})").
	FunctionFunc(dialect.FnDateDiff, dateDiff).
	WithReservedWords(postgresReservedWords...).
	Build()

// dateDiff renders datediff(unit, start, end) as whole units elapsed.
func dateDiff(args []string) string {
	unit, start, end := strings.ToLower(args[0]), args[1], args[2]
	age := fmt.Sprintf("AGE(%s, %s)", end, start)
	switch unit {
	case "year":
		return fmt.Sprintf("CAST(DATE_PART('year', %s) AS INTEGER)", age)
	case "month":
		return fmt.Sprintf("CAST(DATE_PART('year', %s) * 12 + DATE_PART('month', %s) AS INTEGER)", age, age)
	case "week":
		return fmt.Sprintf("CAST(FLOOR(EXTRACT(EPOCH FROM (%s - %s)) / 604800) AS INTEGER)", end, start)
	case "day":
		return fmt.Sprintf("CAST(FLOOR(EXTRACT(EPOCH FROM (%s - %s)) / 86400) AS INTEGER)", end, start)
	case "hour":
		return fmt.Sprintf("CAST(FLOOR(EXTRACT(EPOCH FROM (%s - %s)) / 3600) AS INTEGER)", end, start)
	case "minute":
		return fmt.Sprintf("CAST(FLOOR(EXTRACT(EPOCH FROM (%s - %s)) / 60) AS INTEGER)", end, start)
	default:
		return fmt.Sprintf("CAST(FLOOR(EXTRACT(EPOCH FROM (%s - %s))) AS INTEGER)", end, start)
	}
}
