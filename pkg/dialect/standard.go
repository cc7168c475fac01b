package dialect

// standardFunctions are the ANSI renderings of the portable functions.
// Dialects override the ones they spell differently.
var standardFunctions = map[string]string{
	FnIfNull:   "COALESCE({0}, {1})",
	FnToday:    "CURRENT_DATE",
	FnNow:      "CURRENT_TIMESTAMP",
	FnDateTime: "CAST({0} AS TIMESTAMP)",
	FnDateAdd:  "({0} + ({1}) * INTERVAL '1' {2})",
	FnDateDiff: "EXTRACT({0} FROM ({2} - {1}))",
	FnDateFrom: "CAST({0} AS DATE)",
	FnTruncDiv: "CAST(({0}) / ({1}) AS INTEGER)",
	FnMod:      "MOD({0}, {1})",
	FnCeiling:  "CEILING({0})",
	FnFloor:    "FLOOR({0})",
	FnAbs:      "ABS({0})",
	FnRound:    "ROUND({*})",
	FnPower:    "POWER({0}, {1})",
	FnUpper:    "UPPER({0})",
	FnLower:    "LOWER({0})",
	FnLength:   "CHAR_LENGTH({0})",
}

// StandardReservedWords are SQL keywords every dialect quotes when they are
// used as identifiers.
var StandardReservedWords = []string{
	"all", "and", "any", "as", "asc", "between", "by", "case", "cast", "check",
	"column", "constraint", "create", "cross", "current_date", "current_time",
	"current_timestamp", "default", "delete", "desc", "distinct", "drop", "else",
	"end", "except", "exists", "false", "fetch", "for", "foreign", "from", "full",
	"grant", "group", "having", "in", "inner", "insert", "intersect", "into", "is",
	"join", "key", "left", "like", "limit", "natural", "not", "null", "of", "on",
	"or", "order", "outer", "primary", "references", "right", "select", "table",
	"then", "to", "true", "union", "unique", "update", "user", "using", "values",
	"view", "when", "where", "with",
}
