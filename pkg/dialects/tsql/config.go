// Package tsql provides the Microsoft SQL Server (Transact-SQL) dialect
// definition. This package is pure Go with no database driver dependencies.
package tsql

import "github.com/leapstack-labs/leaphed/pkg/dialect"

// Config is the Transact-SQL dialect configuration.
var Config = dialect.Config{
	Name:           "tsql",
	Placeholder:    dialect.PlaceholderAt,
	Limit:          dialect.TopClause,
	Concat:         "+",
	BatchSeparator: "GO",
	Identifiers: dialect.IdentifierConfig{
		Quote:         "[",
		QuoteEnd:      "]",
		Escape:        "]]",
		Normalization: dialect.NormCaseInsensitive,
	},
}

var tsqlReservedWords = []string{
	"add", "all", "alter", "and", "any", "as", "asc", "authorization", "backup",
	"begin", "between", "break", "browse", "bulk", "by", "cascade", "case",
	"check", "checkpoint", "close", "clustered", "coalesce", "collate", "column",
	"commit", "compute", "constraint", "contains", "continue", "convert",
	"create", "cross", "current", "current_date", "current_time",
	"current_timestamp", "current_user", "cursor", "database", "dbcc",
	"deallocate", "declare", "default", "delete", "deny", "desc", "distinct",
	"distributed", "double", "drop", "else", "end", "errlvl", "escape", "except",
	"exec", "execute", "exists", "exit", "external", "fetch", "file",
	"fillfactor", "for", "foreign", "from", "full", "function", "goto", "grant",
	"group", "having", "holdlock", "identity", "if", "in", "index", "inner",
	"insert", "intersect", "into", "is", "join", "key", "kill", "left", "like",
	"merge", "national", "nocheck", "nonclustered", "not", "null", "nullif",
	"of", "off", "offsets", "on", "open", "option", "or", "order", "outer",
	"over", "percent", "pivot", "plan", "primary", "print", "proc", "procedure",
	"public", "raiserror", "read", "reconfigure", "references", "replication",
	"restore", "restrict", "return", "revert", "revoke", "right", "rollback",
	"rowcount", "rule", "save", "schema", "select", "session_user", "set",
	"setuser", "shutdown", "some", "statistics", "system_user", "table",
	"textsize", "then", "to", "top", "tran", "transaction", "trigger",
	"truncate", "union", "unique", "unpivot", "update", "use", "user", "values",
	"varying", "view", "waitfor", "when", "where", "while", "with",
}
