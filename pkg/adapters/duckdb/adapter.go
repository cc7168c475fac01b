// Package duckdb provides a DuckDB database adapter.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leaphed/pkg/adapters/duckdb"
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcboeker/go-duckdb"

	"github.com/leapstack-labs/leaphed/pkg/adapter"
	"github.com/leapstack-labs/leaphed/pkg/dialect"
	duckdbdialect "github.com/leapstack-labs/leaphed/pkg/dialects/duckdb"
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(logger)}
}

// Dialect returns the DuckDB dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return duckdbdialect.DuckDB
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" or an empty path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Path))

	// Extensions and settings apply per connection; the pool may open several.
	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		for _, stmt := range connectionStatements(params) {
			if _, err := execer.ExecContext(context.Background(), stmt, nil); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	for _, secret := range params.Secrets {
		if _, err := db.ExecContext(ctx, buildCreateSecretSQL(secret)); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to create %s secret: %w", secret.Type, err)
		}
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// connectionStatements returns the extension loads and settings run on
// every new connection, settings in name order.
func connectionStatements(params *Params) []string {
	var stmts []string
	for _, ext := range params.Extensions {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}

	names := make([]string, 0, len(params.Settings))
	for name := range params.Settings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", name, escapeString(params.Settings[name])))
	}
	return stmts
}

// buildCreateSecretSQL renders a CREATE SECRET statement.
func buildCreateSecretSQL(cfg SecretConfig) string {
	opts := []string{"TYPE " + cfg.Type}
	if cfg.Provider != "" {
		opts = append(opts, "PROVIDER "+cfg.Provider)
	}
	if cfg.Region != "" {
		opts = append(opts, fmt.Sprintf("REGION '%s'", escapeString(cfg.Region)))
	}
	if scope := scopeList(cfg.Scope); len(scope) == 1 {
		opts = append(opts, fmt.Sprintf("SCOPE '%s'", escapeString(scope[0])))
	} else if len(scope) > 1 {
		quoted := make([]string, len(scope))
		for i, s := range scope {
			quoted[i] = "'" + escapeString(s) + "'"
		}
		opts = append(opts, fmt.Sprintf("SCOPE (%s)", strings.Join(quoted, ", ")))
	}
	if cfg.KeyID != "" {
		opts = append(opts, fmt.Sprintf("KEY_ID '%s'", escapeString(cfg.KeyID)))
	}
	if cfg.Secret != "" {
		opts = append(opts, fmt.Sprintf("SECRET '%s'", escapeString(cfg.Secret)))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, fmt.Sprintf("ENDPOINT '%s'", escapeString(cfg.Endpoint)))
	}
	if cfg.URLStyle != "" {
		opts = append(opts, fmt.Sprintf("URL_STYLE '%s'", escapeString(cfg.URLStyle)))
	}
	if cfg.UseSSL != nil {
		opts = append(opts, fmt.Sprintf("USE_SSL %t", *cfg.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(opts, ",\n    ") + "\n)"
}

// scopeList normalizes a scope given as a string or a list.
func scopeList(scope any) []string {
	switch s := scope.(type) {
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, v := range s {
			out = append(out, fmt.Sprint(v))
		}
		return out
	}
	return nil
}

func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, "main", a.Dialect())
}

// LoadCSV loads data from a CSV file into a table, inferring its schema.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true)",
		a.Dialect().QuoteIdentifier(tableName),
		escapeString(absPath),
	)
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
