// Package postgres provides a PostgreSQL database adapter using the pgx
// database/sql driver.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leaphed/pkg/adapters/postgres"
package postgres

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/leaphed/pkg/adapter"
	"github.com/leapstack-labs/leaphed/pkg/dialect"
	pgdialect "github.com/leapstack-labs/leaphed/pkg/dialects/postgres"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(logger)}
}

// Dialect returns the PostgreSQL dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return pgdialect.Postgres
}

// GooseDialect names the goose dialect for deploy migrations.
func (a *Adapter) GooseDialect() string {
	return "postgres"
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	connConfig, params, err := connConfig(cfg)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to postgres", slog.String("host", connConfig.Host), slog.String("database", connConfig.Database))

	db := stdlib.OpenDB(*connConfig)
	if params.MaxConns > 0 {
		db.SetMaxOpenConns(params.MaxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// connConfig parses the target into a pgx connection config.
func connConfig(cfg adapter.Config) (*pgx.ConnConfig, *Params, error) {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return nil, nil, err
	}
	connConfig, err := pgx.ParseConfig(buildPostgresDSN(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid postgres connection settings: %w", err)
	}
	if cfg.Schema != "" {
		connConfig.RuntimeParams["search_path"] = cfg.Schema
	}
	if params.ApplicationName != "" {
		connConfig.RuntimeParams["application_name"] = params.ApplicationName
	}
	if params.StatementTimeout != "" {
		connConfig.RuntimeParams["statement_timeout"] = params.StatementTimeout
	}
	return connConfig, params, nil
}

// buildPostgresDSN constructs a keyword/value PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	parts := []string{
		"host=" + dsnValue(host),
		fmt.Sprintf("port=%d", port),
		"dbname=" + dsnValue(cfg.Database),
		"sslmode=" + dsnValue(sslmode),
	}
	if cfg.Username != "" {
		parts = append(parts, "user="+dsnValue(cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+dsnValue(cfg.Password))
	}
	return strings.Join(parts, " ")
}

// dsnValue quotes a keyword/value DSN value when it is empty or contains
// spaces, quotes or backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// GetTableMetadata retrieves metadata for a specified table.
// Unquoted names are folded to lower case the way PostgreSQL stores them.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	schema := "public"
	if a.Cfg.Schema != "" {
		schema = a.Cfg.Schema
	}
	return a.GetTableMetadataCommon(ctx, strings.ToLower(table), schema, a.Dialect())
}

// LoadCSV replaces tableName with the contents of a CSV file using
// COPY FROM STDIN. All columns are created as TEXT.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	file, err := os.Open(absPath) //nolint:gosec // user-provided seed file
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	headers, err := csv.NewReader(file).Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to reset file: %w", err)
	}

	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()

		tx, err := pgxConn.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		for _, stmt := range createTextTableSQL(tableName, headers) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}

		copySQL := fmt.Sprintf("COPY %s FROM STDIN WITH (FORMAT csv, HEADER true)", identifier(tableName))
		if _, err := tx.Conn().PgConn().CopyFrom(ctx, file, copySQL); err != nil {
			return fmt.Errorf("failed to copy data: %w", err)
		}
		return tx.Commit(ctx)
	})
}

// createTextTableSQL drops and recreates a table with TEXT columns.
func createTextTableSQL(tableName string, columns []string) []string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = identifier(sanitizeColumn(col)) + " TEXT"
	}
	table := identifier(tableName)
	return []string{
		"DROP TABLE IF EXISTS " + table,
		fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", ")),
	}
}

// identifier folds an unquoted name to lower case and quotes it, so CSV
// tables are addressable by the unquoted names in generated views.
func identifier(name string) string {
	parts := strings.Split(strings.ToLower(name), ".")
	return pgx.Identifier(parts).Sanitize()
}

// sanitizeColumn replaces characters that do not belong in a column name.
func sanitizeColumn(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '[', ']', '{', '}':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}

var (
	_ adapter.Adapter  = (*Adapter)(nil)
	_ adapter.Migrator = (*Adapter)(nil)
)
