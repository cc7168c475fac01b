// Package adapter provides database adapter interfaces used to deploy
// translated statement batches.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leaphed/pkg/dialect"
)

// Config holds the connection settings of a deploy target.
type Config struct {
	Type     string            `koanf:"type" mapstructure:"type"`
	Path     string            `koanf:"path" mapstructure:"path"`
	Host     string            `koanf:"host" mapstructure:"host"`
	Port     int               `koanf:"port" mapstructure:"port"`
	Database string            `koanf:"database" mapstructure:"database"`
	Username string            `koanf:"username" mapstructure:"username"`
	Password string            `koanf:"password" mapstructure:"password"`
	Schema   string            `koanf:"schema" mapstructure:"schema"`
	Options  map[string]string `koanf:"options" mapstructure:"options"`

	// Params holds adapter specific settings, decoded by each adapter
	// into its own Params type.
	Params map[string]any `koanf:"params" mapstructure:"params"`
}

// Column describes a table column.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Position   int
}

// Metadata holds metadata about a database table.
type Metadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// ExecBatch executes the statements in order inside one transaction.
	// Either every statement is applied or none is.
	ExecBatch(ctx context.Context, stmts []string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadCSV loads data from a CSV file into a table, replacing it.
	LoadCSV(ctx context.Context, tableName string, filePath string) error

	// Dialect returns the SQL dialect statements for this adapter are rendered in.
	Dialect() *dialect.Dialect

	// SQL exposes the underlying database handle, nil before Connect.
	SQL() *sql.DB
}

// Migrator is implemented by adapters whose database can carry goose
// migrations. The value is a goose dialect name.
type Migrator interface {
	GooseDialect() string
}
