// Package deploy installs a translated artifact on a database target: it
// migrates the generic codes table, loads seed tables and executes the
// statement batch through an adapter.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/leaphed/pkg/adapter"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/sqlwriter"
)

// Options configures a deployment.
type Options struct {
	// Seeds maps table names to CSV files loaded before the batch runs.
	Seeds map[string]string

	// SkipMigrations leaves the codes table alone.
	SkipMigrations bool

	Logger *slog.Logger
}

// Result summarizes a deployment.
type Result struct {
	Migrations []int64
	Seeded     []string
	Statements int
}

// Deploy runs batch against a connected adapter. The batch is rendered in
// the adapter's dialect and executed in one transaction.
func Deploy(ctx context.Context, a adapter.Adapter, batch *sqlast.Batch, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	res := &Result{}

	if !opts.SkipMigrations {
		versions, err := Migrate(ctx, a, logger)
		if err != nil {
			return nil, err
		}
		res.Migrations = versions
	}

	tables := make([]string, 0, len(opts.Seeds))
	for table := range opts.Seeds {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		logger.Debug("loading seed", slog.String("table", table), slog.String("path", opts.Seeds[table]))
		if err := a.LoadCSV(ctx, table, opts.Seeds[table]); err != nil {
			return nil, fmt.Errorf("seeding %s: %w", table, err)
		}
		res.Seeded = append(res.Seeded, table)
	}

	stmts := sqlwriter.Statements(batch, a.Dialect())
	logger.Debug("executing batch", slog.Int("statements", len(stmts)), slog.String("dialect", a.Dialect().GetName()))
	if err := a.ExecBatch(ctx, stmts); err != nil {
		return nil, fmt.Errorf("deploying batch: %w", err)
	}
	res.Statements = len(stmts)
	return res, nil
}
