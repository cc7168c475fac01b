package deploy

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/leapstack-labs/leaphed/pkg/adapter"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the generic codes table on the target. Adapters that
// implement adapter.Migrator are versioned with goose; others run the
// idempotent up statements directly. It returns the applied versions.
func Migrate(ctx context.Context, a adapter.Adapter, logger *slog.Logger) ([]int64, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m, ok := a.(adapter.Migrator)
	if !ok {
		logger.Debug("adapter has no goose dialect, applying migrations directly")
		return applyUp(ctx, a)
	}

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.Dialect(m.GooseDialect()), a.SQL(), fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	versions := make([]int64, 0, len(results))
	for _, r := range results {
		logger.Debug("applied migration", slog.Int64("version", r.Source.Version))
		versions = append(versions, r.Source.Version)
	}
	return versions, nil
}

// applyUp executes the up section of every migration in version order.
func applyUp(ctx context.Context, a adapter.Adapter) ([]int64, error) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var versions []int64
	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if err := a.ExecBatch(ctx, upStatements(string(data))); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", name, err)
		}
		version, err := goose.NumericComponent(name)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, nil
}

// upStatements splits the "-- +goose Up" section of a migration into
// statements. Migrations here contain no semicolons inside statements.
func upStatements(src string) []string {
	var (
		stmts []string
		buf   strings.Builder
		inUp  bool
	)
	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-- +goose Up"):
			inUp = true
			continue
		case strings.HasPrefix(trimmed, "-- +goose Down"):
			inUp = false
			continue
		case !inUp || trimmed == "" || strings.HasPrefix(trimmed, "--"):
			continue
		}
		buf.WriteString(line)
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSuffix(strings.TrimSpace(buf.String()), ";"))
			buf.Reset()
			continue
		}
		buf.WriteByte('\n')
	}
	if rest := strings.TrimSpace(buf.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
