package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CreateRun records the start of a verification run.
func (s *SQLiteStore) CreateRun(ctx context.Context, artifact, source string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	run := &Run{
		ID:        generateID(),
		Artifact:  artifact,
		Source:    source,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("artifact", artifact))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, artifact, source, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Artifact, run.Source, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun stores the diagnostics of a run and marks it completed, or
// failed when runErr is set or any diagnostic is an error.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, diags []Diagnostic, runErr error) error {
	if s.db == nil {
		return errNotOpened
	}

	var errorCount, warningCount int
	for _, d := range diags {
		if d.Severity == "warning" {
			warningCount++
		} else {
			errorCount++
		}
	}

	status := RunStatusCompleted
	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
		status = RunStatusFailed
	} else if errorCount > 0 {
		status = RunStatusFailed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error_count = ?, warning_count = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errorCount, warningCount, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_diagnostics (run_id, seq, severity, library, line, col, message) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare diagnostic insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, d := range diags {
		if _, err := stmt.ExecContext(ctx, id, i+1, d.Severity, d.Library, d.Line, d.Column, d.Message); err != nil {
			return fmt.Errorf("failed to record diagnostic: %w", err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, artifact, source, status, started_at, completed_at, error_count, warning_count, error`

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunDiagnostics returns the recorded diagnostics of a run in order.
func (s *SQLiteStore) RunDiagnostics(ctx context.Context, id string) ([]Diagnostic, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT severity, library, line, col, message FROM run_diagnostics WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnostics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var diags []Diagnostic
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.Severity, &d.Library, &d.Line, &d.Column, &d.Message); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	err := row.Scan(&run.ID, &run.Artifact, &run.Source, &status, &run.StartedAt,
		&completedAt, &run.ErrorCount, &run.WarningCount, &errMsg)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}
