// Package state records verification runs and their diagnostics in SQLite.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/leaphed/pkg/verify"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one verification of one artifact.
type Run struct {
	ID           string
	Artifact     string
	Source       string
	Status       RunStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorCount   int
	WarningCount int
	Error        string
}

// Diagnostic is a recorded verification message.
type Diagnostic struct {
	Severity string
	Library  string
	Line     int
	Column   int
	Message  string
}

// Store is the run store contract.
type Store interface {
	CreateRun(ctx context.Context, artifact, source string) (*Run, error)
	CompleteRun(ctx context.Context, id string, diags []Diagnostic, runErr error) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	RunDiagnostics(ctx context.Context, id string) ([]Diagnostic, error)
	Close() error
}

// DiagnosticsFrom converts verifier diagnostics for recording.
func DiagnosticsFrom(ds verify.Diagnostics) []Diagnostic {
	out := make([]Diagnostic, len(ds))
	for i, d := range ds {
		out[i] = Diagnostic{
			Severity: d.Severity(),
			Library:  d.Library,
			Line:     d.Line,
			Column:   d.Column,
			Message:  d.Message,
		}
	}
	return out
}
