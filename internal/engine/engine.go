// Package engine verifies HeD artifacts and translates them into SQL batches.
// It wires the library resolver, the verifier, the translator and the run
// store together for one artifact at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/leaphed/internal/deploy"
	"github.com/leapstack-labs/leaphed/internal/state"
	"github.com/leapstack-labs/leaphed/pkg/adapter"
	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/library"
	"github.com/leapstack-labs/leaphed/pkg/models"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/sqlast"
	"github.com/leapstack-labs/leaphed/pkg/sqlgen"
	"github.com/leapstack-labs/leaphed/pkg/verify"
)

// ErrVerificationFailed is returned when an artifact with verification
// errors is translated or deployed.
var ErrVerificationFailed = errors.New("artifact has verification errors")

// Config holds engine configuration.
type Config struct {
	// LibraryDir is searched for imported libraries. Empty uses the
	// directory of each artifact file.
	LibraryDir string

	// Models names the data models available to artifacts. Empty makes
	// every known model available.
	Models []string

	// Mapping renames model classes and properties to physical tables and
	// columns. Optional.
	Mapping *sqlgen.Mapping

	// Store records verification runs. Optional.
	Store state.Store

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine verifies and translates artifacts.
type Engine struct {
	libraryDir string
	models     []func() *models.Model
	mapping    *sqlgen.Mapping
	store      state.Store
	logger     *slog.Logger
}

// Result is the outcome of verifying one artifact.
type Result struct {
	Artifact    *artifact.Artifact
	Diagnostics verify.Diagnostics

	// RunID identifies the recorded run; empty without a store.
	RunID    string
	Duration time.Duration

	annotations *ast.Annotations
	libraries   *library.Resolver
}

// HasErrors reports whether verification produced any error.
func (r *Result) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

// Libraries returns the libraries resolved while verifying the artifact.
func (r *Result) Libraries() []*artifact.Library {
	return r.libraries.Libraries()
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	names := cfg.Models
	if len(names) == 0 {
		names = ModelNames()
	}
	ctors := make([]func() *models.Model, 0, len(names))
	for _, name := range names {
		ctor, err := lookupModel(name)
		if err != nil {
			return nil, err
		}
		ctors = append(ctors, ctor)
	}

	logger.Debug("initializing engine", "library_dir", cfg.LibraryDir, "models", names)

	return &Engine{
		libraryDir: cfg.LibraryDir,
		models:     ctors,
		mapping:    cfg.Mapping,
		store:      cfg.Store,
		logger:     logger,
	}, nil
}

// newVerifier creates the per-run verifier. Model descriptors are built
// fresh because their type resolvers are bound to the run.
func (e *Engine) newVerifier(resolver verify.LibraryResolver) (*verify.Verifier, error) {
	ms := make([]*models.Model, len(e.models))
	for i, ctor := range e.models {
		ms[i] = ctor()
	}
	return verify.New(verify.Options{
		Models:    ms,
		Libraries: resolver,
		Logger:    e.logger,
	})
}

func (e *Engine) resolver(a *artifact.Artifact) *library.Resolver {
	dir := e.libraryDir
	if dir == "" && a.Source != "" {
		dir = filepath.Dir(a.Source)
	}
	return library.NewResolver(library.DirReader{Dir: dir}, e.logger)
}

// VerifyFile reads and verifies the artifact at path.
func (e *Engine) VerifyFile(ctx context.Context, path string) (*Result, error) {
	a, err := artifact.ReadArtifactFile(path)
	if err != nil {
		return nil, err
	}
	return e.Verify(ctx, a)
}

// Verify verifies a and the libraries it imports. Verification problems are
// reported as diagnostics; the error is non-nil only when verification
// could not run to completion.
func (e *Engine) Verify(ctx context.Context, a *artifact.Artifact) (*Result, error) {
	start := time.Now()
	res := &Result{Artifact: a, libraries: e.resolver(a)}

	if e.store != nil {
		run, err := e.store.CreateRun(ctx, a.Name(), a.Source)
		if err != nil {
			return nil, fmt.Errorf("recording run: %w", err)
		}
		res.RunID = run.ID
	}

	diags, err := e.verify(ctx, a, res)
	res.Diagnostics = diags
	res.Duration = time.Since(start)

	if e.store != nil {
		if cerr := e.store.CompleteRun(ctx, res.RunID, state.DiagnosticsFrom(diags), err); cerr != nil {
			e.logger.Warn("failed to complete run", "run_id", res.RunID, "error", cerr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("verifying %s: %w", a.Name(), err)
	}

	e.logger.Info("artifact verified",
		"artifact", a.Name(),
		"errors", len(diags.Errors()),
		"warnings", len(diags.Warnings()),
		"duration", res.Duration)
	return res, nil
}

func (e *Engine) verify(ctx context.Context, a *artifact.Artifact, res *Result) (verify.Diagnostics, error) {
	v, err := e.newVerifier(res.libraries)
	if err != nil {
		return nil, err
	}
	diags, err := v.VerifyArtifact(ctx, a)
	res.annotations = v.Annotations()
	return diags, err
}

// Translate translates a verified artifact and its libraries into a batch.
func (e *Engine) Translate(ctx context.Context, res *Result) (*sqlast.Batch, error) {
	if res.HasErrors() {
		return nil, fmt.Errorf("%s: %w", res.Artifact.Name(), ErrVerificationFailed)
	}

	registry := sqlgen.NewRegistry()
	if e.mapping != nil {
		e.mapping.Register(registry)
	}
	tr := sqlgen.New(sqlgen.Options{
		Registry:    registry,
		Annotations: res.annotations,
		Libraries:   res.libraries,
		Logger:      e.logger,
	})

	batch, err := tr.TranslateArtifact(ctx, res.Artifact)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("artifact translated", "artifact", res.Artifact.Name(), "statements", len(batch.Statements))
	return batch, nil
}

// Deploy translates a verified artifact and deploys it through a connected
// adapter.
func (e *Engine) Deploy(ctx context.Context, res *Result, a adapter.Adapter, opts deploy.Options) (*deploy.Result, error) {
	batch, err := e.Translate(ctx, res)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = e.logger
	}
	return deploy.Deploy(ctx, a, batch, opts)
}

// Operators returns every overload available to artifacts.
func (e *Engine) Operators() ([]*operator.Operator, error) {
	v, err := e.newVerifier(nil)
	if err != nil {
		return nil, err
	}
	return v.Operators().All(), nil
}
