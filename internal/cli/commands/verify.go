package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leaphed/internal/engine"
)

// ErrArtifactsFailed is returned when at least one artifact has
// verification errors.
var ErrArtifactsFailed = errors.New("verification failed")

// VerifyOptions holds options for the verify command.
type VerifyOptions struct {
	NoRecord bool
	Watch    bool
	Jobs     int
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	opts := &VerifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <artifact|dir>...",
		Short: "Verify artifacts and the libraries they import",
		Long: `Type-check HeD artifacts.

Each artifact is verified in its own run: imported libraries are resolved,
verified once and their messages reported with the library name. Runs are
recorded in the state database unless --no-record is given.`,
		Example: `  # Verify one artifact
  leaphed verify artifacts/screening.yaml

  # Verify every artifact in a directory, re-verifying on change
  leaphed verify artifacts --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoRecord, "no-record", false, "Do not record runs in the state database")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-verify when artifact or library files change")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.NumCPU(), "Number of artifacts verified concurrently")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string, opts *VerifyOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	var eng *engine.Engine
	var err error
	if opts.NoRecord {
		eng, err = cc.Engine(nil)
	} else {
		store, serr := cc.OpenStore(ctx)
		if serr != nil {
			return serr
		}
		defer func() { _ = store.Close() }()
		eng, err = cc.Engine(store)
	}
	if err != nil {
		return err
	}

	verifyOnce := func() error {
		return verifyArtifacts(ctx, cmd.OutOrStdout(), eng, args, opts.Jobs)
	}

	if !opts.Watch {
		return verifyOnce()
	}
	if err := verifyOnce(); err != nil && !errors.Is(err, ErrArtifactsFailed) {
		return err
	}
	return watch(ctx, cc.Logger, watchDirs(args, cc.Cfg.LibraryDir), func() {
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
		if err := verifyOnce(); err != nil && !errors.Is(err, ErrArtifactsFailed) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	})
}

// verifyArtifacts verifies the artifacts concurrently and prints the
// results in input order.
func verifyArtifacts(ctx context.Context, w io.Writer, eng *engine.Engine, args []string, jobs int) error {
	files, err := collectArtifacts(args)
	if err != nil {
		return err
	}

	results := make([]*engine.Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, f := range files {
		g.Go(func() error {
			res, err := eng.Verify(gctx, f.Artifact)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, res := range results {
		status := "ok"
		if res.HasErrors() {
			status = "FAILED"
			failed++
		}
		_, _ = fmt.Fprintf(w, "%s (%s): %s, %d errors, %d warnings [%s]\n",
			res.Artifact.Name(), files[i].Path, status,
			len(res.Diagnostics.Errors()), len(res.Diagnostics.Warnings()),
			res.Duration.Round(time.Millisecond))
		renderDiagnostics(w, res.Diagnostics)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d artifacts: %w", failed, len(results), ErrArtifactsFailed)
	}
	return nil
}
