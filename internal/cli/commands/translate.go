package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaphed/internal/engine"
	"github.com/leapstack-labs/leaphed/pkg/dialect"
	"github.com/leapstack-labs/leaphed/pkg/sqlwriter"
)

// TranslateOptions holds options for the translate command.
type TranslateOptions struct {
	Stdout bool
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand() *cobra.Command {
	opts := &TranslateOptions{}

	cmd := &cobra.Command{
		Use:   "translate <artifact|dir>...",
		Short: "Translate artifacts into SQL scripts",
		Long: `Verify artifacts and translate them into SQL view scripts.

Imported libraries are translated first, in dependency order. The script for
each artifact is written to <output-dir>/<artifact>.sql in the configured
dialect. Artifacts with verification errors are not translated.`,
		Example: `  # Translate for SQLite into ./build
  leaphed translate artifacts/screening.yaml --dialect sqlite

  # Print T-SQL to stdout
  leaphed translate artifacts/screening.yaml --dialect tsql --stdout`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "Write scripts to stdout instead of the output directory")

	return cmd
}

func runTranslate(cmd *cobra.Command, args []string, opts *TranslateOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	d, err := dialect.Lookup(cc.Cfg.Dialect)
	if err != nil {
		return err
	}
	eng, err := cc.Engine(nil)
	if err != nil {
		return err
	}
	files, err := collectArtifacts(args)
	if err != nil {
		return err
	}

	writer := sqlwriter.NewWriter(d)
	if !opts.Stdout {
		if err := os.MkdirAll(cc.Cfg.OutputDir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	for _, f := range files {
		res, err := eng.Verify(ctx, f.Artifact)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		if res.HasErrors() {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s): verification failed\n", res.Artifact.Name(), f.Path)
			renderDiagnostics(cmd.ErrOrStderr(), res.Diagnostics)
			return fmt.Errorf("%s: %w", f.Path, engine.ErrVerificationFailed)
		}

		batch, err := eng.Translate(ctx, res)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}

		if opts.Stdout {
			if err := writer.Write(cmd.OutOrStdout(), batch); err != nil {
				return err
			}
			continue
		}

		out := filepath.Join(cc.Cfg.OutputDir, res.Artifact.Name()+writer.Extension())
		if err := writeFile(out, func(file *os.File) error { return writer.Write(file, batch) }); err != nil {
			return err
		}
		cc.Logger.Info("script written", "artifact", res.Artifact.Name(), "path", out)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d statements, %s)\n",
			res.Artifact.Name(), out, len(batch.Statements), d.Name)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is built from the configured output directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
