package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show recorded verification runs",
		Long: `List recent verification runs from the state database, newest first.
Given a run id, show that run's diagnostics.`,
		Example: `  # Ten most recent runs
  leaphed runs --limit 10

  # Diagnostics of one run
  leaphed runs 3f2b9c1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			ctx := cmd.Context()

			store, err := cc.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			w := cmd.OutOrStdout()
			if len(args) == 0 {
				runs, err := store.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				renderRuns(w, runs)
				return nil
			}

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			diags, err := store.RunDiagnostics(ctx, run.ID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "Run %s: %s (%s) %s, %d errors, %d warnings\n",
				run.ID, run.Artifact, run.Source, run.Status, run.ErrorCount, run.WarningCount)
			if run.Error != "" {
				_, _ = fmt.Fprintf(w, "Error: %s\n", run.Error)
			}
			renderRecordedDiagnostics(w, diags)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")

	return cmd
}
