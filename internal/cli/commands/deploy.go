package commands

import (
	"errors"
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaphed/internal/deploy"
	"github.com/leapstack-labs/leaphed/internal/engine"
	"github.com/leapstack-labs/leaphed/pkg/adapter"
)

// DeployOptions holds options for the deploy command.
type DeployOptions struct {
	Seeds          map[string]string
	SkipMigrations bool
}

// NewDeployCommand creates the deploy command.
func NewDeployCommand() *cobra.Command {
	opts := &DeployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy <artifact|dir>...",
		Short: "Verify, translate and deploy artifacts to the target database",
		Long: `Deploy artifacts to the configured target.

The generic ValueSet codes table is migrated first, seed CSV files are
loaded, then each artifact's statements run in one transaction. Views and
value set rows are replaced, so deploying again is safe.`,
		Example: `  # Deploy to the target in leaphed.yaml
  leaphed deploy artifacts/screening.yaml

  # Deploy to the prod environment with a seed table
  leaphed deploy artifacts -t prod --seed Problem=seeds/problem.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, args, opts)
		},
	}

	cmd.Flags().StringToStringVar(&opts.Seeds, "seed", nil, "Seed table from a CSV file (table=path), repeatable")
	cmd.Flags().BoolVar(&opts.SkipMigrations, "skip-migrations", false, "Do not migrate the ValueSet table")

	return cmd
}

func runDeploy(cmd *cobra.Command, args []string, opts *DeployOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	if cc.Cfg.Target == nil {
		return errors.New("no deploy target configured\nHint: add a target section to leaphed.yaml")
	}

	store, err := cc.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng, err := cc.Engine(store)
	if err != nil {
		return err
	}
	files, err := collectArtifacts(args)
	if err != nil {
		return err
	}

	db, err := adapter.NewAdapter(*cc.Cfg.Target, cc.Logger)
	if err != nil {
		return err
	}
	if err := db.Connect(ctx, *cc.Cfg.Target); err != nil {
		return fmt.Errorf("failed to connect to %s target: %w", cc.Cfg.Target.Type, err)
	}
	defer func() { _ = db.Close() }()

	seeds := make(map[string]string)
	maps.Copy(seeds, cc.Cfg.Deploy.Seeds)
	maps.Copy(seeds, opts.Seeds)
	deployOpts := deploy.Options{
		Seeds:          seeds,
		SkipMigrations: opts.SkipMigrations || cc.Cfg.Deploy.SkipMigrations,
		Logger:         cc.Logger,
	}

	for i, f := range files {
		res, err := eng.Verify(ctx, f.Artifact)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		if res.HasErrors() {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s): verification failed\n", res.Artifact.Name(), f.Path)
			renderDiagnostics(cmd.ErrOrStderr(), res.Diagnostics)
			return fmt.Errorf("%s: %w", f.Path, engine.ErrVerificationFailed)
		}

		out, err := eng.Deploy(ctx, res, db, deployOpts)
		if err != nil {
			return fmt.Errorf("deploying %s: %w", res.Artifact.Name(), err)
		}
		if len(out.Migrations) > 0 {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Applied migrations: %v\n", out.Migrations)
		}
		if len(out.Seeded) > 0 {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded: %v\n", out.Seeded)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: deployed %d statements to %s\n",
			res.Artifact.Name(), out.Statements, cc.Cfg.Target.Type)

		// Seeds and migrations only need to run once per deploy.
		if i == 0 {
			deployOpts.Seeds = nil
			deployOpts.SkipMigrations = true
		}
	}
	return nil
}
