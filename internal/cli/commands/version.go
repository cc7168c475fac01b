package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaphed/internal/engine"
	"github.com/leapstack-labs/leaphed/pkg/dialect"
)

// BuildInfo identifies a leaphed binary.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Print the leaphed build, the data models it embeds and the SQL dialects it can emit.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "leaphed v%s (commit %s, built %s, %s %s/%s)\n",
				info.Version, info.GitCommit, info.BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(w, "Models:   %s\n", strings.Join(engine.ModelNames(), ", "))
			_, _ = fmt.Fprintf(w, "Dialects: %s\n", strings.Join(dialect.List(), ", "))
		},
	}
}
