package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaphed/pkg/operator"
)

// NewOperatorsCommand creates the operators command.
func NewOperatorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operators [name]",
		Short: "List the operator overloads available to artifacts",
		Long: `List the registered operator overloads: the base and clinical modules plus
the operators contributed by the configured data models.`,
		Example: `  # All overloads
  leaphed operators

  # Overloads of one operator
  leaphed operators InValueSet`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			eng, err := cc.Engine(nil)
			if err != nil {
				return err
			}
			ops, err := eng.Operators()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				ops = filterOperators(ops, args[0])
				if len(ops) == 0 {
					return fmt.Errorf("no operator named %q", args[0])
				}
			}
			renderOperators(cmd.OutOrStdout(), ops)
			return nil
		},
	}
}

func filterOperators(ops []*operator.Operator, name string) []*operator.Operator {
	var out []*operator.Operator
	for _, op := range ops {
		if strings.EqualFold(op.Name, name) {
			out = append(out, op)
		}
	}
	return out
}
