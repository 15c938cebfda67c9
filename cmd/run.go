package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"satori/internal/cli"
	"satori/internal/tools"
)

// newExecutor is replaced in tests.
var newExecutor = func(cmd *cobra.Command) tools.Executor {
	return tools.NewCommandExecutor(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	flags := &cli.LoginFlags{}

	cmd := &cobra.Command{
		Use:   "run <tool> <datastore> [database] [-- args...]",
		Short: "Run a client tool with your credentials",
		Long: `Runs a client tool such as psql against a datastore, passing your
temporary credentials through its arguments and environment.

Arguments after -- are passed to the tool unchanged. Run without
arguments to list the available tools. dbt has its own subcommand.`,
		Example: `  satori run psql my-postgres mydb
  satori run mongosh my-mongo -- --quiet
  satori run dbt -- run --select orders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := tools.BuiltinCatalog()
			if err != nil {
				return err
			}

			positional, extra := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				positional, extra = args[:dash], args[dash:]
			}

			if len(positional) == 0 {
				cli.RenderTools(cmd.OutOrStdout(), catalog)
				return nil
			}
			if len(positional) < 2 || len(positional) > 3 {
				return fmt.Errorf("expected <tool> <datastore> [database], got %d arguments", len(positional))
			}

			tool, err := catalog.Get(positional[0])
			if err != nil {
				return err
			}
			inv := tools.Invocation{Datastore: positional[1], ExtraArgs: extra}
			if len(positional) == 3 {
				inv.Database = positional[2]
			}

			env, err := newEnvironment(cmd, opts, flags)
			if err != nil {
				return err
			}
			result, err := env.coordinator.Resolve(cmd.Context(), env.settings.Refresh)
			if err != nil {
				return err
			}

			return tool.Run(cmd.Context(), newExecutor(cmd), result.Inventory, result.Credentials, inv)
		},
	}

	cli.RegisterLoginFlags(cmd, flags)
	cmd.AddCommand(newDbtCmd(opts))
	return cmd
}
