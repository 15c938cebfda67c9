package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"satori/internal/cli"
	"satori/internal/tools"
	"satori/pkg/logging"
)

func newPgpassCmd(opts *rootOptions) *cobra.Command {
	flags := &cli.LoginFlags{}
	var path string

	cmd := &cobra.Command{
		Use:   "pgpass",
		Short: "Write your credentials to a PostgreSQL password file",
		Long: `Adds one line per database of every PostgreSQL-compatible datastore to
the pgpass file. Lines for the same host, port and database are replaced,
everything else in the file is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				p, err := tools.DefaultPgpassPath()
				if err != nil {
					return err
				}
				path = p
			}

			env, err := newEnvironment(cmd, opts, flags)
			if err != nil {
				return err
			}
			result, err := env.coordinator.Resolve(cmd.Context(), env.settings.Refresh)
			if err != nil {
				return err
			}

			entries := tools.PgpassEntries(result.Inventory, result.Credentials)
			if len(entries) == 0 {
				logging.Warn("Pgpass", "No PostgreSQL datastores with a port found, %s not changed", path)
				return nil
			}
			if err := tools.WritePgpass(path, entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", len(entries), path)
			return nil
		},
	}

	cli.RegisterLoginFlags(cmd, flags)
	cmd.Flags().StringVar(&path, "path", "", "pgpass file to update (default ~/.pgpass)")
	return cmd
}
