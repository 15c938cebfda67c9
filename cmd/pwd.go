package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"satori/internal/cli"
)

func newPwdCmd(opts *rootOptions) *cobra.Command {
	flags := &cli.LoginFlags{}

	cmd := &cobra.Command{
		Use:   "pwd",
		Short: "Print the database password",
		Long: `Prints the password of your temporary database credentials, logging
in first if the cached credentials are missing or about to expire.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd, opts, flags)
			if err != nil {
				return err
			}

			result, err := env.coordinator.Resolve(cmd.Context(), env.settings.Refresh)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Credentials.Password)
			return nil
		},
	}

	cli.RegisterLoginFlags(cmd, flags)
	return cmd
}
