package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"satori/internal/cli"
	"satori/pkg/logging"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	flags := &cli.LoginFlags{}
	var display bool
	var format string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Satori and fetch new database credentials",
		Long: `Opens the Satori login page in your browser, then fetches a new set of
temporary database credentials and stores them in the cache directory.

Use --display to print the credentials instead of storing them, and
--no-launch-browser on machines without a browser.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if display {
				flags.NoPersist = true
				if err := cli.ValidateFormat(format); err != nil {
					return err
				}
			}

			env, err := newEnvironment(cmd, opts, flags)
			if err != nil {
				return err
			}

			result, err := env.coordinator.Login(cmd.Context(), env.settings.Refresh)
			if err != nil {
				return err
			}

			if !display {
				logging.Info("Login", "Logged in as %s, credentials expire at %s", result.Credentials.Username, result.Credentials.ExpiresAt.Local().Format("15:04 MST"))
				return nil
			}

			out, err := cli.FormatCredentials(result.Credentials, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cli.RegisterLoginFlags(cmd, flags)
	cmd.Flags().BoolVar(&display, "display", false, "Print the credentials instead of storing them")
	cmd.Flags().StringVar(&format, "format", cli.FormatCSV, "Credentials format for --display (csv, json, yaml)")

	return cmd
}
