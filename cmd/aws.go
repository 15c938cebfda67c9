package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"satori/internal/cli"
	"satori/internal/tools"
)

func newAWSCmd(opts *rootOptions) *cobra.Command {
	flags := &cli.LoginFlags{}

	cmd := &cobra.Command{
		Use:   "aws",
		Short: "Write AWS CLI profiles for your S3 and Athena datastores",
		Long: `Adds a profile per S3 or Athena datastore to the AWS shared credentials
and config files. Each profile carries your temporary credentials as its
access key pair and points endpoint_url at the datastore's Satori host.

The files are located through AWS_SHARED_CREDENTIALS_FILE and AWS_CONFIG_FILE,
defaulting to ~/.aws/credentials and ~/.aws/config. Other sections are kept.`,
		Example: `  satori aws
  aws s3 ls --profile satori_s3_abc123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := tools.DefaultAWSPaths()
			if err != nil {
				return err
			}

			env, err := newEnvironment(cmd, opts, flags)
			if err != nil {
				return err
			}
			result, err := env.coordinator.Resolve(cmd.Context(), env.settings.Refresh)
			if err != nil {
				return err
			}

			profiles := tools.AWSProfiles(result.Inventory)
			if err := tools.WriteAWSProfiles(paths, profiles, result.Credentials); err != nil {
				return err
			}
			for _, p := range profiles {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, p.Datastore)
			}
			return nil
		},
	}

	cli.RegisterLoginFlags(cmd, flags)
	return cmd
}
