package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"satori/internal/cli"
	"satori/internal/tools"
)

func newDbtCmd(opts *rootOptions) *cobra.Command {
	flags := &cli.LoginFlags{}
	var profilesDir, projectDir, target string

	cmd := &cobra.Command{
		Use:   "dbt [-- dbt args...]",
		Short: "Run dbt with your credentials",
		Long: `Runs dbt for the project in the current directory. The user and password
of the project's profile target are rewritten to read SATORI_USERNAME and
SATORI_PASSWORD, which are set to your temporary credentials. The original
profiles.yml is kept as profiles.bk the first time it is rewritten.

profiles.yml is looked up in --profiles-dir, DBT_PROFILES_DIR, the current
directory and ~/.dbt, in that order.`,
		Example: `  satori run dbt -- run
  satori run dbt --target prod -- test --select orders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			if projectDir == "" {
				projectDir = cwd
			}
			profile, err := tools.DbtProjectProfile(projectDir)
			if err != nil {
				return err
			}
			dir, err := tools.DbtProfilesDir(profilesDir, cwd)
			if err != nil {
				return err
			}

			profiles, err := tools.LoadDbtProfiles(dir)
			if err != nil {
				return err
			}
			selected, err := profiles.UseSatoriCredentials(profile, target)
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

			if _, err := profiles.Save(); err != nil {
				return err
			}
			return tools.RunDbt(cmd.Context(), newExecutor(cmd), result.Credentials, profiles.Dir(), selected, args)
		},
	}

	cli.RegisterLoginFlags(cmd, flags)
	cmd.Flags().StringVar(&profilesDir, "profiles-dir", "", "Directory containing profiles.yml")
	cmd.Flags().StringVar(&projectDir, "project-dir", "", "Directory containing dbt_project.yml (default current directory)")
	cmd.Flags().StringVar(&target, "target", "", "dbt target (default the profile's target)")
	return cmd
}
