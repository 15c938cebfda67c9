package cmd

import (
	"errors"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the GitHub repository (owner/repo) releases are fetched from.
const githubRepoSlug = "satoricyber/satori-cli"

var errDevelopmentVersion = errors.New("cannot self-update a development version")

func newSelfUpdateCmd() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update satori to the latest version",
		Long: `Checks for the latest release of satori on GitHub and
replaces the running binary when a newer version exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return selfUpdate(cmd, checkOnly)
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether a newer version exists")
	return cmd
}

func selfUpdate(cmd *cobra.Command, checkOnly bool) error {
	current := GetVersion()
	if current == "" || current == "dev" {
		return errDevelopmentVersion
	}

	out := cmd.OutOrStdout()
	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(cmd.Context(), selfupdate.ParseSlug(githubRepoSlug))
	switch {
	case err != nil:
		return fmt.Errorf("failed to look up releases of %s: %w", githubRepoSlug, err)
	case !found:
		return fmt.Errorf("no release of %s found for this platform", githubRepoSlug)
	case !latest.GreaterThan(current):
		fmt.Fprintf(out, "satori %s is the latest version\n", current)
		return nil
	}

	fmt.Fprintf(out, "satori %s is available (you have %s, published %s)\n", latest.Version(), current, latest.PublishedAt.Format("2006-01-02"))
	if checkOnly {
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	if err := updater.UpdateTo(cmd.Context(), latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(out, "Updated %s to %s\n", exe, latest.Version())
	return nil
}
