package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"satori/internal/cli"
	"satori/internal/console"
	"satori/internal/login"
	"satori/internal/session"
	"satori/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates the console rejected the user's token.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the login flow itself failed.
	ExitCodeAuthFailed = 3
)

// version is set from main at build time.
var version = "dev"

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	debug    bool
	cacheDir string
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "satori",
		Short: "Connect to Satori datastores with short-lived credentials",
		Long: `satori logs you in to the Satori console, caches your temporary
database credentials and the datastores you can access, and uses them to
run client tools such as psql and dbt or to update your pgpass and AWS files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.LevelInfo
			if opts.debug {
				level = logging.LevelDebug
			}
			logging.InitForCLI(level, cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.cacheDir, "cache-dir", "", "Cache directory (default ~/.satori)")
	_ = cmd.PersistentFlags().MarkHidden("cache-dir")

	cmd.AddCommand(
		newLoginCmd(opts),
		newPwdCmd(opts),
		newListCmd(opts),
		newPgpassCmd(opts),
		newAWSCmd(opts),
		newRunCmd(opts),
		newVersionCmd(),
		newSelfUpdateCmd(),
	)
	return cmd
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return version
}

// Execute runs the root command and exits with a code matching the failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "satori version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", cli.Describe(err, lastDomain))
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case console.IsAuthorizationError(err), errors.Is(err, session.ErrBearerExpired):
		return ExitCodeAuthRequired
	case login.IsFlowError(err):
		return ExitCodeAuthFailed
	default:
		return ExitCodeError
	}
}

var errNoCache = errors.New("no cached datastores, run 'satori login' first")
