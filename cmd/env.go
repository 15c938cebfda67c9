package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"satori/internal/cache"
	"satori/internal/cli"
	"satori/internal/config"
	"satori/internal/console"
	"satori/internal/login"
	"satori/internal/session"
)

// lastDomain is the console the last command talked to, for error messages.
var lastDomain = console.DefaultDomain

// environment is everything a command needs to reach the console and the caches.
type environment struct {
	cacheDir    string
	settings    cli.LoginSettings
	client      *console.Client
	coordinator *session.Coordinator
}

func resolveCacheDir(opts *rootOptions) (string, error) {
	if opts.cacheDir != "" {
		return opts.cacheDir, nil
	}
	return cache.DefaultDir()
}

func newEnvironment(cmd *cobra.Command, opts *rootOptions, flags *cli.LoginFlags) (*environment, error) {
	dir, err := resolveCacheDir(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	settings := flags.Resolve(cmd, cfg)
	lastDomain = settings.Domain

	client := console.NewClient(settings.Domain,
		console.WithInsecureSkipVerify(settings.InvalidCert),
		console.WithVersion(GetVersion()),
	)

	interactive := isTerminal(cmd.ErrOrStderr())
	auth := login.NewAuthenticator(client, login.Options{
		Domain:      client.Domain(),
		ClientID:    client.ClientID(),
		Port:        settings.Port,
		OpenBrowser: settings.OpenBrowser,
		In:          cmd.InOrStdin(),
		Out:         cmd.ErrOrStderr(),
		Spinner:     interactive,
		Browser:     openBrowser,
	})

	coordinator := session.NewCoordinator(client, auth,
		cache.NewCredentialStore(dir),
		cache.NewInventoryStore(dir),
		session.Options{
			NoPersist: settings.NoPersist,
			Spinner:   interactive,
			Out:       cmd.ErrOrStderr(),
		},
	)

	return &environment{
		cacheDir:    dir,
		settings:    settings,
		client:      client,
		coordinator: coordinator,
	}, nil
}

// openBrowser is replaced in tests.
var openBrowser = login.OpenBrowser

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
