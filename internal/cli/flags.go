package cli

import (
	"github.com/spf13/cobra"

	"satori/internal/config"
	"satori/internal/console"
)

// LoginFlags holds the flags shared by every command that may need to log in.
type LoginFlags struct {
	Domain          string
	Port            int
	NoLaunchBrowser bool
	InvalidCert     bool
	Refresh         bool
	NoPersist       bool
}

// LoginSettings are the effective login parameters after merging flags
// with the configuration file.
type LoginSettings struct {
	Domain      string
	Port        int
	OpenBrowser bool
	InvalidCert bool
	Refresh     bool
	NoPersist   bool
}

// RegisterLoginFlags registers the login flags on cmd.
//
// The registered flags are:
//   - --domain: Satori console URL (hidden)
//   - --port: local port for the browser callback, 0 picks a free one
//   - --no-launch-browser: print the login URL and read the code from stdin
//   - --invalid-cert: accept invalid TLS certificates (hidden)
//   - --refresh: ignore cached credentials and datastores
//   - --no-persist: do not write fetched credentials to the cache; the
//     datastore inventory is still cached
func RegisterLoginFlags(cmd *cobra.Command, flags *LoginFlags) {
	f := cmd.Flags()
	f.StringVar(&flags.Domain, "domain", console.DefaultDomain, "Satori console URL")
	f.IntVar(&flags.Port, "port", 0, "Local port for the login callback (0 picks a free port)")
	f.BoolVar(&flags.NoLaunchBrowser, "no-launch-browser", false, "Print the login URL instead of opening a browser and read the code from stdin")
	f.BoolVar(&flags.InvalidCert, "invalid-cert", false, "Accept invalid TLS certificates from the console")
	f.BoolVar(&flags.Refresh, "refresh", false, "Ignore cached credentials and datastores")
	f.BoolVar(&flags.NoPersist, "no-persist", false, "Do not write fetched credentials to the cache (datastores are still cached)")

	_ = f.MarkHidden("domain")
	_ = f.MarkHidden("invalid-cert")
}

// Resolve merges the flags with cfg. A flag set on the command line wins
// over the file; the file wins over the flag's default.
func (flags *LoginFlags) Resolve(cmd *cobra.Command, cfg config.Config) LoginSettings {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	s := LoginSettings{
		Domain:      cfg.Domain,
		Port:        cfg.Port,
		OpenBrowser: cfg.BrowserEnabled(),
		InvalidCert: cfg.InvalidCert,
		Refresh:     flags.Refresh,
		NoPersist:   flags.NoPersist,
	}
	if changed("domain") || s.Domain == "" {
		s.Domain = flags.Domain
	}
	if changed("port") {
		s.Port = flags.Port
	}
	if changed("no-launch-browser") {
		s.OpenBrowser = !flags.NoLaunchBrowser
	}
	if changed("invalid-cert") {
		s.InvalidCert = flags.InvalidCert
	}
	return s
}
