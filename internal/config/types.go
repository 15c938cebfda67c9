package config

// Config is the user configuration read from config.yaml in the cache
// directory. Every field is optional; command line flags take precedence.
type Config struct {
	// Domain is the Satori console the CLI talks to.
	Domain string `yaml:"domain,omitempty"`

	// Port is the local callback port for the browser login. 0 picks a free port.
	Port int `yaml:"port,omitempty"`

	// OpenBrowser selects the browser login. Nil means enabled.
	OpenBrowser *bool `yaml:"openBrowser,omitempty"`

	// InvalidCert accepts invalid TLS certificates from the console.
	InvalidCert bool `yaml:"invalidCert,omitempty"`
}

// BrowserEnabled reports whether the browser login is used.
func (c Config) BrowserEnabled() bool {
	return c.OpenBrowser == nil || *c.OpenBrowser
}
