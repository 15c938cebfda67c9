package config

import "satori/internal/console"

// GetDefaultConfig returns the configuration used when no file is present.
func GetDefaultConfig() Config {
	return Config{
		Domain: console.DefaultDomain,
	}
}
