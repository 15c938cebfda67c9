// Package config loads the optional user configuration file
// (~/.satori/config.yaml).
//
// Example:
//
//	domain: https://app.satoricyber.com
//	port: 8765
//	openBrowser: false
//	invalidCert: false
//
// Values from the file sit between the built-in defaults and explicit
// command line flags.
package config
