package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"satori/internal/cache"
	"satori/internal/console"
	"satori/internal/datastores"
	"satori/internal/login"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	ConnectionErrorUnknown ConnectionErrorType = iota
	ConnectionErrorTLS
	ConnectionErrorNetwork
	ConnectionErrorTimeout
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ClassifyConnectionError returns the kind of a transport failure.
func ClassifyConnectionError(err error) ConnectionErrorType {
	var dnsErr *net.DNSError
	switch {
	case err == nil:
		return ConnectionErrorUnknown
	case isTLSError(err):
		return ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		return ConnectionErrorDNS
	case isTimeoutError(err):
		return ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		return ConnectionErrorNetwork
	default:
		return ConnectionErrorUnknown
	}
}

// Describe returns a user-facing message for err with a hint on how to
// proceed. domain is the console the command talked to.
func Describe(err error, domain string) string {
	var transportErr *console.TransportError
	var fileErr *cache.FileError
	var notFound *datastores.DatastoreNotFoundError

	switch {
	case errors.As(err, &transportErr):
		kind := ClassifyConnectionError(transportErr.Err)
		msg := fmt.Sprintf("%s while contacting %s: %v", kind, domain, transportErr.Err)
		if kind == ConnectionErrorTLS {
			msg += "\n\nIf the console uses a self-signed certificate, retry with --invalid-cert."
		}
		return msg
	case errors.Is(err, console.ErrUnauthorized), errors.Is(err, console.ErrForbidden):
		return fmt.Sprintf("Access denied by %s: %v\n\nRun 'satori login' to authenticate again.", domain, err)
	case errors.Is(err, console.ErrUserNotFound):
		return fmt.Sprintf("User not found on %s: %v", domain, err)
	case errors.Is(err, console.ErrBadRequest):
		return fmt.Sprintf("The request was rejected by %s: %v", domain, err)
	case errors.Is(err, login.ErrCallbackTimeout):
		return fmt.Sprintf("%v\n\nWithout a browser, retry with --no-launch-browser and paste the code shown after logging in.", err)
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &fileErr):
		return fmt.Sprintf("Cache error: %v", fileErr)
	default:
		return err.Error()
	}
}

func isTLSError(err error) bool {
	var certErr x509.CertificateInvalidError
	var hostErr x509.HostnameError
	var unknownAuthErr x509.UnknownAuthorityError
	var systemRootsErr x509.SystemRootsError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
