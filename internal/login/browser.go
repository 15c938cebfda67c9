package login

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// ErrNoBrowser is returned when there is no display to open a browser on.
var ErrNoBrowser = errors.New("no browser available")

// OpenBrowser starts the user's browser on url without waiting for it.
// $BROWSER wins over the platform opener.
func OpenBrowser(url string) error {
	name, args, err := browserCommand(runtime.GOOS, os.Getenv, url)
	if err != nil {
		return err
	}
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func browserCommand(goos string, getenv func(string) string, url string) (string, []string, error) {
	if b := getenv("BROWSER"); b != "" {
		return b, []string{url}, nil
	}

	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		// SSH sessions and containers have no display; xdg-open would
		// fall back to a text browser inside our terminal.
		if getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
			return "", nil, ErrNoBrowser
		}
		return "xdg-open", []string{url}, nil
	default:
		return "", nil, fmt.Errorf("%w on %s", ErrNoBrowser, goos)
	}
}
