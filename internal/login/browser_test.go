package login

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestBrowserCommand(t *testing.T) {
	const url = "https://app.example.com/oauth/authorize?state=s"

	tests := []struct {
		name     string
		goos     string
		env      map[string]string
		wantName string
		wantArgs []string
	}{
		{"macOS", "darwin", nil, "open", []string{url}},
		{"windows", "windows", nil, "rundll32", []string{"url.dll,FileProtocolHandler", url}},
		{"linux X11", "linux", map[string]string{"DISPLAY": ":0"}, "xdg-open", []string{url}},
		{"linux wayland", "linux", map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, "xdg-open", []string{url}},
		{"BROWSER override", "linux", map[string]string{"BROWSER": "firefox"}, "firefox", []string{url}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, envOf(tt.env), url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBrowserCommand_NoDisplay(t *testing.T) {
	_, _, err := browserCommand("linux", envOf(nil), "https://example.com")
	assert.ErrorIs(t, err, ErrNoBrowser)

	_, _, err = browserCommand("plan9", envOf(nil), "https://example.com")
	assert.ErrorIs(t, err, ErrNoBrowser)
}
