package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the cache directory under the user's home.
	DefaultDirName = ".satori"

	dirMode  = 0o700
	fileMode = 0o600
)

// DefaultDir returns ~/.satori. Failing to resolve the home directory is
// fatal for the caller: without it there is no cache to use.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FileError{Op: "read", Path: path, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &FileError{Op: "parse", Path: path, Err: err}
	}
	return nil
}

// writeJSON replaces the file wholesale, creating parent directories.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return &FileError{Op: "create directory for", Path: path, Err: err}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &FileError{Op: "encode", Path: path, Err: err}
	}

	if err := os.WriteFile(path, append(data, '\n'), fileMode); err != nil {
		return &FileError{Op: "write", Path: path, Err: err}
	}
	return nil
}
