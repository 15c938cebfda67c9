// Package logging provides the structured logger used across satori.
//
// It is a thin layer over log/slog: every entry carries a "subsystem"
// attribute so that debug output from the login flow, the caches and the
// console client can be told apart.
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Debug("Cache", "loaded %s", path)
//	logging.Error("Console", err, "profile request failed")
//
// Logs are written to stderr by default so that commands whose stdout is
// consumed by scripts (pwd, login --display) stay clean.
package logging
