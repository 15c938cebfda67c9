package tools

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"satori/internal/cache"
	"satori/internal/datastores"
	"satori/pkg/logging"
)

// PgpassEntry is one line of a PostgreSQL password file.
type PgpassEntry struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

func (e PgpassEntry) key() string {
	return e.Host + "\x00" + strconv.Itoa(e.Port) + "\x00" + e.Database
}

// String formats the entry as host:port:database:username:password.
func (e PgpassEntry) String() string {
	return strings.Join([]string{
		escapePgpass(e.Host),
		strconv.Itoa(e.Port),
		escapePgpass(e.Database),
		escapePgpass(e.Username),
		escapePgpass(e.Password),
	}, ":")
}

// DefaultPgpassPath returns ~/.pgpass.
func DefaultPgpassPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".pgpass"), nil
}

// PgpassEntries returns one entry per database of every PostgreSQL-dialect
// datastore that has a port, sorted by host, port and database.
func PgpassEntries(inv *datastores.Inventory, creds cache.Credentials) []PgpassEntry {
	var entries []PgpassEntry
	for _, record := range inv.Filter(func(r datastores.Record) bool { return r.Type.IsPostgresDialect() }) {
		if record.Port == nil {
			logging.Debug("Tools", "Datastore %s has no port, not adding it to pgpass", record.Name)
			continue
		}
		if len(record.Databases) == 0 {
			logging.Warn("Tools", "Datastore %s has no databases, not adding it to pgpass", record.Name)
			continue
		}
		host, err := record.Host()
		if err != nil {
			logging.Warn("Tools", "Skipping datastore %s: %v", record.Name, err)
			continue
		}
		for _, db := range record.Databases {
			entries = append(entries, PgpassEntry{
				Host:     host,
				Port:     *record.Port,
				Database: db,
				Username: creds.Username,
				Password: creds.Password,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Host != entries[j].Host {
			return entries[i].Host < entries[j].Host
		}
		if entries[i].Port != entries[j].Port {
			return entries[i].Port < entries[j].Port
		}
		return entries[i].Database < entries[j].Database
	})
	return entries
}

// WritePgpass merges entries into the file at path. Existing lines for the
// same host, port and database are replaced; every other line is kept as is.
// A new file is created with mode 0600.
func WritePgpass(path string, entries []PgpassEntry) error {
	replace := make(map[string]bool, len(entries))
	for _, e := range entries {
		replace[e.key()] = true
	}

	var out bytes.Buffer
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		scanner := bufio.NewScanner(bytes.NewReader(existing))
		for scanner.Scan() {
			line := scanner.Text()
			if e, ok := parsePgpassLine(line); ok && replace[e.key()] {
				continue
			}
			out.WriteString(line)
			out.WriteByte('\n')
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read pgpass file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("Tools", "Creating pgpass file %s", path)
	default:
		return fmt.Errorf("failed to read pgpass file %s: %w", path, err)
	}

	for _, e := range entries {
		out.WriteString(e.String())
		out.WriteByte('\n')
	}

	if err := os.WriteFile(path, out.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write pgpass file %s: %w", path, err)
	}
	logging.Debug("Tools", "Wrote %d entries to %s", len(entries), path)
	return nil
}

func escapePgpass(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, ":", `\:`)
}

// parsePgpassLine splits a pgpass line into its five fields. Comments and
// malformed lines are reported as not ok.
func parsePgpassLine(line string) (PgpassEntry, bool) {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return PgpassEntry{}, false
	}

	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())

	if len(fields) != 5 {
		return PgpassEntry{}, false
	}
	port, err := strconv.Atoi(fields[1])
	if err != nil {
		return PgpassEntry{}, false
	}
	return PgpassEntry{
		Host:     fields[0],
		Port:     port,
		Database: fields[2],
		Username: fields[3],
		Password: fields[4],
	}, true
}
