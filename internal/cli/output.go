package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"satori/internal/cache"
	"satori/internal/datastores"
	"satori/internal/tools"
)

// Credential output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Listing output formats.
const (
	OutputPlain = "plain"
	OutputTable = "table"
)

// ValidateFormat checks a credentials format.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatCSV, FormatJSON, FormatYAML, "":
		return nil
	default:
		return fmt.Errorf("unsupported format %q (use csv, json or yaml)", format)
	}
}

// FormatCredentials renders credentials for display.
func FormatCredentials(creds cache.Credentials, format string) (string, error) {
	if err := ValidateFormat(format); err != nil {
		return "", err
	}
	creds.ExpiresAt = creds.ExpiresAt.UTC()

	switch strings.ToLower(format) {
	case FormatCSV, "":
		return fmt.Sprintf("%s,%s,%s", creds.Username, creds.Password, creds.ExpiresAt.Format(time.RFC3339)), nil
	case FormatJSON:
		data, err := json.Marshal(creds)
		if err != nil {
			return "", fmt.Errorf("failed to encode credentials: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(creds)
		if err != nil {
			return "", fmt.Errorf("failed to encode credentials: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
	return "", nil
}

// ValidateOutput checks a listing output format.
func ValidateOutput(output string) error {
	switch output {
	case OutputPlain, OutputTable:
		return nil
	default:
		return fmt.Errorf("unsupported output %q (use plain or table)", output)
	}
}

// RenderDatastores writes one row per datastore.
func RenderDatastores(w io.Writer, records []datastores.Record, output string) error {
	if err := ValidateOutput(output); err != nil {
		return err
	}

	if output == OutputPlain {
		for _, r := range records {
			fmt.Fprintln(w, r.Name)
		}
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Name", "Type", "Host", "Port", "Databases"})
	for _, r := range records {
		host, err := r.Host()
		if err != nil {
			host = text.FgRed.Sprint("unknown")
		}
		t.AppendRow(table.Row{r.Name, string(r.Type), host, portString(r.Port), len(r.Databases)})
	}
	t.Render()
	return nil
}

// RenderDatabases writes the databases of one datastore.
func RenderDatabases(w io.Writer, record datastores.Record, output string) error {
	if err := ValidateOutput(output); err != nil {
		return err
	}

	if output == OutputPlain {
		for _, db := range record.Databases {
			fmt.Fprintln(w, db)
		}
		return nil
	}

	t := newTable(w)
	t.SetTitle(record.Name)
	t.AppendHeader(table.Row{"Database"})
	for _, db := range record.Databases {
		t.AppendRow(table.Row{db})
	}
	t.Render()
	return nil
}

// RenderTools lists the tools of a catalog with the program each one runs.
func RenderTools(w io.Writer, catalog *tools.Catalog) {
	pt := NewPlainTableWriter(w)
	pt.SetHeaders("tool", "command")
	for _, name := range catalog.Names() {
		tool, _ := catalog.Get(name)
		pt.AppendRow(tool.Name, tool.Command)
	}
	pt.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatUpper
	return t
}

func portString(port *int) string {
	if port == nil {
		return "-"
	}
	return strconv.Itoa(*port)
}
