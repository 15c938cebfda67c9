package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// PlainTableWriter writes a borderless, space-aligned table that is easy to
// grep and cut.
type PlainTableWriter struct {
	out         io.Writer
	headers     []string
	rows        [][]string
	showHeaders bool
}

// NewPlainTableWriter creates a writer that shows headers.
func NewPlainTableWriter(out io.Writer) *PlainTableWriter {
	return &PlainTableWriter{out: out, showHeaders: true}
}

// SetHeaders sets the columns. Headers are printed upper-case.
func (w *PlainTableWriter) SetHeaders(headers ...string) {
	w.headers = headers
}

// SetNoHeaders suppresses the header row.
func (w *PlainTableWriter) SetNoHeaders(noHeaders bool) {
	w.showHeaders = !noHeaders
}

// AppendRow adds a row. Missing cells are left empty, extra ones dropped.
func (w *PlainTableWriter) AppendRow(cells ...string) {
	row := make([]string, len(w.headers))
	copy(row, cells)
	w.rows = append(w.rows, row)
}

// Render writes the table.
func (w *PlainTableWriter) Render() {
	if len(w.headers) == 0 || (len(w.rows) == 0 && !w.showHeaders) {
		return
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 3, ' ', 0)
	if w.showHeaders {
		fmt.Fprintln(tw, strings.ToUpper(strings.Join(w.headers, "\t")))
	}
	for _, row := range w.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()

	// tabwriter pads empty trailing cells.
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		fmt.Fprintln(w.out, strings.TrimRight(sc.Text(), " "))
	}
}
