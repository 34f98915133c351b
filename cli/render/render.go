// Package render formats command output for the patchfeed CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
//
// The table format is built for what the commands actually emit: flat row
// structs (update feed rows, owned-game rows) render as a header line plus
// one line per element, and a single response struct renders as key/value
// lines. Column labels come from json tags. --no-color affects the table
// header only.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

var headerStyle = lipgloss.NewStyle().Bold(true)

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	// Apply default format based on TTY detection
	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     os.Stdout,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	return enc.Encode(data)
}

func (r *Renderer) renderTable(data any) error {
	v := reflect.Indirect(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Slice:
		return r.renderRows(v)
	case reflect.Struct:
		return r.renderFields(v)
	default:
		_, err := fmt.Fprintf(r.out, "%v\n", data)
		return err
	}
}

// renderRows renders a slice of flat row structs as an aligned table.
func (r *Renderer) renderRows(v reflect.Value) error {
	if v.Len() == 0 {
		fmt.Fprintln(r.out, "(no results)")
		return nil
	}

	first := reflect.Indirect(v.Index(0))
	if first.Kind() != reflect.Struct {
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintf(r.out, "%v\n", v.Index(i).Interface())
		}
		return nil
	}

	var tbl bytes.Buffer
	w := tabwriter.NewWriter(&tbl, 0, 0, 2, ' ', 0)

	t := first.Type()
	labels := make([]string, t.NumField())
	for i := range labels {
		labels[i] = fieldLabel(t.Field(i))
	}
	fmt.Fprintln(w, strings.Join(labels, "\t"))

	for i := 0; i < v.Len(); i++ {
		row := reflect.Indirect(v.Index(i))
		cells := make([]string, row.NumField())
		for j := range cells {
			cells[j] = fmt.Sprintf("%v", row.Field(j).Interface())
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	// Style the header after alignment so escape codes cannot skew the
	// tabwriter's column widths.
	header, rows, _ := strings.Cut(tbl.String(), "\n")
	if !r.noColor {
		header = headerStyle.Render(header)
	}
	_, err := fmt.Fprintf(r.out, "%s\n%s", header, rows)
	return err
}

// renderFields renders a single response struct as key/value lines.
func (r *Renderer) renderFields(v reflect.Value) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fmt.Fprintf(w, "%s:\t%v\n", fieldLabel(t.Field(i)), v.Field(i).Interface())
	}
	return nil
}

// fieldLabel is the column label for a row field, preferring the json tag.
func fieldLabel(f reflect.StructField) string {
	if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
		return tag
	}
	return strings.ToLower(f.Name)
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
