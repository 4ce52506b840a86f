package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Formatter renders command output
type Formatter interface {
	Format(data any, pretty bool) ([]byte, error)
}

// Tabular data renders as one row per record in csv and table output
// instead of flattened key/value pairs
type Tabular interface {
	Header() []string
	Rows() [][]string
}

var titleCaser = cases.Title(language.English)

// Supported output formats
var Formats = []string{"json", "yaml", "table", "csv"}

// NewFormatter returns the formatter for a format name
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return &JSONFormatter{}, nil
	case "yaml", "yml":
		return &YAMLFormatter{}, nil
	case "csv":
		return &CSVFormatter{}, nil
	case "table":
		return &TableFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any, pretty bool) ([]byte, error) {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		// Infinite or NaN values cannot be encoded; retry with them zeroed
		if !strings.Contains(err.Error(), "unsupported value") {
			return nil, err
		}
		return f.Format(Sanitize(data), pretty)
	}
	return append(out, '\n'), nil
}

type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type CSVFormatter struct{}

func (f *CSVFormatter) Format(data any, pretty bool) ([]byte, error) {
	header, rows, err := tabulate(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type TableFormatter struct{}

func (f *TableFormatter) Format(data any, pretty bool) ([]byte, error) {
	header, rows, err := tabulate(data)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(header))
	rules := make([]string, len(header))
	for i, h := range header {
		titles[i] = Title(h)
		rules[i] = strings.Repeat("-", len(titles[i]))
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(titles, "\t"))
	if pretty {
		fmt.Fprintln(tw, strings.Join(rules, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Title turns a snake_case or dotted key into a display title
func Title(key string) string {
	key = strings.NewReplacer("_", " ", ".", " / ").Replace(key)
	return titleCaser.String(key)
}

// tabulate returns Tabular data as is and flattens anything else into
// sorted key/value rows
func tabulate(data any) ([]string, [][]string, error) {
	if t, ok := data.(Tabular); ok {
		return t.Header(), t.Rows(), nil
	}

	flat, err := Flatten(data)
	if err != nil {
		return nil, nil, err
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, flat[k]})
	}
	return []string{"field", "value"}, rows, nil
}

// Flatten converts data to dotted keys with string values, going through its
// JSON form so struct tags decide the key names
func Flatten(data any) (map[string]string, error) {
	raw, err := json.Marshal(Sanitize(data))
	if err != nil {
		return nil, fmt.Errorf("failed to flatten output: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	flat := make(map[string]string)
	flattenInto(flat, "", generic)
	return flat, nil
}

func flattenInto(flat map[string]string, prefix string, v any) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}

	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flattenInto(flat, join(k), child)
		}
	case []any:
		for i, child := range val {
			flattenInto(flat, join(fmt.Sprint(i)), child)
		}
	case nil:
		flat[prefix] = ""
	default:
		flat[prefix] = fmt.Sprint(val)
	}
}
