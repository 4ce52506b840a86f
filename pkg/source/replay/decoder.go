package replay

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Format is the on-disk layout of a recorded log
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
	FormatAuto  Format = "auto"
)

// FormatFromPath picks a format from the file extension. Unknown extensions
// and stdin are sniffed from content.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	default:
		return FormatAuto
	}
}

// Record is one decoded row. Nil axes are kept so the session can apply its
// own drop policy; OffsetMs is nil when the row has no timestamp column.
type Record struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Z        *float64 `json:"z"`
	OffsetMs *int64   `json:"t_ms"`
	Line     int      `json:"-"`
}

// Decoder reads records line by line
type Decoder struct {
	scanner *bufio.Scanner
	format  Format
	line    int
}

// NewDecoder wraps r. FormatAuto peeks at the first non-blank byte: '{'
// selects JSON lines, anything else CSV.
func NewDecoder(r io.Reader, format Format) *Decoder {
	br := bufio.NewReader(r)
	if format == FormatAuto || format == "" {
		format = sniff(br)
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	return &Decoder{scanner: scanner, format: format}
}

func sniff(br *bufio.Reader) Format {
	peek, _ := br.Peek(512)
	trimmed := bytes.TrimLeft(peek, " \t\r\n\ufeff")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSONL
	}
	return FormatCSV
}

func (d *Decoder) Format() Format {
	return d.format
}

// Next returns the next record, io.EOF at the end of input, or a
// *LineError for a row that cannot be decoded. Decoding may continue after a
// LineError.
func (d *Decoder) Next() (Record, error) {
	for d.scanner.Scan() {
		d.line++
		text := strings.TrimSpace(strings.TrimPrefix(d.scanner.Text(), "\ufeff"))
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var (
			rec Record
			err error
		)
		switch d.format {
		case FormatJSONL:
			rec, err = decodeJSONLine(text)
		default:
			var fields []string
			if fields, err = splitCSVLine(text); err == nil {
				if isHeader(fields) {
					continue
				}
				rec, err = decodeCSVFields(fields)
			}
		}
		if err != nil {
			return Record{}, &LineError{Line: d.line, Err: err}
		}
		rec.Line = d.line
		return rec, nil
	}

	if err := d.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("read line %d: %w", d.line+1, err)
	}
	return Record{}, io.EOF
}

// LineError reports a row that could not be decoded
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// splitCSVLine parses one CSV row, honouring quoted fields
func splitCSVLine(text string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.Read()
}

func isHeader(fields []string) bool {
	first := strings.ToLower(strings.TrimSpace(fields[0]))
	return first == "x" || first == "ax" || first == "acc_x"
}

func decodeCSVFields(fields []string) (Record, error) {
	if len(fields) < 3 || len(fields) > 4 {
		return Record{}, fmt.Errorf("want 3 or 4 columns, got %d", len(fields))
	}

	var rec Record
	axes := []**float64{&rec.X, &rec.Y, &rec.Z}
	for i, dst := range axes {
		v, err := parseAxis(fields[i])
		if err != nil {
			return Record{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		*dst = v
	}

	if len(fields) == 4 {
		raw := strings.TrimSpace(fields[3])
		if raw != "" {
			ms, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return Record{}, fmt.Errorf("t_ms: %w", err)
			}
			rec.OffsetMs = &ms
		}
	}

	return rec, nil
}

// parseAxis treats an empty or "null" field as a missing axis
func parseAxis(field string) (*float64, error) {
	field = strings.TrimSpace(field)
	if field == "" || strings.EqualFold(field, "null") || strings.EqualFold(field, "nan") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeJSONLine(text string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
