package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"judicial-stats/domain/stats"
)

// LoadError is returned when a file cannot be fetched.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Name, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// Loader reads period files from a Source.
type Loader struct {
	src Source
	log *slog.Logger
}

func NewLoader(src Source, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{src: src, log: log}
}

// Load fetches h and parses it. Only fetch failures are errors; bad records
// are logged and skipped.
func (l *Loader) Load(ctx context.Context, h stats.FileHandle) ([]stats.RawRow, error) {
	rc, err := l.src.Open(ctx, h.Name)
	if err != nil {
		return nil, &LoadError{Name: h.Name, Err: err}
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &LoadError{Name: h.Name, Err: err}
	}
	rows := Parse(data, l.log.With("file", h.Name))
	l.log.Debug("csv.load.done", "file", h.Name, "rows", len(rows))
	return rows, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse decodes a CSV export into rows keyed by header. Values are trimmed
// strings; no type coercion happens here.
func Parse(data []byte, log *slog.Logger) []stats.RawRow {
	if log == nil {
		log = slog.Default()
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err == nil {
			data = decoded
		}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectComma(data)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Warn("csv.parse.header.error", "error", err)
		}
		return []stats.RawRow{}
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = normalizeHeader(h)
	}

	rows := []stats.RawRow{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				log.Warn("csv.parse.record.skip", "line", pe.Line, "error", err)
				continue
			}
			log.Warn("csv.parse.abort", "error", err)
			break
		}
		row := stats.RawRow{}
		blank := true
		for j := 0; j < len(headers) && j < len(rec); j++ {
			if headers[j] == "" {
				continue
			}
			if _, dup := row[headers[j]]; dup {
				continue
			}
			v := strings.TrimSpace(rec[j])
			if v != "" {
				blank = false
			}
			row[headers[j]] = v
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// normalizeHeader trims a header and composes accents, so a decomposed
// "Período" matches the accessor key.
func normalizeHeader(h string) string {
	return norm.NFC.String(strings.TrimSpace(h))
}

// detectComma picks ';' when the header line has semicolons but no commas.
func detectComma(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.IndexByte(line, ';') >= 0 && bytes.IndexByte(line, ',') < 0 {
		return ';'
	}
	return ','
}
