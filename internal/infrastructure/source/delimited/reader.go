// Package delimited reads two-column key/value rows from tab- or
// comma-separated streams.
package delimited

import (
	"encoding/csv"
	"io"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/termsim/pkg/errors"
)

// Delimiter names accepted by ResolveDelimiter besides a literal character.
const (
	DelimiterAuto  = "auto"
	DelimiterTab   = "tab"
	DelimiterComma = "comma"
)

const utf8BOM = "\ufeff"

// ResolveDelimiter maps a delimiter setting to a rune.  "auto" (or "") picks
// ',' for names ending in .csv and '\t' for everything else.
func ResolveDelimiter(setting, name string) (rune, error) {
	key := strings.ToLower(strings.TrimSpace(setting))
	if key == "" && setting != "" {
		return literalDelimiter(setting)
	}
	switch key {
	case "", DelimiterAuto:
		if strings.EqualFold(path.Ext(name), ".csv") {
			return ',', nil
		}
		return '\t', nil
	case DelimiterTab, `\t`:
		return '\t', nil
	case DelimiterComma:
		return ',', nil
	}
	return literalDelimiter(setting)
}

func literalDelimiter(setting string) (rune, error) {
	if utf8.RuneCountInString(setting) != 1 {
		return 0, errors.NewValidationError("sources.delimiter",
			"delimiter must be auto, tab, comma or a single character")
	}
	r, _ := utf8.DecodeRuneInString(setting)
	if r == utf8.RuneError || r == '\r' || r == '\n' || r == '"' {
		return 0, errors.NewValidationError("sources.delimiter", "delimiter cannot be a quote, newline or invalid rune")
	}
	return r, nil
}

// Reader yields the fields of each row.  Rows may have any field count; the
// association parser decides what is malformed.  Blank lines are skipped.
type Reader struct {
	name    string
	csv     *csv.Reader
	closer  io.Closer
	started bool
}

// NewReader wraps r.  Quotes are honoured when well formed and otherwise kept
// literally.
func NewReader(name string, r io.Reader, comma rune) *Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rd := &Reader{name: name, csv: cr}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd
}

// Open wraps a stream using the delimiter setting resolved against name.
func Open(name string, r io.Reader, delimiter string) (*Reader, error) {
	comma, err := ResolveDelimiter(delimiter, name)
	if err != nil {
		return nil, err
	}
	return NewReader(name, r, comma), nil
}

// OpenFile opens a local file.  Failure to open is ErrCodeSourceRead.
func OpenFile(filePath, delimiter string) (*Reader, error) {
	comma, err := ResolveDelimiter(delimiter, filePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.SourceRead(filePath, err)
	}
	return NewReader(filePath, f, comma), nil
}

// Read returns the next row, or io.EOF.
func (r *Reader) Read() ([]string, error) {
	fields, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	if !r.started {
		r.started = true
		if len(fields) > 0 {
			fields[0] = strings.TrimPrefix(fields[0], utf8BOM)
		}
	}
	return fields, nil
}

// Name returns the path or URI the rows come from.
func (r *Reader) Name() string {
	return r.name
}

// Line returns the input line of the most recently read row.
func (r *Reader) Line() int {
	if !r.started {
		return 0
	}
	line, _ := r.csv.FieldPos(0)
	return line
}

// Close closes the underlying stream if it is closable.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

//Personal.AI order the ending
