package association

import (
	"errors"
	"io"

	errs "github.com/turtacn/termsim/pkg/errors"
)

// RecordSource yields raw rows until it returns io.EOF.  *csv.Reader satisfies
// it directly.
type RecordSource interface {
	Read() ([]string, error)
}

// NamedSource is implemented by sources that can describe themselves in error
// messages (a file path, an object URI).
type NamedSource interface {
	Name() string
}

// LineSource is implemented by sources that know the input line of the row
// they returned last.  Blank lines are skipped by delimited readers, so the
// line can be ahead of the row count.
type LineSource interface {
	Line() int
}

// SourceName returns src's name when it has one.
func SourceName(src RecordSource) string {
	if n, ok := src.(NamedSource); ok {
		return n.Name()
	}
	return "<records>"
}

// Parse folds every row of src into a Map.  A row that does not have exactly
// two fields aborts with ErrCodeMalformedRecord; any other read failure aborts
// with ErrCodeSourceRead wrapping the original error.  No partial map is ever
// returned.  A malformed row is located by its input line when src is a
// LineSource, by its 1-based row number otherwise.
func Parse(src RecordSource) (Map, error) {
	name := SourceName(src)
	m := make(Map)
	for row := 1; ; row++ {
		fields, err := src.Read()
		if errors.Is(err, io.EOF) {
			return m, nil
		}
		if err != nil {
			var ae *errs.AppError
			if errors.As(err, &ae) {
				return nil, err
			}
			return nil, errs.SourceRead(name, err)
		}
		if len(fields) != 2 {
			return nil, errs.MalformedRecord(name, position(src, row), len(fields))
		}
		insert(m, fields[0], fields[1])
	}
}

func position(src RecordSource, row int) int {
	if ls, ok := src.(LineSource); ok {
		if line := ls.Line(); line > 0 {
			return line
		}
	}
	return row
}

// ParseRecords folds already-materialised records into a Map.
func ParseRecords(records []Record) Map {
	m := make(Map)
	for _, r := range records {
		insert(m, r.Key, r.Value)
	}
	return m
}

func insert(m Map, key, value string) {
	set, ok := m[key]
	if !ok {
		set = make(TermSet)
		m[key] = set
	}
	set[value] = struct{}{}
}

// SliceSource serves pre-materialised rows as a RecordSource.
type SliceSource struct {
	name string
	rows [][]string
	pos  int
}

// NewSliceSource returns a RecordSource over rows.
func NewSliceSource(name string, rows [][]string) *SliceSource {
	return &SliceSource{name: name, rows: rows}
}

// FromRecords returns a RecordSource over two-field records.
func FromRecords(name string, records []Record) *SliceSource {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.Key, r.Value}
	}
	return NewSliceSource(name, rows)
}

// Read returns the next row or io.EOF.
func (s *SliceSource) Read() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// Name implements NamedSource.
func (s *SliceSource) Name() string {
	return s.name
}

//Personal.AI order the ending
