package types

import (
	"fmt"
	"strconv"
	"time"
)

// Request carries the four user-supplied parameters of a consolidation run.
// Values are kept as the raw strings a form or flag would deliver.
type Request struct {
	Directory   string `json:"directory"`
	StartColumn string `json:"start_column"`
	EndColumn   string `json:"end_column"`
	StartRow    string `json:"start_row"`
}

// DateTag is the (year, month, day) triple decoded from a source filename.
// All three fields are empty when the filename did not match.
type DateTag struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Day   string `json:"day"`
}

// IsZero reports whether the tag carries no date.
func (d DateTag) IsZero() bool {
	return d.Year == "" && d.Month == "" && d.Day == ""
}

func (d DateTag) String() string {
	if d.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s-%s-%s", d.Year, d.Month, d.Day)
}

type SourceFile struct {
	Path    string  `json:"path"`
	Name    string  `json:"name"`
	Size    int64   `json:"size"`
	DateTag DateTag `json:"date_tag"`
	Rows    int     `json:"rows"`
}

// ColumnKind drives which chart, if any, is rendered for a column.
type ColumnKind int

const (
	KindOther ColumnKind = iota
	KindNumeric
	KindCategorical
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return "other"
	}
}

func (k ColumnKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ColumnKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "numeric":
		*k = KindNumeric
	case "categorical":
		*k = KindCategorical
	case "other":
		*k = KindOther
	default:
		return fmt.Errorf("unknown column kind %q", text)
	}
	return nil
}

type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Table is the consolidated row set. Cell values are nil, float64, string,
// bool or time.Time.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Headers returns the column names in order.
func (t *Table) Headers() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Head returns at most n leading rows.
func (t *Table) Head(n int) [][]any {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// Column returns every value of column idx, top to bottom.
func (t *Table) Column(idx int) []any {
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values
}

// FileError records a per-file failure.
type FileError struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Err   error  `json:"-"`
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

type Result struct {
	RunID       string        `json:"run_id"`
	OutputPath  string        `json:"output_path"`
	Table       *Table        `json:"-"`
	Files       []SourceFile  `json:"files"`
	Skipped     []*FileError  `json:"-"`
	ChartImages []string      `json:"chart_images"`
	Duration    time.Duration `json:"duration"`
}

// FormatCell renders a cell value for previews.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(val)
	}
}
