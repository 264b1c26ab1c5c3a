package consolidator

import (
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/tally/internal/types"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name     string
		req      types.Request
		expected CellWindow
		err      error
	}{
		{"Single column", types.Request{StartColumn: "A", EndColumn: "A", StartRow: "1"}, CellWindow{1, 1, 1}, nil},
		{"A to P", types.Request{StartColumn: "A", EndColumn: "P", StartRow: "2"}, CellWindow{1, 16, 2}, nil},
		{"Lowercase", types.Request{StartColumn: "b", EndColumn: "aa", StartRow: "10"}, CellWindow{2, 27, 10}, nil},
		{"Whitespace", types.Request{StartColumn: " C ", EndColumn: "D\t", StartRow: " 3 "}, CellWindow{3, 4, 3}, nil},
		{"Last column", types.Request{StartColumn: "XFD", EndColumn: "XFD", StartRow: "1"}, CellWindow{16384, 16384, 1}, nil},
		{"Reversed", types.Request{StartColumn: "P", EndColumn: "A", StartRow: "2"}, CellWindow{}, ErrInvalidWindow},
		{"Empty start column", types.Request{StartColumn: "", EndColumn: "A", StartRow: "2"}, CellWindow{}, ErrInvalidColumn},
		{"Digits in column", types.Request{StartColumn: "A1", EndColumn: "B", StartRow: "2"}, CellWindow{}, ErrInvalidColumn},
		{"Beyond XFD", types.Request{StartColumn: "A", EndColumn: "XFE", StartRow: "2"}, CellWindow{}, ErrInvalidColumn},
		{"Non numeric row", types.Request{StartColumn: "A", EndColumn: "B", StartRow: "two"}, CellWindow{}, ErrInvalidRow},
		{"Zero row", types.Request{StartColumn: "A", EndColumn: "B", StartRow: "0"}, CellWindow{}, ErrInvalidRow},
		{"Negative row", types.Request{StartColumn: "A", EndColumn: "B", StartRow: "-1"}, CellWindow{}, ErrInvalidRow},
		{"Decimal row", types.Request{StartColumn: "A", EndColumn: "B", StartRow: "1.5"}, CellWindow{}, ErrInvalidRow},
		{"Empty row", types.Request{StartColumn: "A", EndColumn: "B", StartRow: ""}, CellWindow{}, ErrInvalidRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindow(tt.req)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("ParseWindow() error = %v; want %v", err, tt.err)
				}
				if !IsValidation(err) {
					t.Errorf("ParseWindow() error %v is not a ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWindow() unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ParseWindow() = %+v; want %+v", got, tt.expected)
			}
		})
	}
}

func TestCellWindow_WidthMatchesLetters(t *testing.T) {
	labels := []string{"A", "B", "F", "P", "Z", "AA", "AZ", "BA"}
	for _, l1 := range labels {
		for _, l2 := range labels {
			i1, _ := excelize.ColumnNameToNumber(l1)
			i2, _ := excelize.ColumnNameToNumber(l2)
			if i1 > i2 {
				continue
			}
			w, err := ParseWindow(types.Request{StartColumn: l1, EndColumn: l2, StartRow: "1"})
			if err != nil {
				t.Fatalf("ParseWindow(%s, %s) failed: %v", l1, l2, err)
			}
			names := w.ColumnNames()
			if len(names) != i2-i1+1+3 {
				t.Errorf("window %s:%s has %d columns; want %d", l1, l2, len(names), i2-i1+4)
			}
			if names[0] != l1 || names[len(names)-4] != l2 {
				t.Errorf("window %s:%s names = %v", l1, l2, names)
			}
		}
	}
}

func TestCellWindow_ColumnNames(t *testing.T) {
	w := CellWindow{StartColumn: 25, EndColumn: 28, StartRow: 1}
	expected := []string{"Y", "Z", "AA", "AB", "ANIO", "MES", "DIA"}
	got := w.ColumnNames()
	if len(got) != len(expected) {
		t.Fatalf("ColumnNames() = %v; want %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("ColumnNames()[%d] = %s; want %s", i, got[i], expected[i])
		}
	}
	if w.String() != "Y1:AB" {
		t.Errorf("String() = %s; want Y1:AB", w.String())
	}
}
