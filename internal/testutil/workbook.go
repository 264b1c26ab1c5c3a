// Package testutil builds source workbooks for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet names a sheet and its cells, keyed by cell reference ("B3").
type Sheet struct {
	Name  string
	Cells map[string]any
}

// WriteWorkbook saves a workbook with the given sheets into dir and returns
// its path. The first sheet replaces the default one.
func WriteWorkbook(t testing.TB, dir, name string, sheets ...Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("new sheet %s: %v", s.Name, err)
		}
		for cell, v := range s.Cells {
			if err := f.SetCellValue(s.Name, cell, v); err != nil {
				t.Fatalf("set %s!%s: %v", s.Name, cell, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}
	return path
}

// Rows builds a cell map from a block of values anchored at (col, row),
// both 1-based. Nil values are left blank.
func Rows(col, row int, values [][]any) map[string]any {
	cells := make(map[string]any)
	for r, vals := range values {
		for c, v := range vals {
			if v == nil {
				continue
			}
			name, _ := excelize.CoordinatesToCellName(col+c, row+r)
			cells[name] = v
		}
	}
	return cells
}

// SalesFile is the name of a daily export for the given date parts.
func SalesFile(year, month, day, suffix string) string {
	return "AvanceVentasINTI." + year + "." + month + "." + day + "." + suffix + ".xlsx"
}
