package consolidator

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
	"github.com/xuri/nfp"
)

// ExtractFile reads the window from sheet of the workbook at path. Each
// returned row has exactly w.Width() cells; blanks are nil. Reading stops at
// the last row of the sheet that holds any data. The workbook is closed
// before returning, also on error.
func ExtractFile(path, sheet string, w CellWindow) ([][]any, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, newFileError(path, StageOpen, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return nil, newFileError(path, StageSheet, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, newFileError(path, StageRead, err)
	}

	dec := newCellDecoder(f, sheet)

	var out [][]any
	for r := w.StartRow; r <= len(rows); r++ {
		raw := rows[r-1]
		row := make([]any, w.Width())
		for c := w.StartColumn; c <= w.EndColumn && c <= len(raw); c++ {
			if raw[c-1] == "" {
				continue
			}
			v, err := dec.decode(c, r, raw[c-1])
			if err != nil {
				return nil, newFileError(path, StageRead, err)
			}
			row[c-w.StartColumn] = v
		}
		out = append(out, row)
	}

	return out, nil
}

// cellDecoder turns raw cell text back into a typed value using the cell
// type and number format stored in the workbook.
type cellDecoder struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func newCellDecoder(f *excelize.File, sheet string) *cellDecoder {
	d := &cellDecoder{f: f, sheet: sheet, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *cellDecoder) decode(col, row int, raw string) (any, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}

	typ, err := d.f.GetCellType(d.sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", cell, err)
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return raw, nil
	case excelize.CellTypeBool:
		if b, err := cast.ToBoolE(raw); err == nil {
			return b, nil
		}
		return raw, nil
	case excelize.CellTypeDate:
		if t, err := cast.ToTimeE(raw); err == nil {
			return t, nil
		}
		return raw, nil
	}

	num, err := cast.ToFloat64E(strings.TrimSpace(raw))
	if err != nil {
		return raw, nil
	}

	isDate, err := d.isDateCell(cell)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", cell, err)
	}
	if isDate {
		t, err := excelize.ExcelDateToTime(num, d.date1904)
		if err == nil {
			return t.Truncate(time.Millisecond), nil
		}
	}
	return num, nil
}

func (d *cellDecoder) isDateCell(cell string) (bool, error) {
	styleID, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil {
		return false, err
	}
	if styleID == 0 {
		return false, nil
	}
	if v, ok := d.dateStyles[styleID]; ok {
		return v, nil
	}

	style, err := d.f.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	v := isBuiltInDateFormat(style.NumFmt)
	if !v && style.CustomNumFmt != nil {
		v = isDateFormat(*style.CustomNumFmt)
	}
	d.dateStyles[styleID] = v
	return v, nil
}

// isBuiltInDateFormat reports whether a built-in number format id renders
// a date or time.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22:
	case id >= 27 && id <= 36:
	case id >= 45 && id <= 47:
	case id >= 50 && id <= 58:
	default:
		return false
	}
	return true
}

// isDateFormat reports whether the positive section of a custom number
// format code renders a date, a time or an elapsed duration.
func isDateFormat(code string) bool {
	p := nfp.NumberFormatParser()
	sections := p.Parse(code)
	if len(sections) == 0 {
		return false
	}
	for _, tok := range sections[0].Items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes, nfp.TokenTypeElapsedDateTimes:
			return true
		}
	}
	return false
}
