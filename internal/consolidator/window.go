package consolidator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/tally/internal/types"
)

// Trailing column names appended to every extracted row.
const (
	ColumnYear  = "ANIO"
	ColumnMonth = "MES"
	ColumnDay   = "DIA"
)

// CellWindow is the rectangular region read from every source sheet.
// Columns and rows are 1-based; the window has no end row.
type CellWindow struct {
	StartColumn int
	EndColumn   int
	StartRow    int
}

// Width returns the number of columns in the window.
func (w CellWindow) Width() int {
	return w.EndColumn - w.StartColumn + 1
}

// ColumnNames returns the spreadsheet letters of the window followed by the
// date tag columns.
func (w CellWindow) ColumnNames() []string {
	names := make([]string, 0, w.Width()+3)
	for c := w.StartColumn; c <= w.EndColumn; c++ {
		name, _ := excelize.ColumnNumberToName(c)
		names = append(names, name)
	}
	return append(names, ColumnYear, ColumnMonth, ColumnDay)
}

func (w CellWindow) String() string {
	start, _ := excelize.ColumnNumberToName(w.StartColumn)
	end, _ := excelize.ColumnNumberToName(w.EndColumn)
	return fmt.Sprintf("%s%d:%s", start, w.StartRow, end)
}

type windowInput struct {
	StartColumn string `validate:"required,alpha"`
	EndColumn   string `validate:"required,alpha"`
	StartRow    string `validate:"required,number"`
}

var validate = validator.New()

// fieldNames maps struct fields to the names users see in messages.
var fieldNames = map[string]string{
	"StartColumn": "start column",
	"EndColumn":   "end column",
	"StartRow":    "start row",
}

// ParseWindow validates the textual window parameters of req and resolves
// them to indices. It performs no I/O.
func ParseWindow(req types.Request) (CellWindow, error) {
	in := windowInput{
		StartColumn: strings.TrimSpace(req.StartColumn),
		EndColumn:   strings.TrimSpace(req.EndColumn),
		StartRow:    strings.TrimSpace(req.StartRow),
	}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			sentinel := ErrInvalidColumn
			if fe.StructField() == "StartRow" {
				sentinel = ErrInvalidRow
			}
			return CellWindow{}, &ValidationError{
				Field: fieldNames[fe.StructField()],
				Value: fmt.Sprint(fe.Value()),
				Err:   fmt.Errorf("%w: failed %q check", sentinel, fe.Tag()),
			}
		}
		return CellWindow{}, err
	}

	start, err := excelize.ColumnNameToNumber(in.StartColumn)
	if err != nil {
		return CellWindow{}, &ValidationError{Field: "start column", Value: in.StartColumn, Err: fmt.Errorf("%w: %v", ErrInvalidColumn, err)}
	}
	end, err := excelize.ColumnNameToNumber(in.EndColumn)
	if err != nil {
		return CellWindow{}, &ValidationError{Field: "end column", Value: in.EndColumn, Err: fmt.Errorf("%w: %v", ErrInvalidColumn, err)}
	}
	if start > end {
		return CellWindow{}, &ValidationError{
			Field: "end column",
			Value: in.EndColumn,
			Err:   fmt.Errorf("%w: %s > %s", ErrInvalidWindow, strings.ToUpper(in.StartColumn), strings.ToUpper(in.EndColumn)),
		}
	}

	row, err := strconv.Atoi(in.StartRow)
	if err != nil || row < 1 {
		return CellWindow{}, &ValidationError{Field: "start row", Value: in.StartRow, Err: fmt.Errorf("%w: must be a positive integer", ErrInvalidRow)}
	}
	if row > excelize.TotalRows {
		return CellWindow{}, &ValidationError{Field: "start row", Value: in.StartRow, Err: fmt.Errorf("%w: exceeds %d", ErrInvalidRow, excelize.TotalRows)}
	}

	return CellWindow{StartColumn: start, EndColumn: end, StartRow: row}, nil
}
