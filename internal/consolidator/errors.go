package consolidator

import (
	"errors"
	"fmt"

	"github.com/nconklindev/tally/internal/types"
)

var (
	// ErrInvalidColumn indicates a column label that is empty, non-alphabetic or beyond XFD.
	ErrInvalidColumn = errors.New("invalid column label")
	// ErrInvalidRow indicates a start row that is not a positive integer.
	ErrInvalidRow = errors.New("invalid start row")
	// ErrInvalidWindow indicates a start column to the right of the end column.
	ErrInvalidWindow = errors.New("start column is after end column")
	// ErrDirectory indicates the input directory is missing or unreadable.
	ErrDirectory = errors.New("directory not readable")
	// ErrNoInput indicates that no source file could be consolidated.
	ErrNoInput = errors.New("no input files")
	// ErrSheetNotFound indicates a source workbook lacks the data sheet.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Stages reported in FileError.
const (
	StageOpen  = "open"
	StageSheet = "sheet"
	StageRead  = "read"
)

// FileError records which file failed and at which stage.
type FileError = types.FileError

// ValidationError reports which input parameter was rejected.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err stems from rejected input parameters.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newFileError(path, stage string, err error) *FileError {
	return &FileError{Path: path, Stage: stage, Err: err}
}
