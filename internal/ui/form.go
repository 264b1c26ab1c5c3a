package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nconklindev/tally/internal/consolidator"
	"github.com/nconklindev/tally/internal/types"
)

const (
	fieldDirectory = iota
	fieldStartColumn
	fieldEndColumn
	fieldStartRow
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Directory",
	"Start column",
	"End column",
	"Start row",
}

// form holds the four run parameters.
type form struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newForm(dir string) form {
	var f form
	placeholders := [fieldCount]string{"/path/to/exports", "A", "P", "2"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = placeholders[i]
		ti.Cursor.Style = SelectedStyle
		ti.Width = 48
		if i != fieldDirectory {
			ti.CharLimit = 7
			ti.Width = 10
		}
		f.inputs[i] = ti
	}
	f.inputs[fieldDirectory].SetValue(dir)
	f.inputs[fieldDirectory].Focus()
	return f
}

func (f *form) next() tea.Cmd {
	return f.setFocus((f.focus + 1) % fieldCount)
}

func (f *form) prev() tea.Cmd {
	return f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

func (f *form) setFocus(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[i].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f form) request() types.Request {
	return types.Request{
		Directory:   strings.TrimSpace(f.inputs[fieldDirectory].Value()),
		StartColumn: f.inputs[fieldStartColumn].Value(),
		EndColumn:   f.inputs[fieldEndColumn].Value(),
		StartRow:    f.inputs[fieldStartRow].Value(),
	}
}

// validate rejects requests that would fail before touching any file, so the
// form can stay on screen with the message.
func (f form) validate() error {
	req := f.request()
	if req.Directory == "" {
		return &consolidator.ValidationError{Field: "directory", Err: consolidator.ErrDirectory}
	}
	_, err := consolidator.ParseWindow(req)
	return err
}

// fieldFor maps a validation error to the input that caused it.
func fieldFor(err error) int {
	var verr *consolidator.ValidationError
	if !errors.As(err, &verr) {
		return -1
	}
	switch verr.Field {
	case "directory":
		return fieldDirectory
	case "start column":
		return fieldStartColumn
	case "end column":
		return fieldEndColumn
	case "start row":
		return fieldStartRow
	}
	return -1
}
