package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nconklindev/tally/internal/types"
)

// PreviewRows is the number of consolidated rows shown after a run.
const PreviewRows = 5

// Runner executes one consolidation run.
type Runner interface {
	Run(ctx context.Context, req types.Request, progress chan<- float64) (*types.Result, error)
}

type state int

const (
	stateForm state = iota
	stateProcessing
	stateComplete
	stateError
)

type Model struct {
	state        state
	runner       Runner
	form         form
	formErr      error
	result       *types.Result
	preview      table.Model
	err          error
	width        int
	height       int
	progress     progress.Model
	cancel       context.CancelFunc
	progressChan chan float64
	resultChan   chan runResultMsg
}

type runResultMsg struct {
	result *types.Result
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

// InitialModel returns the form screen with the directory preset to the
// working directory.
func InitialModel(runner Runner) Model {
	dir, _ := os.Getwd()
	return Model{
		state:    stateForm,
		runner:   runner,
		form:     newForm(dir),
		progress: progress.New(progress.WithGradient("#2EC4B6", "#7ED9CF")),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.SetWindowTitle("tally"))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		w := msg.Width - 10
		if w < 20 {
			w = 20
		}
		m.progress.Width = w
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateForm:
			return m.updateForm(msg)

		case stateProcessing:
			if msg.String() == "ctrl+c" {
				if m.cancel != nil {
					m.cancel()
				}
				return m, tea.Quit
			}

		case stateComplete:
			switch msg.String() {
			case "ctrl+c", "q", "esc", "enter":
				return m, tea.Quit
			case "r":
				return m.reset()
			default:
				var cmd tea.Cmd
				m.preview, cmd = m.preview.Update(msg)
				return m, cmd
			}

		case stateError:
			switch msg.String() {
			case "r":
				return m.reset()
			default:
				return m, tea.Quit
			}
		}

	case runResultMsg:
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.preview = newPreview(msg.result.Table, PreviewRows)
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateForm {
		cmd := m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down":
		cmd := m.form.next()
		return m, cmd
	case "shift+tab", "up":
		cmd := m.form.prev()
		return m, cmd
	case "enter":
		if m.form.focus < fieldCount-1 {
			cmd := m.form.next()
			return m, cmd
		}
		if err := m.form.validate(); err != nil {
			m.formErr = err
			var cmd tea.Cmd
			if i := fieldFor(err); i >= 0 {
				cmd = m.form.setFocus(i)
			}
			return m, cmd
		}
		m.formErr = nil
		m.state = stateProcessing
		return m.startRun()
	}

	cmd := m.form.update(msg)
	return m, cmd
}

// reset goes back to the form keeping the previous values.
func (m Model) reset() (tea.Model, tea.Cmd) {
	m.state = stateForm
	m.err = nil
	m.result = nil
	cmd := tea.Batch(m.progress.SetPercent(0), m.form.setFocus(fieldDirectory))
	return m, cmd
}

func (m Model) startRun() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan runResultMsg, 1)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	progressChan := m.progressChan
	resultChan := m.resultChan
	runner := m.runner
	req := m.form.request()

	go func() {
		result, err := runner.Run(ctx, req, progressChan)
		resultChan <- runResultMsg{result: result, err: err}

		close(progressChan)
		close(resultChan)
	}()

	reset := m.progress.SetPercent(0)
	return m, tea.Batch(waitForProgress(progressChan, resultChan), reset)
}

func waitForProgress(progressChan chan float64, resultChan chan runResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return res
			}
			return nil
		}

		return progressMsg(p)
	}
}

// newPreview builds a read-only table of the first n consolidated rows.
func newPreview(t *types.Table, n int) table.Model {
	if t == nil {
		return table.New()
	}

	headers := t.Headers()
	rows := t.Head(n)

	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		w := lipgloss.Width(h)
		for _, row := range rows {
			w = max(w, lipgloss.Width(types.FormatCell(row[i])))
		}
		columns[i] = table.Column{Title: h, Width: min(w, 16)}
	}

	tableRows := make([]table.Row, len(rows))
	for r, row := range rows {
		cells := make(table.Row, len(row))
		for c, v := range row {
			cells[c] = types.FormatCell(v)
		}
		tableRows[r] = cells
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(AccentColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = SelectedStyle

	tm := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(len(tableRows)+2),
		table.WithFocused(true),
	)
	tm.SetStyles(styles)
	return tm
}

func (m Model) View() string {
	switch m.state {
	case stateForm:
		return m.viewForm()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewForm() string {
	var s strings.Builder

	title := TitleStyle.Render("📊 Tally - Daily Sales Consolidator")
	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title,
		SubtitleStyle.Render("Merge every AvanceVentasINTI workbook in a folder into one report")))
	s.WriteString("\n")

	for i, in := range m.form.inputs {
		label := UnselectedStyle.Render(fieldLabels[i])
		if i == m.form.focus {
			label = SelectedStyle.Render(fieldLabels[i])
		}
		s.WriteString(label)
		s.WriteString("\n")
		s.WriteString(in.View())
		s.WriteString("\n\n")
	}

	if m.formErr != nil {
		s.WriteString(ErrorStyle.Render("✗ " + m.formErr.Error()))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("tab/↓: next field • shift+tab/↑: previous • enter: run • esc: quit"))
	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📊 Processing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Consolidating workbooks in %s", truncatePath(m.form.request().Directory, m.width)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("ctrl+c: cancel"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder
	res := m.result

	s.WriteString(TitleStyle.Render("✓ Consolidation Complete!"))
	s.WriteString("\n\n")
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s", truncatePath(res.OutputPath, m.width))))
	s.WriteString("\n\n")

	rows := 0
	if res.Table != nil {
		rows = len(res.Table.Rows)
	}
	s.WriteString(fmt.Sprintf("Files consolidated: %s\n", humanize.Comma(int64(len(res.Files)))))
	s.WriteString(fmt.Sprintf("Rows: %s\n", humanize.Comma(int64(rows))))
	s.WriteString(fmt.Sprintf("Charts: %d\n", len(res.ChartImages)))
	s.WriteString(fmt.Sprintf("Took: %s\n", res.Duration.Round(time.Millisecond)))

	if len(res.Skipped) > 0 {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Skipped %d file(s):", len(res.Skipped))))
		s.WriteString("\n")
		for _, fe := range res.Skipped {
			s.WriteString(UnselectedStyle.Render(fmt.Sprintf("  %s: %v", filepath.Base(fe.Path), fe.Err)))
			s.WriteString("\n")
		}
	}

	if res.Table != nil && len(res.Table.Rows) > 0 {
		s.WriteString("\n")
		s.WriteString(SubtitleStyle.Render(fmt.Sprintf("First %d rows", min(PreviewRows, rows))))
		s.WriteString("\n")
		s.WriteString(m.preview.View())
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("r: run again • enter/q: exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("r: back to the form • any other key: exit"))

	return BoxStyle.Render(s.String())
}

// truncatePath shortens long paths from the left so the box fits the window.
func truncatePath(path string, width int) string {
	maxLen := max(width-20, 30)
	if len(path) > maxLen {
		return "..." + path[len(path)-maxLen+3:]
	}
	return path
}
