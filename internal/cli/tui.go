package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nconklindev/tally/internal/ui"
)

func newTUICmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Fill in the run parameters in an interactive form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(*configPath)
		},
	}
}

// runTUI logs to the configured file only so records never tear the screen.
func runTUI(configPath string) error {
	a, err := setup(configPath, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(ui.InitialModel(a.consolidator()), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
