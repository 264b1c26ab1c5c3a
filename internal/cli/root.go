// Package cli wires configuration, logging and the consolidation pipeline
// into the tally command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCmd builds the command tree. Without a subcommand tally opens the
// terminal UI when attached to a terminal and prints usage otherwise.
func NewRootCmd(info BuildInfo) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tally",
		Short: "Consolidate daily AvanceVentasINTI workbooks into one report",
		Long: `tally reads a fixed cell window from the ITEM_O sheet of every
AvanceVentasINTI.*.xlsx workbook in a directory, tags each row with the date
encoded in its filename and writes Out.xlsx with a data sheet and a sheet of
histograms and pie charts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return runTUI(configPath)
			}
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	root.AddCommand(
		newRunCmd(&configPath),
		newTUICmd(&configPath),
		newServeCmd(&configPath),
		newVersionCmd(info),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(info BuildInfo) {
	if err := NewRootCmd(info).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
