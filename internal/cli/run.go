package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nconklindev/tally/internal/consolidator"
	"github.com/nconklindev/tally/internal/types"
	"github.com/nconklindev/tally/internal/ui"
)

type runOptions struct {
	req     types.Request
	policy  string
	preview int
}

func newRunCmd(configPath *string) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Consolidate the workbooks of a directory into Out.xlsx",
		Example: `  tally run --dir ./ventas --start-col A --end-col P --start-row 2
  tally run --dir ./ventas --start-col B --end-col H --start-row 5 --policy skip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if opts.policy != "" {
				policy, err := consolidator.ParsePolicy(opts.policy)
				if err != nil {
					return err
				}
				a.cfg.Source.ErrorPolicy = string(policy)
			}

			return runOnce(cmd, a.consolidator(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.req.Directory, "dir", "d", ".", "directory holding the daily workbooks")
	f.StringVar(&opts.req.StartColumn, "start-col", "", "first column of the window (e.g. A)")
	f.StringVar(&opts.req.EndColumn, "end-col", "", "last column of the window (e.g. P)")
	f.StringVar(&opts.req.StartRow, "start-row", "", "first row of the window, 1-based")
	f.StringVar(&opts.policy, "policy", "", "error policy: fail-fast or skip (overrides config)")
	f.IntVar(&opts.preview, "preview", ui.PreviewRows, "rows to preview after the run, 0 to disable")
	for _, name := range []string{"start-col", "end-col", "start-row"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runOnce(cmd *cobra.Command, c *consolidator.Consolidator, opts runOptions) error {
	out := cmd.OutOrStdout()

	var (
		progressChan chan float64
		wg           sync.WaitGroup
	)
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		progressChan = make(chan float64, 100)
		wg.Add(1)
		go func() {
			defer wg.Done()
			showProgress(f, progressChan)
		}()
	}

	res, err := c.Run(cmd.Context(), opts.req, progressChan)
	if progressChan != nil {
		close(progressChan)
		wg.Wait()
	}
	if err != nil {
		return err
	}

	printResult(out, res, opts.preview)
	return nil
}

// showProgress redraws a single progress line until ch is closed.
func showProgress(w io.Writer, ch <-chan float64) {
	bar := progress.New(progress.WithGradient("#2EC4B6", "#7ED9CF"), progress.WithWidth(40))
	for p := range ch {
		fmt.Fprintf(w, "\r%s", bar.ViewAs(p))
	}
	fmt.Fprintln(w)
}

func printResult(w io.Writer, res *types.Result, preview int) {
	fmt.Fprintln(w, ui.SuccessStyle.Render("✓ Data consolidated into "+res.OutputPath))

	rows := 0
	if res.Table != nil {
		rows = len(res.Table.Rows)
	}
	fmt.Fprintf(w, "%s rows from %s file(s) in %s\n",
		humanize.Comma(int64(rows)), humanize.Comma(int64(len(res.Files))), res.Duration.Round(time.Millisecond))

	for _, file := range res.Files {
		fmt.Fprintf(w, "  %-44s %8s %6s rows  %s\n",
			file.Name, humanize.Bytes(uint64(file.Size)), humanize.Comma(int64(file.Rows)), file.DateTag)
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(w, ui.ErrorStyle.Render(fmt.Sprintf("Skipped %d file(s):", len(res.Skipped))))
		for _, fe := range res.Skipped {
			fmt.Fprintf(w, "  %s (%s): %v\n", filepath.Base(fe.Path), fe.Stage, fe.Err)
		}
	}

	if len(res.ChartImages) > 0 {
		fmt.Fprintf(w, "%d chart(s) on the charts sheet\n", len(res.ChartImages))
	}

	if preview > 0 && rows > 0 {
		fmt.Fprintln(w, ui.RenderTable(res.Table, preview))
	}
}
