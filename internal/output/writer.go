// Package output persists a consolidated table as a workbook with an
// attached sheet of chart images.
package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/tally/internal/types"
)

// RowsPerChart is the vertical distance, in sheet rows, between two chart
// anchors on the charts sheet. A default row is 20px tall.
const RowsPerChart = ChartHeight/20 + 2

type Options struct {
	OutputName  string
	DataSheet   string
	ChartsSheet string
	// KeepImages leaves the rendered PNG files next to the workbook.
	KeepImages bool
}

func DefaultOptions() Options {
	return Options{
		OutputName:  "Out.xlsx",
		DataSheet:   "Sheet1",
		ChartsSheet: "Charts",
		KeepImages:  true,
	}
}

// Writer builds the output workbook. It satisfies consolidator.Sink.
type Writer struct {
	opts     Options
	renderer ChartRenderer
	logger   *slog.Logger
}

func NewWriter(opts Options, renderer ChartRenderer, logger *slog.Logger) *Writer {
	if renderer == nil {
		renderer = NewGoChartRenderer()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{opts: opts, renderer: renderer, logger: logger}
}

// Write stores table as the first sheet of OutputName in dir, followed by
// the charts sheet. The workbook and the chart images replace any previous
// ones only once the workbook is complete; on error the files of earlier
// runs are left untouched.
func (w *Writer) Write(dir string, table *types.Table) (string, []string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if w.opts.DataSheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", w.opts.DataSheet); err != nil {
			return "", nil, err
		}
	}

	if err := writeTable(f, w.opts.DataSheet, table); err != nil {
		return "", nil, fmt.Errorf("failed to write table: %w", err)
	}

	charts, err := w.writeCharts(f, dir, table)
	defer removeTemps(charts)
	if err != nil {
		return "", nil, fmt.Errorf("failed to write charts: %w", err)
	}

	outputPath := filepath.Join(dir, w.opts.OutputName)
	if err := saveAtomic(f, outputPath); err != nil {
		return "", nil, fmt.Errorf("failed to save %s: %w", outputPath, err)
	}

	var images []string
	if w.opts.KeepImages {
		for _, c := range charts {
			if err := os.Rename(c.tmp, c.path); err != nil {
				return outputPath, images, fmt.Errorf("failed to keep chart image: %w", err)
			}
			images = append(images, c.path)
		}
	}

	w.logger.Info("output written",
		slog.String("path", outputPath),
		slog.Int("rows", len(table.Rows)),
		slog.Int("charts", len(images)))

	return outputPath, images, nil
}

// writeTable writes the header row and every data row without an index
// column. Blank cells stay unset.
func writeTable(f *excelize.File, sheet string, table *types.Table) error {
	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	if len(header) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return err
		}
	}

	for r, row := range table.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// chartImage is a rendered PNG waiting under a temporary name in the
// output directory.
type chartImage struct {
	tmp  string
	path string
}

// writeCharts renders a histogram for every numeric column and a pie for
// every categorical column, saves each as a temporary PNG in dir and
// anchors it on the charts sheet. It returns the images rendered so far,
// also on error.
func (w *Writer) writeCharts(f *excelize.File, dir string, table *types.Table) ([]chartImage, error) {
	if _, err := f.NewSheet(w.opts.ChartsSheet); err != nil {
		return nil, err
	}

	var images []chartImage
	row := 1
	for i, col := range table.Columns {
		var (
			path  string
			title string
			tmp   string
			err   error
		)

		switch col.Kind {
		case types.KindNumeric:
			title = "Histograma de " + col.Name
			path = filepath.Join(dir, col.Name+"_hist.png")
			bins := Histogram(numbers(table.Column(i)), HistogramBins)
			tmp, err = w.renderTo(dir, func(out *os.File) error {
				return w.renderer.Histogram(out, title, bins)
			})
		case types.KindCategorical:
			title = "Torta de " + col.Name
			path = filepath.Join(dir, col.Name+"_pie.png")
			slices := Frequencies(table.Column(i), MaxPieSlices)
			tmp, err = w.renderTo(dir, func(out *os.File) error {
				return w.renderer.Pie(out, title, slices)
			})
		default:
			continue
		}

		if err != nil {
			return images, fmt.Errorf("column %s: %w", col.Name, err)
		}
		images = append(images, chartImage{tmp: tmp, path: path})

		anchor, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.AddPicture(w.opts.ChartsSheet, anchor, tmp, &excelize.GraphicOptions{AltText: title}); err != nil {
			return images, fmt.Errorf("column %s: %w", col.Name, err)
		}
		row += RowsPerChart

		w.logger.Debug("chart rendered", slog.String("column", col.Name), slog.String("kind", col.Kind.String()), slog.String("anchor", anchor))
	}

	return images, nil
}

// renderTo renders into a new temporary PNG in dir and returns its path.
func (w *Writer) renderTo(dir string, render func(*os.File) error) (string, error) {
	out, err := os.CreateTemp(dir, ".tally-*.png")
	if err != nil {
		return "", err
	}
	if err := render(out); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	if err := os.Chmod(out.Name(), 0o644); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

// saveAtomic writes f to a temporary file beside path and renames it into
// place.
func saveAtomic(f *excelize.File, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tally-*.xlsx")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func numbers(values []any) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if n, ok := v.(float64); ok {
			out = append(out, n)
		}
	}
	return out
}

// removeTemps deletes the temporary images that were not renamed into place.
func removeTemps(images []chartImage) {
	for _, c := range images {
		os.Remove(c.tmp)
	}
}
