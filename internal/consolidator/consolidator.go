// Package consolidator turns a directory of daily sales workbooks into one
// consolidated table tagged with the date decoded from each filename.
package consolidator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/nconklindev/tally/internal/types"
)

// Policy selects what happens when a single source file cannot be read.
type Policy string

const (
	// PolicyFailFast aborts the whole run on the first file error.
	PolicyFailFast Policy = "fail-fast"
	// PolicySkip records the file error and continues with the next file.
	PolicySkip Policy = "skip"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFailFast, PolicySkip:
		return Policy(s), nil
	case "":
		return PolicyFailFast, nil
	}
	return "", fmt.Errorf("invalid error policy %q (must be %s or %s)", s, PolicyFailFast, PolicySkip)
}

// Options configures discovery and extraction.
type Options struct {
	Prefix     string
	Extension  string
	SheetName  string
	OutputName string
	Policy     Policy
}

// DefaultOptions returns the settings of the daily INTI sales exports.
func DefaultOptions() Options {
	return Options{
		Prefix:     "AvanceVentasINTI",
		Extension:  ".xlsx",
		SheetName:  "ITEM_O",
		OutputName: "Out.xlsx",
		Policy:     PolicyFailFast,
	}
}

// Sink persists a consolidated table into dir and reports the files it wrote.
type Sink interface {
	Write(dir string, table *types.Table) (outputPath string, images []string, err error)
}

// Consolidator runs the extraction pipeline. It is safe to reuse but runs
// are not meant to overlap on the same directory.
type Consolidator struct {
	opts   Options
	sink   Sink
	logger *slog.Logger
}

// New creates a Consolidator. A nil sink builds the table without writing
// anything; a nil logger discards logs.
func New(opts Options, sink Sink, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFailFast
	}
	return &Consolidator{opts: opts, sink: sink, logger: logger}
}

// Options returns the effective options.
func (c *Consolidator) Options() Options {
	return c.opts
}

// Run validates req, consolidates every matching workbook and hands the
// table to the sink. Progress receives the completed fraction after each
// file; sends never block. Either everything is written or nothing is.
func (c *Consolidator) Run(ctx context.Context, req types.Request, progress chan<- float64) (*types.Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := c.logger.With(slog.String("run_id", runID))

	window, err := ParseWindow(req)
	if err != nil {
		logger.Warn("rejected request", slog.String("error", err.Error()))
		return nil, err
	}

	if req.Directory == "" {
		return nil, &ValidationError{Field: "directory", Value: req.Directory, Err: ErrDirectory}
	}
	info, err := os.Stat(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectory, req.Directory)
	}

	logger.Info("consolidation started",
		slog.String("directory", req.Directory),
		slog.String("window", window.String()),
		slog.String("policy", string(c.opts.Policy)))

	table, files, skipped, err := c.consolidate(ctx, logger, req.Directory, window, progress)
	if err != nil {
		logger.Error("consolidation failed", slog.String("error", err.Error()))
		return nil, err
	}

	result := &types.Result{
		RunID:   runID,
		Table:   table,
		Files:   files,
		Skipped: skipped,
	}

	if c.sink != nil {
		out, images, err := c.sink.Write(req.Directory, table)
		if err != nil {
			logger.Error("writing output failed", slog.String("error", err.Error()))
			return nil, err
		}
		result.OutputPath = out
		result.ChartImages = images
	}

	result.Duration = time.Since(start)
	logger.Info("consolidation finished",
		slog.Int("files", len(files)),
		slog.Int("skipped", len(skipped)),
		slog.Int("rows", len(table.Rows)),
		slog.String("output", result.OutputPath),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// Consolidate extracts window from every source file in dir and
// concatenates the rows in file order. It returns the files that
// contributed rows and, under PolicySkip, the files that were skipped.
// Nothing is written.
func (c *Consolidator) Consolidate(ctx context.Context, dir string, window CellWindow, progress chan<- float64) (*types.Table, []types.SourceFile, []*FileError, error) {
	return c.consolidate(ctx, c.logger, dir, window, progress)
}

func (c *Consolidator) consolidate(ctx context.Context, logger *slog.Logger, dir string, window CellWindow, progress chan<- float64) (*types.Table, []types.SourceFile, []*FileError, error) {
	files, err := Discover(dir, c.opts.Prefix, c.opts.Extension, c.opts.OutputName)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no %s*%s files in %s", ErrNoInput, c.opts.Prefix, c.opts.Extension, dir)
	}

	table := &types.Table{}
	for _, name := range window.ColumnNames() {
		table.Columns = append(table.Columns, types.Column{Name: name})
	}

	var (
		used    []types.SourceFile
		skipped []*FileError
	)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}

		rows, err := ExtractFile(file.Path, c.opts.SheetName, window)
		if err != nil {
			var fe *FileError
			if c.opts.Policy != PolicySkip || !errors.As(err, &fe) {
				return nil, nil, nil, err
			}
			logger.Warn("skipping file",
				slog.String("file", file.Name),
				slog.String("stage", fe.Stage),
				slog.String("error", fe.Err.Error()))
			skipped = append(skipped, fe)
			reportProgress(progress, i+1, len(files))
			continue
		}

		tag := file.DateTag
		for _, row := range rows {
			table.Rows = append(table.Rows, append(row, tag.Year, tag.Month, tag.Day))
		}

		file.Rows = len(rows)
		used = append(used, file)

		logger.Debug("file extracted",
			slog.String("file", file.Name),
			slog.Int("rows", len(rows)),
			slog.String("date_tag", tag.String()))

		reportProgress(progress, i+1, len(files))
	}

	if len(used) == 0 {
		errs := make([]error, 0, len(skipped)+1)
		errs = append(errs, ErrNoInput)
		for _, fe := range skipped {
			errs = append(errs, fe)
		}
		return nil, nil, skipped, errors.Join(errs...)
	}

	classify(table)
	return table, used, skipped, nil
}

func reportProgress(progress chan<- float64, done, total int) {
	if progress == nil || total == 0 {
		return
	}
	select {
	case progress <- float64(done) / float64(total):
	default:
	}
}
