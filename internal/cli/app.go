package cli

import (
	"io"
	"log/slog"

	"github.com/nconklindev/tally/internal/config"
	"github.com/nconklindev/tally/internal/consolidator"
	"github.com/nconklindev/tally/internal/logging"
	"github.com/nconklindev/tally/internal/output"
)

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

// setup loads configuration and builds the logger. Console may be nil to
// log to the configured file only.
func setup(configPath string, console io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, closer := logging.New(cfg.Logging, console)
	return &app{cfg: cfg, logger: logger, closer: closer}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

// consolidator returns a pipeline that writes the workbook and charts.
func (a *app) consolidator() *consolidator.Consolidator {
	writer := output.NewWriter(a.cfg.OutputOptions(), output.NewGoChartRenderer(), a.logger)
	return consolidator.New(a.cfg.ConsolidatorOptions(), writer, a.logger)
}
