package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nconklindev/tally/internal/consolidator"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tally.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Prefix != "AvanceVentasINTI" || cfg.Source.SheetName != "ITEM_O" || cfg.Source.Extension != ".xlsx" {
		t.Errorf("source defaults = %+v", cfg.Source)
	}
	if cfg.Output.FileName != "Out.xlsx" || cfg.Output.ChartsSheet != "Charts" || !cfg.Output.KeepImages() {
		t.Errorf("output defaults = %+v", cfg.Output)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("server defaults = %+v", cfg.Server)
	}

	opts := cfg.ConsolidatorOptions()
	if opts != consolidator.DefaultOptions() {
		t.Errorf("ConsolidatorOptions() = %+v; want %+v", opts, consolidator.DefaultOptions())
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TALLY_SOURCE_SHEET_NAME", "ITEM_X")
	t.Setenv("TALLY_SOURCE_ERROR_POLICY", "skip")
	t.Setenv("TALLY_OUTPUT_KEEP_CHART_IMAGES", "false")
	t.Setenv("TALLY_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source.SheetName != "ITEM_X" {
		t.Errorf("SheetName = %s", cfg.Source.SheetName)
	}
	if cfg.ConsolidatorOptions().Policy != consolidator.PolicySkip {
		t.Errorf("Policy = %s", cfg.ConsolidatorOptions().Policy)
	}
	if cfg.OutputOptions().KeepImages {
		t.Error("KeepImages should be false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %s", cfg.Logging.Level)
	}
}

func TestLoad_FileOverridesEnv(t *testing.T) {
	t.Setenv("TALLY_SOURCE_PREFIX", "FromEnv")
	t.Setenv("TALLY_SERVER_ADDR", ":9000")

	path := writeFile(t, `
source:
  prefix: FromFile
output:
  file_name: Consolidado.xlsx
server:
  write_timeout: 1m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source.Prefix != "FromFile" {
		t.Errorf("Prefix = %s; want FromFile", cfg.Source.Prefix)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %s; want env value", cfg.Server.Addr)
	}
	if cfg.Server.WriteTimeout != time.Minute {
		t.Errorf("WriteTimeout = %s", cfg.Server.WriteTimeout)
	}
	if cfg.Output.FileName != "Consolidado.xlsx" || !cfg.Output.KeepImages() {
		t.Errorf("Output = %+v", cfg.Output)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"Unknown policy", "source:\n  error_policy: retry\n", "invalid error policy"},
		{"Extension without dot", "source:\n  extension: xlsx\n", "must start with a dot"},
		{"Same sheet names", "output:\n  data_sheet: Charts\n", "both named"},
		{"Bad log format", "logging:\n  format: xml\n", "must be text or json"},
		{"Unknown key", "sources:\n  prefix: x\n", "failed to load config from file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v; want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with a missing file should fail")
	}
}
