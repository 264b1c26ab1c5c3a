// Package config loads tally settings from a .env file, TALLY_* environment
// variables and an optional YAML file, in that order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/nconklindev/tally/internal/consolidator"
	"github.com/nconklindev/tally/internal/output"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TALLY"

type Config struct {
	Source  SourceConfig  `yaml:"source" envconfig:"SOURCE"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOG"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
}

// SourceConfig describes the input workbooks.
type SourceConfig struct {
	Prefix      string `yaml:"prefix" envconfig:"PREFIX" default:"AvanceVentasINTI"`
	Extension   string `yaml:"extension" envconfig:"EXTENSION" default:".xlsx"`
	SheetName   string `yaml:"sheet_name" envconfig:"SHEET_NAME" default:"ITEM_O"`
	ErrorPolicy string `yaml:"error_policy" envconfig:"ERROR_POLICY" default:"fail-fast"`
}

// OutputConfig describes the consolidated workbook.
type OutputConfig struct {
	FileName        string `yaml:"file_name" envconfig:"FILE_NAME" default:"Out.xlsx"`
	DataSheet       string `yaml:"data_sheet" envconfig:"DATA_SHEET" default:"Sheet1"`
	ChartsSheet     string `yaml:"charts_sheet" envconfig:"CHARTS_SHEET" default:"Charts"`
	KeepChartImages *bool  `yaml:"keep_chart_images" envconfig:"KEEP_CHART_IMAGES" default:"true"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format     string `yaml:"format" envconfig:"FORMAT" default:"text"`
	File       string `yaml:"file" envconfig:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB" default:"10"`
	MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS" default:"3"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" envconfig:"ADDR" default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"5m"`
}

// Load builds the configuration. A .env file in the working directory is
// applied first without overriding variables already set; a non-empty path
// names a YAML file whose non-zero values take precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path != "" {
		fileConfig, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs overlays the values set in the file config on the env config.
func mergeConfigs(file, env Config) Config {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&env.Source.Prefix, file.Source.Prefix)
	set(&env.Source.Extension, file.Source.Extension)
	set(&env.Source.SheetName, file.Source.SheetName)
	set(&env.Source.ErrorPolicy, file.Source.ErrorPolicy)

	set(&env.Output.FileName, file.Output.FileName)
	set(&env.Output.DataSheet, file.Output.DataSheet)
	set(&env.Output.ChartsSheet, file.Output.ChartsSheet)
	if file.Output.KeepChartImages != nil {
		env.Output.KeepChartImages = file.Output.KeepChartImages
	}

	set(&env.Logging.Level, file.Logging.Level)
	set(&env.Logging.Format, file.Logging.Format)
	set(&env.Logging.File, file.Logging.File)
	if file.Logging.MaxSizeMB != 0 {
		env.Logging.MaxSizeMB = file.Logging.MaxSizeMB
	}
	if file.Logging.MaxBackups != 0 {
		env.Logging.MaxBackups = file.Logging.MaxBackups
	}

	set(&env.Server.Addr, file.Server.Addr)
	if file.Server.ReadTimeout != 0 {
		env.Server.ReadTimeout = file.Server.ReadTimeout
	}
	if file.Server.WriteTimeout != 0 {
		env.Server.WriteTimeout = file.Server.WriteTimeout
	}

	return env
}

func (c *Config) validate() error {
	if c.Source.Prefix == "" {
		return errors.New("source prefix is required")
	}
	if c.Source.SheetName == "" {
		return errors.New("source sheet name is required")
	}
	if !strings.HasPrefix(c.Source.Extension, ".") {
		return fmt.Errorf("source extension %q must start with a dot", c.Source.Extension)
	}
	if _, err := consolidator.ParsePolicy(c.Source.ErrorPolicy); err != nil {
		return err
	}
	if c.Output.FileName == "" || c.Output.ChartsSheet == "" || c.Output.DataSheet == "" {
		return errors.New("output file name and sheet names are required")
	}
	if c.Output.DataSheet == c.Output.ChartsSheet {
		return fmt.Errorf("data sheet and charts sheet are both named %q", c.Output.DataSheet)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q must be text or json", c.Logging.Format)
	}
	return nil
}

// ConsolidatorOptions maps the source settings onto pipeline options.
func (c *Config) ConsolidatorOptions() consolidator.Options {
	policy, _ := consolidator.ParsePolicy(c.Source.ErrorPolicy)
	return consolidator.Options{
		Prefix:     c.Source.Prefix,
		Extension:  c.Source.Extension,
		SheetName:  c.Source.SheetName,
		OutputName: c.Output.FileName,
		Policy:     policy,
	}
}

// OutputOptions maps the output settings onto writer options.
func (c *Config) OutputOptions() output.Options {
	return output.Options{
		OutputName:  c.Output.FileName,
		DataSheet:   c.Output.DataSheet,
		ChartsSheet: c.Output.ChartsSheet,
		KeepImages:  c.Output.KeepImages(),
	}
}

// KeepImages reports whether chart PNGs stay on disk; unset means yes.
func (o OutputConfig) KeepImages() bool {
	return o.KeepChartImages == nil || *o.KeepChartImages
}
