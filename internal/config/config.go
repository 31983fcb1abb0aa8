package config

// Package config handles configuration loading for bankcap.
// It supports YAML config files with environment variable overrides.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/bankcap/internal/report"
	"github.com/seenimoa/bankcap/internal/store"
)

// DefaultSourceURL is the archived listing of the largest banks by market cap.
const DefaultSourceURL = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"

// Config represents the complete application configuration.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"  yaml:"source"`
	Rates   RatesConfig   `mapstructure:"rates"   yaml:"rates"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SourceConfig holds the bank listing page settings.
type SourceConfig struct {
	URL        string `mapstructure:"url"         yaml:"url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the fetch timeout as a duration.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// RatesConfig holds the exchange-rate source.
type RatesConfig struct {
	Location string `mapstructure:"location" yaml:"location"` // file path or http(s) URL
}

// OutputConfig holds flat-file output paths.
type OutputConfig struct {
	CSVPath   string `mapstructure:"csv_path"   yaml:"csv_path"`
	XLSXPath  string `mapstructure:"xlsx_path"  yaml:"xlsx_path"` // empty disables the workbook
	XLSXSheet string `mapstructure:"xlsx_sheet" yaml:"xlsx_sheet"`
}

// StoreConfig holds the relational store settings.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn"    yaml:"dsn"`
	Table  string `mapstructure:"table"  yaml:"table"`
}

// ReportConfig holds reporter settings.
type ReportConfig struct {
	Format  string   `mapstructure:"format"  yaml:"format"`  // "text", "json" or "html"
	Queries []string `mapstructure:"queries" yaml:"queries"` // empty means the default three
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level        string `mapstructure:"level"         yaml:"level"`  // "debug", "info", "warn", "error"
	Format       string `mapstructure:"format"        yaml:"format"` // "text" or "json"
	ProgressPath string `mapstructure:"progress_path" yaml:"progress_path"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/bankcap.yaml (project root)
//  2. ~/.bankcap/bankcap.yaml (home directory)
//  3. /etc/bankcap/bankcap.yaml (system)
//
// A .env file in the working directory is loaded first if present.
// Environment variables override config file values.
// Format: BANKCAP_<SECTION>_<KEY>, e.g., BANKCAP_STORE_TABLE
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("bankcap")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".bankcap"))
	v.AddConfigPath("/etc/bankcap")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newDefaultsViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func newViper() *viper.Viper {
	v := newDefaultsViper()
	v.SetEnvPrefix("BANKCAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", DefaultSourceURL)
	v.SetDefault("source.timeout_sec", 30)

	v.SetDefault("rates.location", "exchange_rate.csv")

	v.SetDefault("output.csv_path", "largest_banks_data.csv")
	v.SetDefault("output.xlsx_path", "")
	v.SetDefault("output.xlsx_sheet", "Largest_banks")

	v.SetDefault("store.driver", store.DefaultDriver)
	v.SetDefault("store.dsn", "Banks.db")
	v.SetDefault("store.table", "Largest_banks")

	v.SetDefault("report.format", "text")
	v.SetDefault("report.queries", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.progress_path", "code_log.txt")
}

// Validate checks that every required value is present and well formed.
func (c *Config) Validate() error {
	var errs []error
	if c.Source.URL == "" {
		errs = append(errs, errors.New("source.url is required"))
	}
	if c.Rates.Location == "" {
		errs = append(errs, errors.New("rates.location is required"))
	}
	if c.Output.CSVPath == "" {
		errs = append(errs, errors.New("output.csv_path is required"))
	}
	if c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is required"))
	}
	if err := store.ValidateTableName(c.Store.Table); err != nil {
		errs = append(errs, fmt.Errorf("store.table: %w", err))
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		errs = append(errs, fmt.Errorf("report.format: %w", err))
	}
	if c.Logging.ProgressPath == "" {
		errs = append(errs, errors.New("logging.progress_path is required"))
	}
	return errors.Join(errs...)
}

// loadDotEnv loads ./.env into the process environment; a missing file is ignored.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
