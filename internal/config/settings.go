package config

import (
	"os"
	"strings"
)

// SettingSource represents where an effective setting comes from.
type SettingSource string

const (
	SourceEnv     SettingSource = "env"
	SourceFile    SettingSource = "config"
	SourceDefault SettingSource = "default"
)

// Setting describes one effective configuration value.
type Setting struct {
	Key    string        `json:"key"`
	Value  string        `json:"value"`
	Source SettingSource `json:"source"`
}

// Describe returns the effective settings in display order. defaults is the
// configuration with no file or environment applied; values equal to it are
// reported as defaults. Store DSNs are masked.
func Describe(cfg, defaults *Config) []Setting {
	return []Setting{
		describe("source.url", cfg.Source.URL, defaults.Source.URL),
		describe("rates.location", cfg.Rates.Location, defaults.Rates.Location),
		describe("output.csv_path", cfg.Output.CSVPath, defaults.Output.CSVPath),
		describe("output.xlsx_path", cfg.Output.XLSXPath, defaults.Output.XLSXPath),
		describe("store.driver", cfg.Store.Driver, defaults.Store.Driver),
		maskSetting(describe("store.dsn", cfg.Store.DSN, defaults.Store.DSN)),
		describe("store.table", cfg.Store.Table, defaults.Store.Table),
		describe("report.format", cfg.Report.Format, defaults.Report.Format),
		describe("logging.level", cfg.Logging.Level, defaults.Logging.Level),
		describe("logging.progress_path", cfg.Logging.ProgressPath, defaults.Logging.ProgressPath),
	}
}

// Defaults returns the configuration produced by defaults alone.
func Defaults() *Config {
	cfg, err := unmarshal(newDefaultsViper())
	if err != nil {
		return &Config{}
	}
	return cfg
}

// describe resolves the source of a single setting.
func describe(key, value, def string) Setting {
	s := Setting{Key: key, Value: value}

	switch {
	case os.Getenv(envVar(key)) != "":
		s.Source = SourceEnv
	case value == def:
		s.Source = SourceDefault
	default:
		s.Source = SourceFile
	}
	return s
}

// envVar returns the environment variable that overrides key.
func envVar(key string) string {
	return "BANKCAP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// maskSetting hides credentials embedded in a DSN, e.g. "user:secret@host".
func maskSetting(s Setting) Setting {
	at := strings.LastIndex(s.Value, "@")
	if at < 0 {
		return s
	}
	start := 0
	if i := strings.Index(s.Value, "://"); i >= 0 && i < at {
		start = i + len("://")
	}
	creds := s.Value[start:at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		s.Value = s.Value[:start] + creds[:colon+1] + "***" + s.Value[at:]
	}
	return s
}
