package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-watch/constants"
)

// Config holds all application configuration
type Config struct {
	Watch     WatchConfig
	Ledger    LedgerConfig
	Readiness ReadinessConfig
	Extract   ExtractConfig
	Queue     QueueConfig
	Journal   JournalConfig
	Server    ServerConfig
	Log       LogConfig
}

// WatchConfig holds folder-watching configuration
type WatchConfig struct {
	Folder         string
	Extensions     []string
	WatchMode      bool
	Debounce       time.Duration
	RescanSchedule string
}

// LedgerConfig holds output ledger configuration
type LedgerConfig struct {
	OutputCSV string
}

// ReadinessConfig holds the size-polling window
type ReadinessConfig struct {
	MaxWait  time.Duration
	Interval time.Duration
}

// ExtractConfig holds text and field extraction configuration
type ExtractConfig struct {
	Engine        string
	PdftotextPath string
	MinTextLength int
}

// QueueConfig holds worker pool configuration
type QueueConfig struct {
	Workers        int
	ProcessTimeout time.Duration
	ShutdownGrace  time.Duration
}

// JournalConfig holds attempt journal configuration
type JournalConfig struct {
	DSN string
}

// ServerConfig holds optional listener addresses
type ServerConfig struct {
	HealthAddr  string
	MetricsAddr string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Text engines understood by the pdftext package.
const (
	EngineNative    = "native"
	EnginePdftotext = "pdftotext"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Watch: WatchConfig{
			Folder:     "./invoices",
			Extensions: append([]string(nil), constants.DefaultExtensions...),
			WatchMode:  true,
		},
		Ledger: LedgerConfig{
			OutputCSV: "./invoices_parsed.csv",
		},
		Readiness: ReadinessConfig{
			MaxWait:  5 * time.Second,
			Interval: 500 * time.Millisecond,
		},
		Extract: ExtractConfig{
			Engine:        EngineNative,
			PdftotextPath: "pdftotext",
			MinTextLength: constants.MinTextLength,
		},
		Queue: QueueConfig{
			Workers:        1,
			ProcessTimeout: 2 * time.Minute,
			ShutdownGrace:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// fileConfig mirrors the on-disk keys; nil means "keep the default".
type fileConfig struct {
	WatchFolder       *string  `json:"watch_folder"`
	OutputCSV         *string  `json:"output_csv"`
	FileExtensions    []string `json:"file_extensions"`
	WatchMode         *bool    `json:"watch_mode"`
	LogLevel          *string  `json:"log_level"`
	LogFormat         *string  `json:"log_format"`
	ReadinessMaxWait  *string  `json:"readiness_max_wait"`
	ReadinessInterval *string  `json:"readiness_interval"`
	MinTextLength     *int     `json:"min_text_length"`
	TextEngine        *string  `json:"text_engine"`
	PdftotextPath     *string  `json:"pdftotext_path"`
	Workers           *int     `json:"workers"`
	ProcessTimeout    *string  `json:"process_timeout"`
	ShutdownGrace     *string  `json:"shutdown_grace"`
	Debounce          *string  `json:"debounce"`
	JournalDSN        *string  `json:"journal_dsn"`
	RescanSchedule    *string  `json:"rescan_schedule"`
	HealthAddr        *string  `json:"health_addr"`
	MetricsAddr       *string  `json:"metrics_addr"`
}

// LoadConfig builds the configuration from defaults, then the config file at
// path, then environment variables (including a .env file in the working
// directory). A missing file is not an error. A malformed file, or one with
// out-of-range values, is logged and ignored as a whole, leaving defaults in
// place.
func LoadConfig(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := DefaultConfig()

	loadDotEnv(".env", logger)

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Debug("config file not found, using defaults", "path", path)
			} else {
				logger.Error("failed to load config, using defaults", "path", path, "error", err)
				cfg = DefaultConfig()
			}
		} else {
			logger.Debug("config file loaded", "path", path)
		}
	}

	cfg.applyEnv()
	return cfg
}

// LoadConfigFile applies only the file at path on top of the defaults.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string, logger *slog.Logger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		logger.Warn("failed to load .env file", "path", path, "error", err)
	}
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return NewAppError("CONFIG_ERROR", "invalid yaml", errors.Join(ErrConfig, err))
		}
	default:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return NewAppError("CONFIG_ERROR", "invalid json", errors.Join(ErrConfig, err))
		}
	}

	if err := ValidateAgainstSchema(BuildConfigJSONSchema(), doc); err != nil {
		return NewAppError("CONFIG_ERROR", "config does not match schema", errors.Join(ErrConfig, err))
	}

	// re-encode the generic document so YAML and JSON share one decoder
	b, err := json.Marshal(doc)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "re-encode config", errors.Join(ErrConfig, err))
	}
	var fc fileConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return NewAppError("CONFIG_ERROR", "decode config", errors.Join(ErrConfig, err))
	}

	next := *c
	if err := next.merge(fc); err != nil {
		return NewAppError("CONFIG_ERROR", "invalid value", errors.Join(ErrConfig, err))
	}
	// values the schema accepts can still be out of range, e.g. "0s" intervals
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Config) merge(fc fileConfig) error {
	setString(&c.Watch.Folder, fc.WatchFolder)
	setString(&c.Ledger.OutputCSV, fc.OutputCSV)
	if fc.FileExtensions != nil {
		c.Watch.Extensions = fc.FileExtensions
	}
	if fc.WatchMode != nil {
		c.Watch.WatchMode = *fc.WatchMode
	}
	setString(&c.Log.Level, fc.LogLevel)
	setString(&c.Log.Format, fc.LogFormat)
	setString(&c.Extract.Engine, fc.TextEngine)
	setString(&c.Extract.PdftotextPath, fc.PdftotextPath)
	setString(&c.Journal.DSN, fc.JournalDSN)
	setString(&c.Watch.RescanSchedule, fc.RescanSchedule)
	setString(&c.Server.HealthAddr, fc.HealthAddr)
	setString(&c.Server.MetricsAddr, fc.MetricsAddr)
	if fc.MinTextLength != nil {
		c.Extract.MinTextLength = *fc.MinTextLength
	}
	if fc.Workers != nil {
		c.Queue.Workers = *fc.Workers
	}

	durations := []struct {
		key string
		src *string
		dst *time.Duration
	}{
		{"readiness_max_wait", fc.ReadinessMaxWait, &c.Readiness.MaxWait},
		{"readiness_interval", fc.ReadinessInterval, &c.Readiness.Interval},
		{"process_timeout", fc.ProcessTimeout, &c.Queue.ProcessTimeout},
		{"shutdown_grace", fc.ShutdownGrace, &c.Queue.ShutdownGrace},
		{"debounce", fc.Debounce, &c.Watch.Debounce},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Watch.Folder = getEnv("INVOICE_WATCH_FOLDER", c.Watch.Folder)
	c.Ledger.OutputCSV = getEnv("INVOICE_OUTPUT_CSV", c.Ledger.OutputCSV)
	c.Log.Level = getEnv("INVOICE_LOG_LEVEL", c.Log.Level)
	c.Journal.DSN = getEnv("INVOICE_JOURNAL_DSN", c.Journal.DSN)
	c.Server.HealthAddr = getEnv("INVOICE_HEALTH_ADDR", c.Server.HealthAddr)
	c.Server.MetricsAddr = getEnv("INVOICE_METRICS_ADDR", c.Server.MetricsAddr)
	c.Queue.Workers = getEnvAsInt("INVOICE_WORKERS", c.Queue.Workers)
	c.Readiness.MaxWait = getEnvAsDuration("INVOICE_READINESS_MAX_WAIT", c.Readiness.MaxWait)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks semantic constraints the schema cannot express, including
// values that arrived through env vars or flags.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("watch_folder", c.Watch.Folder, Required).
		Field("output_csv", c.Ledger.OutputCSV, Required).
		Field("file_extensions", c.Watch.Extensions, Required).
		Field("log_level", c.Log.Level, OneOf("DEBUG", "INFO", "WARN", "WARNING", "ERROR", "CRITICAL")).
		Field("log_format", c.Log.Format, OneOf("text", "json")).
		Field("text_engine", c.Extract.Engine, OneOf(EngineNative, EnginePdftotext)).
		Field("readiness_max_wait", c.Readiness.MaxWait, Positive).
		Field("readiness_interval", c.Readiness.Interval, Positive).
		Field("min_text_length", c.Extract.MinTextLength, NonNegative).
		Field("workers", c.Queue.Workers, Positive).
		Field("process_timeout", c.Queue.ProcessTimeout, NonNegative).
		Field("shutdown_grace", c.Queue.ShutdownGrace, NonNegative).
		Field("debounce", c.Watch.Debounce, NonNegative)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrConfig)
	}
	return nil
}
