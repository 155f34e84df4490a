package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	chorus "github.com/tphakala/go-chorus"
)

// serviceConfig holds the HTTP service settings.
type serviceConfig struct {
	Host           string
	Port           int
	OutputDir      string
	LedgerPath     string
	MaxFileSize    int64
	RetentionHours int
	CORSOrigins    []string
	LogLevel       slog.Level

	MinDuration     float64
	MaxDuration     float64
	DefaultDuration float64

	Workers    int
	JobTimeout time.Duration
}

// loadServiceConfig reads the service settings from the environment.
func loadServiceConfig() (serviceConfig, error) {
	lib := chorus.DefaultConfig()
	cfg := serviceConfig{
		Host:            getEnv("HOST", defaultHost),
		Port:            getEnvInt("PORT", defaultPort),
		OutputDir:       getEnv("OUTPUT_DIR", defaultOutputDir),
		MaxFileSize:     int64(getEnvInt("MAX_FILE_SIZE", defaultMaxFileSize)),
		RetentionHours:  getEnvInt("FILE_RETENTION_HOURS", defaultRetentionHours),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", defaultCORSOrigins)),
		MinDuration:     getEnvFloat("MIN_DURATION", chorus.DefaultMinDurationSeconds),
		MaxDuration:     getEnvFloat("MAX_DURATION", chorus.DefaultMaxDurationSeconds),
		DefaultDuration: getEnvFloat("DEFAULT_DURATION", chorus.DefaultDurationSeconds),
		Workers:         getEnvInt("WORKERS", lib.Workers),
		JobTimeout:      getEnvDuration("JOB_TIMEOUT", lib.JobTimeout),
	}
	cfg.setOutputDir(cfg.OutputDir)

	level, err := parseLevel(getEnv("LOG_LEVEL", defaultLogLevel))
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = level
	return cfg, nil
}

// setOutputDir moves the output directory. The ledger follows it unless
// LEDGER_PATH names one explicitly.
func (c *serviceConfig) setOutputDir(dir string) {
	c.OutputDir = dir
	c.LedgerPath = getEnv("LEDGER_PATH", filepath.Join(dir, defaultLedgerName))
}

func (c *serviceConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("invalid max file size %d", c.MaxFileSize)
	}
	if c.RetentionHours <= 0 {
		return fmt.Errorf("invalid file retention %dh", c.RetentionHours)
	}
	if c.DefaultDuration < c.MinDuration || c.DefaultDuration > c.MaxDuration {
		return fmt.Errorf("default duration %.0fs outside %.0f-%.0fs",
			c.DefaultDuration, c.MinDuration, c.MaxDuration)
	}
	return nil
}

// extractorConfig derives the library configuration.
func (c *serviceConfig) extractorConfig(logger *slog.Logger) chorus.Config {
	cfg := chorus.DefaultConfig()
	cfg.MinDurationSeconds = c.MinDuration
	cfg.MaxDurationSeconds = c.MaxDuration
	cfg.Workers = c.Workers
	cfg.JobTimeout = c.JobTimeout
	cfg.Logger = logger
	return cfg
}

func (c *serviceConfig) retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

func (c *serviceConfig) addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(val); err == nil {
		return parsed
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	if parsed, err := strconv.ParseFloat(val, 64); err == nil {
		return parsed
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(val, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
