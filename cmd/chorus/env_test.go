package main

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServiceConfig_Defaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "OUTPUT_DIR", "MAX_FILE_SIZE", "FILE_RETENTION_HOURS",
		"MIN_DURATION", "MAX_DURATION", "DEFAULT_DURATION", "CORS_ORIGINS", "LOG_LEVEL",
		"WORKERS", "JOB_TIMEOUT", "LEDGER_PATH"} {
		t.Setenv(key, "")
	}

	cfg, err := loadServiceConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.validate())

	assert.Equal(t, "0.0.0.0:8000", cfg.addr())
	assert.Equal(t, "outputs", cfg.OutputDir)
	assert.Equal(t, filepath.Join("outputs", "ledger.db"), cfg.LedgerPath)
	assert.Equal(t, int64(50<<20), cfg.MaxFileSize)
	assert.Equal(t, 24*time.Hour, cfg.retention())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.InDelta(t, 30.0, cfg.DefaultDuration, 0)
	assert.Equal(t, 2*time.Minute, cfg.JobTimeout)
}

func TestLoadServiceConfig_FromEnv(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("OUTPUT_DIR", "/tmp/clips")
	t.Setenv("LEDGER_PATH", "")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("FILE_RETENTION_HOURS", "2")
	t.Setenv("MIN_DURATION", "15")
	t.Setenv("MAX_DURATION", "60")
	t.Setenv("DEFAULT_DURATION", "20")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WORKERS", "3")
	t.Setenv("JOB_TIMEOUT", "45")

	cfg, err := loadServiceConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.validate())

	assert.Equal(t, "127.0.0.1:9090", cfg.addr())
	assert.Equal(t, filepath.Join("/tmp/clips", "ledger.db"), cfg.LedgerPath)
	assert.Equal(t, int64(1<<20), cfg.MaxFileSize)
	assert.Equal(t, 2*time.Hour, cfg.retention())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.JobTimeout)

	lib := cfg.extractorConfig(slog.Default())
	require.NoError(t, lib.Validate())
	assert.InDelta(t, 15.0, lib.MinDurationSeconds, 0)
	assert.InDelta(t, 60.0, lib.MaxDurationSeconds, 0)
	assert.Equal(t, 3, lib.Workers)
}

func TestServiceConfig_SetOutputDir(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/srv/env-clips")
	t.Setenv("LEDGER_PATH", "")

	cfg, err := loadServiceConfig()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/srv/env-clips", "ledger.db"), cfg.LedgerPath)

	cfg.setOutputDir("/srv/flag-clips")
	assert.Equal(t, "/srv/flag-clips", cfg.OutputDir)
	assert.Equal(t, filepath.Join("/srv/flag-clips", "ledger.db"), cfg.LedgerPath, "ledger follows the directory")

	t.Setenv("LEDGER_PATH", "/var/lib/chorus/ledger.db")
	cfg.setOutputDir("/srv/other")
	assert.Equal(t, "/var/lib/chorus/ledger.db", cfg.LedgerPath, "explicit ledger path wins")
}

func TestServeConfig_Flags(t *testing.T) {
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("OUTPUT_DIR", "/srv/env-clips")
	t.Setenv("LEDGER_PATH", "")

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("output-dir", "/srv/flag-clips"))
	require.NoError(t, cmd.Flags().Set("port", "9191"))

	cfg, err := serveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9191", cfg.addr())
	assert.Equal(t, "/srv/flag-clips", cfg.OutputDir)
	assert.Equal(t, filepath.Join("/srv/flag-clips", "ledger.db"), cfg.LedgerPath)

	// Unset flags leave the environment alone.
	cfg, err = serveConfig(newServeCmd())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/env-clips", "ledger.db"), cfg.LedgerPath)

	bad := newServeCmd()
	require.NoError(t, bad.Flags().Set("port", "0"))
	_, err = serveConfig(bad)
	require.Error(t, err)
}

func TestLoadServiceConfig_BadValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("JOB_TIMEOUT", "soon")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := loadServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port, "unparsable values fall back")
	assert.Equal(t, 2*time.Minute, cfg.JobTimeout)

	t.Setenv("LOG_LEVEL", "chatty")
	_, err = loadServiceConfig()
	require.Error(t, err)
}

func TestServiceConfig_Validate(t *testing.T) {
	base := func() serviceConfig {
		return serviceConfig{Port: 8000, MaxFileSize: 1, RetentionHours: 1,
			MinDuration: 10, MaxDuration: 120, DefaultDuration: 30}
	}
	valid := base()
	require.NoError(t, valid.validate())

	tests := []struct {
		name   string
		mutate func(*serviceConfig)
	}{
		{"port zero", func(c *serviceConfig) { c.Port = 0 }},
		{"port too big", func(c *serviceConfig) { c.Port = 70000 }},
		{"no size", func(c *serviceConfig) { c.MaxFileSize = 0 }},
		{"no retention", func(c *serviceConfig) { c.RetentionHours = 0 }},
		{"default below min", func(c *serviceConfig) { c.DefaultDuration = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			assert.Error(t, c.validate())
		})
	}
}
