package main

import "time"

// Environment defaults.
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 8000
	defaultOutputDir      = "outputs"
	defaultMaxFileSize    = 50 << 20
	defaultRetentionHours = 24
	defaultCORSOrigins    = "*"
	defaultLogLevel       = "info"
	defaultLedgerName     = "ledger.db"
)

// Service constants.
const (
	serviceVersion = "1.0.0"

	sweepInterval     = 10 * time.Minute
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second

	// multipartMemory is how much of an upload is held in memory before
	// spilling to temp files.
	multipartMemory = 32 << 20

	// multipartOverhead allows for form fields and boundaries on top of
	// the file itself.
	multipartOverhead = 1 << 20

	outputSuffix  = "_chorus.wav"
	outputPerm    = 0o644
	outputDirPerm = 0o755

	bytesPerMB = 1 << 20
)

// CLI defaults.
const (
	defaultQuality = "high"
	minArgs        = 2
)
