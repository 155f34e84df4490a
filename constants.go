package chorus

import "time"

// Request bounds.
const (
	DefaultMinDurationSeconds = 10.0
	DefaultMaxDurationSeconds = 120.0

	// DefaultDurationSeconds is the clip length used by the adapters when
	// the caller gives none.
	DefaultDurationSeconds = 30.0
)

// Analysis defaults.
const (
	defaultAnalysisCapMinutes     = 6.0
	defaultMaxTrackMinutes        = 30.0
	defaultAnalysisSampleRate     = 22050
	defaultSimilarityThreshold    = 0.6
	defaultMinRepeatSeconds       = 5.0
	defaultSmoothingFrames        = 5
	defaultClusterToleranceFrames = 2
	defaultMaxGapFrames           = 2
	defaultJobTimeout             = 2 * time.Minute
)

// Tier parameters.
const (
	sampleRate22k = 22050
	sampleRate44k = 44100

	bitDepth16 = 16
	bitDepth24 = 24

	analysisWindow = 4096
	analysisHop    = 2048
)

const secondsPerMinute = 60.0
