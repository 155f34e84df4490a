package chorus

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/tphakala/go-chorus/internal/cluster"
	"github.com/tphakala/go-chorus/internal/similarity"
)

// ScoreWeights are the exponents applied to the four factors of a section
// score: occurrence count, mean similarity, log(1 + total length) and mean
// energy. The default weighs all four equally.
type ScoreWeights struct {
	Occurrence float64
	Similarity float64
	Length     float64
	Energy     float64
}

func (w ScoreWeights) internal() cluster.Weights {
	return cluster.Weights{
		Occurrence: w.Occurrence,
		Similarity: w.Similarity,
		Length:     w.Length,
		Energy:     w.Energy,
	}
}

// Config holds extractor configuration.
type Config struct {
	// MinDurationSeconds and MaxDurationSeconds bound the requested clip
	// length. A selected window shorter than the minimum is rejected.
	MinDurationSeconds float64
	MaxDurationSeconds float64

	// AnalysisCapMinutes limits how much of the track is analysed; longer
	// tracks are analysed on their opening minutes only.
	AnalysisCapMinutes float64

	// MaxTrackMinutes rejects longer tracks with ErrTrackTooLong.
	MaxTrackMinutes float64

	// AnalysisSampleRate is the rate the chroma analysis runs at.
	AnalysisSampleRate int

	// SimilarityThreshold is the smoothed similarity a diagonal cell must
	// exceed to count as repeated.
	SimilarityThreshold float64

	// MinTonality is the chroma peakedness below which a frame is treated
	// as broadband and matches nothing. 0 compares every non-silent frame.
	MinTonality float64

	// MinRepeatSeconds is the shortest repeat considered.
	MinRepeatSeconds float64

	// SmoothingFrames is the diagonal moving-average length.
	SmoothingFrames int

	// ClusterToleranceFrames is the gap below which two repeat intervals
	// are treated as the same passage.
	ClusterToleranceFrames int

	// MaxGapFrames is the largest dip bridged within one repeat.
	MaxGapFrames int

	Weights ScoreWeights

	// Workers is the number of jobs run concurrently.
	Workers int

	// Parallelism is the number of goroutines one job may use for chroma
	// frames and matrix rows.
	Parallelism int

	// JobTimeout bounds a single job once it holds a worker slot.
	JobTimeout time.Duration

	// MaxPending bounds the number of callers waiting for a slot; 0 means
	// unbounded. Beyond it Extract fails with ErrPoolSaturated.
	MaxPending int

	// Logger receives job and stage logs; nil selects slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MinDurationSeconds:     DefaultMinDurationSeconds,
		MaxDurationSeconds:     DefaultMaxDurationSeconds,
		AnalysisCapMinutes:     defaultAnalysisCapMinutes,
		MaxTrackMinutes:        defaultMaxTrackMinutes,
		AnalysisSampleRate:     defaultAnalysisSampleRate,
		SimilarityThreshold:    defaultSimilarityThreshold,
		MinTonality:            similarity.DefaultMinTonality,
		MinRepeatSeconds:       defaultMinRepeatSeconds,
		SmoothingFrames:        defaultSmoothingFrames,
		ClusterToleranceFrames: defaultClusterToleranceFrames,
		MaxGapFrames:           defaultMaxGapFrames,
		Weights:                ScoreWeights{Occurrence: 1, Similarity: 1, Length: 1, Energy: 1},
		Workers:                runtime.NumCPU(),
		Parallelism:            runtime.NumCPU(),
		JobTimeout:             defaultJobTimeout,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MinDurationSeconds <= 0 {
		return fmt.Errorf("%w: minimum duration must be positive", ErrInvalidConfig)
	}
	if c.MaxDurationSeconds < c.MinDurationSeconds {
		return fmt.Errorf("%w: maximum duration %.1fs below minimum %.1fs",
			ErrInvalidConfig, c.MaxDurationSeconds, c.MinDurationSeconds)
	}
	if c.AnalysisCapMinutes <= 0 || c.MaxTrackMinutes <= 0 {
		return fmt.Errorf("%w: analysis cap and track limit must be positive", ErrInvalidConfig)
	}
	if c.AnalysisSampleRate <= 0 {
		return fmt.Errorf("%w: analysis sample rate must be positive", ErrInvalidConfig)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold >= 1 {
		return fmt.Errorf("%w: similarity threshold must be in [0, 1)", ErrInvalidConfig)
	}
	if c.MinTonality < 0 || c.MinTonality >= 1 {
		return fmt.Errorf("%w: minimum tonality must be in [0, 1)", ErrInvalidConfig)
	}
	if c.MinRepeatSeconds <= 0 {
		return fmt.Errorf("%w: minimum repeat must be positive", ErrInvalidConfig)
	}
	if c.SmoothingFrames < 0 || c.ClusterToleranceFrames < 0 || c.MaxGapFrames < 0 {
		return fmt.Errorf("%w: frame counts must not be negative", ErrInvalidConfig)
	}
	w := c.Weights
	for _, v := range []float64{w.Occurrence, w.Similarity, w.Length, w.Energy} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: score weights must be finite and non-negative", ErrInvalidConfig)
		}
	}
	if c.Workers < 1 || c.Parallelism < 1 {
		return fmt.Errorf("%w: workers and parallelism must be at least 1", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxPending < 0 {
		return fmt.Errorf("%w: max pending must not be negative", ErrInvalidConfig)
	}
	return nil
}

// validateDuration checks a requested clip length against the bounds.
func (c *Config) validateDuration(seconds float64) error {
	if math.IsNaN(seconds) || seconds < c.MinDurationSeconds || seconds > c.MaxDurationSeconds {
		return fmt.Errorf("%w: %.2fs (must be %.0f-%.0fs)",
			ErrInvalidDuration, seconds, c.MinDurationSeconds, c.MaxDurationSeconds)
	}
	return nil
}
