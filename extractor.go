package chorus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mdobak/go-xerrors"
	"golang.org/x/sync/semaphore"
)

// Request is one extraction job.
type Request struct {
	// Audio is the encoded file.
	Audio []byte

	// FormatHint is a file extension or name used when the bytes carry no
	// recognisable signature.
	FormatHint string

	DurationSeconds float64
	Quality         QualityTier
}

// Result is an extracted chorus.
type Result struct {
	// ChorusStartSeconds is where the clip begins in the source track.
	ChorusStartSeconds float64

	// DurationSeconds is the clip length; shorter than requested only when
	// the track itself is.
	DurationSeconds float64

	// Score is the winning section's score.
	Score float64

	// Audio is a mono PCM WAV file.
	Audio []byte

	SampleRate int
	BitDepth   int
}

// Extractor runs extraction jobs on a bounded pool of worker slots.
// It is safe for concurrent use.
type Extractor struct {
	cfg    Config
	logger *slog.Logger

	slots   *semaphore.Weighted
	pending atomic.Int64

	mu     sync.RWMutex
	closed bool
	jobs   sync.WaitGroup
}

// New creates an Extractor.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		cfg:    cfg,
		logger: logger,
		slots:  semaphore.NewWeighted(int64(cfg.Workers)),
	}, nil
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Extract runs one job and blocks until it finishes, fails or times out.
// Invalid durations and quality tiers are rejected before the job is
// queued. On timeout ErrProcessingTimeout is returned at once; the job
// keeps its slot until it reaches its next cancellation checkpoint.
func (e *Extractor) Extract(ctx context.Context, req Request) (*Result, error) {
	if err := e.cfg.validateDuration(req.DurationSeconds); err != nil {
		return nil, err
	}
	spec, err := req.Quality.Spec()
	if err != nil {
		return nil, err
	}

	if !e.begin() {
		return nil, ErrClosed
	}
	if err := e.acquire(ctx); err != nil {
		e.jobs.Done()
		return nil, err
	}

	jobCtx, cancel := context.WithTimeout(ctx, e.cfg.JobTimeout)
	done := make(chan jobOutcome, 1)

	go func() {
		defer e.jobs.Done()
		defer e.slots.Release(1)
		defer cancel()
		res, err := e.runSafe(jobCtx, req, spec)
		done <- jobOutcome{res, err}
	}()

	select {
	case out := <-done:
		return out.res, e.classify(ctx, out.err)
	case <-jobCtx.Done():
		select {
		case out := <-done:
			return out.res, e.classify(ctx, out.err)
		default:
		}
		return nil, e.classify(ctx, jobCtx.Err())
	}
}

// Close rejects new jobs and waits for accepted ones to stop.
func (e *Extractor) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.jobs.Wait()
	return nil
}

// begin registers a job unless the extractor is closed.
func (e *Extractor) begin() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false
	}
	e.jobs.Add(1)
	return true
}

type jobOutcome struct {
	res *Result
	err error
}

// acquire waits for a worker slot, honouring MaxPending.
func (e *Extractor) acquire(ctx context.Context) error {
	if e.slots.TryAcquire(1) {
		return nil
	}
	if limit := int64(e.cfg.MaxPending); limit > 0 {
		if e.pending.Add(1) > limit {
			e.pending.Add(-1)
			return fmt.Errorf("%w: %d jobs already waiting", ErrPoolSaturated, limit)
		}
		defer e.pending.Add(-1)
	}
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for worker: %w", err)
	}
	return nil
}

// classify maps context errors to the extractor's outcomes. A deadline
// that belongs to the job rather than the caller becomes
// ErrProcessingTimeout.
func (e *Extractor) classify(parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if perr := parent.Err(); perr != nil {
			return fmt.Errorf("extraction aborted: %w", perr)
		}
		return fmt.Errorf("%w: exceeded %s", ErrProcessingTimeout, e.cfg.JobTimeout)
	}
	return err
}

// runSafe runs a job and turns a panic into ErrProcessing.
func (e *Extractor) runSafe(ctx context.Context, req Request, spec TierSpec) (*Result, error) {
	start := time.Now()
	res, err := protect(e.logger, func() (*Result, error) {
		return e.run(ctx, req, spec)
	})
	e.logOutcome(req, res, err, time.Since(start))
	return res, err
}

func protect(logger *slog.Logger, fn func() (*Result, error)) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("extraction panicked", slog.Any("error", xerrors.New(r)))
			res, err = nil, fmt.Errorf("%w: panic: %v", ErrProcessing, r)
		}
	}()
	return fn()
}

func (e *Extractor) logOutcome(req Request, res *Result, err error, elapsed time.Duration) {
	attrs := []any{
		slog.String("quality", req.Quality.String()),
		slog.Float64("requested_seconds", req.DurationSeconds),
		slog.Int("input_bytes", len(req.Audio)),
		slog.Duration("elapsed", elapsed),
	}
	switch {
	case err == nil:
		e.logger.Info("chorus extracted", append(attrs,
			slog.Float64("start_seconds", res.ChorusStartSeconds),
			slog.Float64("duration_seconds", res.DurationSeconds),
			slog.Float64("score", res.Score))...)
	case errors.Is(err, ErrNoChorusDetected):
		e.logger.Info("no chorus detected", attrs...)
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrCorruptAudio), errors.Is(err, ErrTrackTooLong):
		e.logger.Warn("input rejected", append(attrs, slog.String("error", err.Error()))...)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		e.logger.Warn("extraction cancelled", append(attrs, slog.String("error", err.Error()))...)
	default:
		e.logger.Error("extraction failed", append(attrs, slog.Any("error", xerrors.New(err)))...)
	}
}

var defaultExtractor = sync.OnceValues(func() (*Extractor, error) {
	return New(DefaultConfig())
})

// ExtractChorus runs one job on a shared Extractor built from
// DefaultConfig.
func ExtractChorus(ctx context.Context, audio []byte, formatHint string, durationSeconds float64, tier QualityTier) (*Result, error) {
	ex, err := defaultExtractor()
	if err != nil {
		return nil, err
	}
	return ex.Extract(ctx, Request{
		Audio:           audio,
		FormatHint:      formatHint,
		DurationSeconds: durationSeconds,
		Quality:         tier,
	})
}
