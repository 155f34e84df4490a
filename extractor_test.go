package chorus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-chorus/internal/testutil"
)

var garbage = []byte("this is definitely not an audio file")

func newTestExtractor(t *testing.T, mutate func(*Config)) *Extractor {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.DiscardHandler)
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestExtract_RejectsDurationBeforeDecoding(t *testing.T) {
	e := newTestExtractor(t, nil)

	for _, d := range []float64{0, 9.5, 120.5, -30} {
		_, err := e.Extract(t.Context(), Request{Audio: garbage, DurationSeconds: d})
		require.ErrorIs(t, err, ErrInvalidDuration, "duration %v", d)
		assert.NotErrorIs(t, err, ErrUnsupportedFormat)
	}
}

func TestExtract_RejectsUnknownQuality(t *testing.T) {
	e := newTestExtractor(t, nil)

	_, err := e.Extract(t.Context(), Request{Audio: garbage, DurationSeconds: 30, Quality: QualityTier(9)})
	require.ErrorIs(t, err, ErrInvalidQuality)
}

func TestExtract_InputErrors(t *testing.T) {
	e := newTestExtractor(t, nil)
	wavData := testutil.WAVBytes(t, 22050, 16, testutil.Tone(440, 0.5, 1, 22050))

	tests := []struct {
		name  string
		audio []byte
		hint  string
		want  error
	}{
		{"garbage", garbage, "", ErrUnsupportedFormat},
		{"ogg signature", append([]byte("OggS"), make([]byte, 64)...), "", ErrUnsupportedFormat},
		{"m4a hint", garbage, "song.m4a", ErrUnsupportedFormat},
		{"wav header without samples", wavData[:44], "wav", ErrCorruptAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(t.Context(), Request{Audio: tt.audio, FormatHint: tt.hint, DurationSeconds: 30})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtract_TrackTooLong(t *testing.T) {
	e := newTestExtractor(t, func(c *Config) { c.MaxTrackMinutes = 0.1 })
	data := testutil.WAVBytes(t, 8000, 16, testutil.Noise(1, 0.2, 7, 8000))

	_, err := e.Extract(t.Context(), Request{Audio: data, DurationSeconds: 10})
	require.ErrorIs(t, err, ErrTrackTooLong)
}

func TestExtract_JobTimeout(t *testing.T) {
	e := newTestExtractor(t, func(c *Config) { c.JobTimeout = time.Nanosecond })
	track, _ := testutil.MotifTrack(3, 40, []float64{5, 25}, 22050)
	data := testutil.WAVBytes(t, 22050, 16, track)

	_, err := e.Extract(t.Context(), Request{Audio: data, DurationSeconds: 10})
	require.ErrorIs(t, err, ErrProcessingTimeout)
}

func TestExtract_CallerCancellationIsNotTimeout(t *testing.T) {
	e := newTestExtractor(t, nil)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := e.Extract(ctx, Request{Audio: garbage, DurationSeconds: 30})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrProcessingTimeout)
}

func TestExtract_PoolSaturation(t *testing.T) {
	e := newTestExtractor(t, func(c *Config) {
		c.Workers = 1
		c.MaxPending = 1
	})

	// Occupy the only slot so the next caller has to wait.
	require.True(t, e.slots.TryAcquire(1))

	var (
		wg         sync.WaitGroup
		waitingErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, waitingErr = e.Extract(context.Background(), Request{Audio: garbage, DurationSeconds: 30})
	}()

	require.Eventually(t, func() bool { return e.pending.Load() == 1 },
		5*time.Second, time.Millisecond, "second caller never queued")

	_, err := e.Extract(t.Context(), Request{Audio: garbage, DurationSeconds: 30})
	require.ErrorIs(t, err, ErrPoolSaturated)

	e.slots.Release(1)
	wg.Wait()
	require.ErrorIs(t, waitingErr, ErrUnsupportedFormat, "queued job runs once the slot frees")
	assert.Zero(t, e.pending.Load())
}

func TestExtract_WaitingCallerCanCancel(t *testing.T) {
	e := newTestExtractor(t, func(c *Config) { c.Workers = 1 })
	require.True(t, e.slots.TryAcquire(1))
	defer e.slots.Release(1)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Extract(ctx, Request{Audio: garbage, DurationSeconds: 30})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrProcessingTimeout)
}

func TestExtract_AfterClose(t *testing.T) {
	e := newTestExtractor(t, nil)
	require.NoError(t, e.Close())

	_, err := e.Extract(t.Context(), Request{Audio: garbage, DurationSeconds: 30})
	require.ErrorIs(t, err, ErrClosed)
}

func TestExtract_ConcurrentJobs(t *testing.T) {
	e := newTestExtractor(t, func(c *Config) { c.Workers = 2 })

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.Extract(context.Background(), Request{Audio: garbage, DurationSeconds: 30})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	}
}

func TestClassify(t *testing.T) {
	e := newTestExtractor(t, func(c *Config) { c.JobTimeout = time.Second })
	cancelled, cancel := context.WithCancel(t.Context())
	cancel()

	tests := []struct {
		name   string
		parent context.Context
		err    error
		want   error
	}{
		{"nil", t.Context(), nil, nil},
		{"job deadline", t.Context(), context.DeadlineExceeded, ErrProcessingTimeout},
		{"wrapped job deadline", t.Context(), errors.Join(errors.New("chroma"), context.DeadlineExceeded), ErrProcessingTimeout},
		{"caller cancelled", cancelled, context.Canceled, context.Canceled},
		{"other error passes", t.Context(), ErrNoChorusDetected, ErrNoChorusDetected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.classify(tt.parent, tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestProtect_RecoversPanic(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	res, err := protect(logger, func() (*Result, error) {
		var m map[string]int
		m["boom"]++
		return &Result{}, nil
	})
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrProcessing)
	assert.Contains(t, err.Error(), "panic")

	res, err = protect(logger, func() (*Result, error) { return &Result{Score: 2}, nil })
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.Score, 0)
}
