// Package chroma computes 12-bin pitch-class profiles from mono audio.
//
// Each analysis frame is Hann-windowed and transformed with a real FFT; the
// power of every bin inside the analysis band is added to the pitch class
// nearest its centre frequency. Frames are L2-normalized so the profile
// describes harmony independently of loudness; loudness is kept separately
// as per-frame RMS energy.
package chroma

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/tphakala/go-chorus/internal/filter"
	"github.com/tphakala/go-chorus/internal/mathutil"
	"github.com/tphakala/go-chorus/internal/simdops"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Bins is the number of pitch classes per frame.
const Bins = mathutil.SemitonesPerOctave

// Frame is one L2-normalized chroma vector, index 0 = C. A silent frame is
// all zeros.
type Frame [Bins]float64

// Sequence is the ordered chroma of a track.
type Sequence struct {
	Frames []Frame

	// Energy holds the RMS of each frame's raw samples.
	Energy []float64

	// HopSeconds is the time between frame starts; frame i starts at
	// i * HopSeconds.
	HopSeconds    float64
	WindowSeconds float64
}

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.Frames) }

// ErrInvalidConfig is returned for unusable analysis parameters.
var ErrInvalidConfig = errors.New("invalid chroma config")

// Config controls the analysis.
type Config struct {
	SampleRate int
	WindowSize int
	HopSize    int

	// ReferenceHz tunes A4; 0 selects 440 Hz.
	ReferenceHz float64

	// MinFreq and MaxFreq bound the folded band; 0 selects the defaults.
	MinFreq float64
	MaxFreq float64

	// Parallelism caps the number of frame workers; 0 selects NumCPU.
	Parallelism int
}

// Validate checks the configuration, filling defaults for zero fields.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.WindowSize < minWindowSize {
		return fmt.Errorf("%w: window size %d (minimum %d)", ErrInvalidConfig, c.WindowSize, minWindowSize)
	}
	if c.HopSize <= 0 {
		return fmt.Errorf("%w: hop size %d", ErrInvalidConfig, c.HopSize)
	}
	if c.ReferenceHz == 0 {
		c.ReferenceHz = mathutil.DefaultReferenceHz
	}
	if c.MinFreq == 0 {
		c.MinFreq = defaultMinFreq
	}
	if c.MaxFreq == 0 {
		c.MaxFreq = defaultMaxFreq
	}
	if c.MinFreq < 0 || c.MaxFreq <= c.MinFreq {
		return fmt.Errorf("%w: band %.1f-%.1f Hz", ErrInvalidConfig, c.MinFreq, c.MaxFreq)
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	return nil
}

// FrameCount returns the number of frames Extract produces for n samples:
// ceil((n-w)/h)+1 when n ≥ w, one zero-padded frame when 0 < n < w, and
// zero for empty input.
func FrameCount(n, window, hop int) int {
	switch {
	case n <= 0 || window <= 0 || hop <= 0:
		return 0
	case n < window:
		return 1
	default:
		return (n-window+hop-1)/hop + 1
	}
}

// Extract computes the chroma sequence of samples. The result is identical
// for any Parallelism.
func Extract(ctx context.Context, samples []float64, cfg Config) (*Sequence, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := FrameCount(len(samples), cfg.WindowSize, cfg.HopSize)
	seq := &Sequence{
		Frames:        make([]Frame, n),
		Energy:        make([]float64, n),
		HopSeconds:    float64(cfg.HopSize) / float64(cfg.SampleRate),
		WindowSeconds: float64(cfg.WindowSize) / float64(cfg.SampleRate),
	}
	if n == 0 {
		return seq, nil
	}

	a := newAnalyzer(cfg)
	workers := min(cfg.Parallelism, n)
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			w := a.newWorker()
			for i := lo; i < hi; i++ {
				if (i-lo)%ctxCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				seq.Energy[i] = w.frame(samples, i*cfg.HopSize, &seq.Frames[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return seq, nil
}

// analyzer holds the read-only tables shared by all workers.
type analyzer struct {
	window  []float64
	binToPC []int // -1 outside the band
	size    int
}

func newAnalyzer(cfg Config) *analyzer {
	size := cfg.WindowSize
	bins := size/halfDivisor + 1
	binToPC := make([]int, bins)
	for k := range binToPC {
		freq := float64(k) * float64(cfg.SampleRate) / float64(size)
		if freq < cfg.MinFreq || freq > cfg.MaxFreq {
			binToPC[k] = -1
			continue
		}
		binToPC[k] = mathutil.PitchClass(freq, cfg.ReferenceHz)
	}
	return &analyzer{
		window:  filter.HannWindow(size),
		binToPC: binToPC,
		size:    size,
	}
}

// worker owns an FFT plan and scratch buffers; gonum FFT values are not
// safe for concurrent use.
type worker struct {
	*analyzer
	fft    *fourier.FFT
	buf    []float64
	coeffs []complex128
}

func (a *analyzer) newWorker() *worker {
	return &worker{
		analyzer: a,
		fft:      fourier.NewFFT(a.size),
		buf:      make([]float64, a.size),
		coeffs:   make([]complex128, len(a.binToPC)),
	}
}

// frame fills out with the chroma of the window starting at start and
// returns its RMS. Samples past the end are treated as zeros.
func (w *worker) frame(samples []float64, start int, out *Frame) float64 {
	clear(w.buf)
	copy(w.buf, samples[start:min(start+w.size, len(samples))])

	energy := math.Sqrt(simdops.For[float64]().DotProduct(w.buf, w.buf) / float64(w.size))

	for i, v := range w.window {
		w.buf[i] *= v
	}
	w.coeffs = w.fft.Coefficients(w.coeffs, w.buf)

	*out = Frame{}
	for k, c := range w.coeffs {
		pc := w.binToPC[k]
		if pc < 0 {
			continue
		}
		out[pc] += real(c)*real(c) + imag(c)*imag(c)
	}
	simdops.For[float64]().Normalize(out[:], silenceNorm)
	return energy
}
