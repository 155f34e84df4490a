// Package encode cuts a time window out of a decoded track and renders it as
// a mono PCM WAV file at a requested rate and depth.
package encode

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/go-chorus/internal/decode"
	"github.com/tphakala/go-chorus/internal/resample"
)

// Errors returned by Clip.
var (
	// ErrOutOfBounds reports a window starting outside the track.
	ErrOutOfBounds = errors.New("clip window out of bounds")

	// ErrProcessing reports an inconsistent slice or encoder failure.
	ErrProcessing = errors.New("clip processing failed")
)

// Options describes the output format.
type Options struct {
	SampleRate int

	// BitDepth is 16 or 24.
	BitDepth int

	// MinSeconds is the shortest clip accepted after clamping to the
	// track end.
	MinSeconds float64
}

// Result is an encoded clip.
type Result struct {
	// Audio is a complete WAV file.
	Audio []byte

	SampleRate int
	BitDepth   int

	// Samples is the number of output frames.
	Samples int

	// StartSeconds and DurationSeconds locate the clip in the source after
	// clamping.
	StartSeconds    float64
	DurationSeconds float64
}

// Clip extracts durationSeconds of audio starting at startSeconds. A window
// running past the track end is shortened to fit.
func Clip(track *decode.Track, startSeconds, durationSeconds float64, opts Options) (*Result, error) {
	if opts.BitDepth != bitDepth16 && opts.BitDepth != bitDepth24 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrProcessing, opts.BitDepth)
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrProcessing, opts.SampleRate)
	}

	rate := float64(track.SampleRate)
	n := len(track.Samples)
	if math.IsNaN(startSeconds) || startSeconds < 0 {
		return nil, fmt.Errorf("%w: start %.3fs", ErrOutOfBounds, startSeconds)
	}
	start := int(math.Round(startSeconds * rate))
	if start >= n {
		return nil, fmt.Errorf("%w: start %.3fs beyond track end %.3fs", ErrOutOfBounds, startSeconds, track.Seconds())
	}

	end := min(start+int(math.Round(durationSeconds*rate)), n)
	clipped := float64(end-start) / rate
	if end <= start || clipped < opts.MinSeconds {
		return nil, fmt.Errorf("%w: clip of %.3fs is shorter than %.3fs", ErrProcessing, clipped, opts.MinSeconds)
	}

	samples, err := resample.Resample(track.Samples[start:end], track.SampleRate, opts.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	data, err := encodeWAV(samples, opts.SampleRate, opts.BitDepth)
	if err != nil {
		return nil, err
	}

	return &Result{
		Audio:           data,
		SampleRate:      opts.SampleRate,
		BitDepth:        opts.BitDepth,
		Samples:         len(samples),
		StartSeconds:    float64(start) / rate,
		DurationSeconds: clipped,
	}, nil
}

// Quantize maps normalized samples to signed integers of the given depth,
// rounding to nearest and clipping to full scale.
func Quantize(samples []float64, bitDepth int) []int {
	maxVal := float64(int64(1)<<(bitDepth-1) - 1)
	out := make([]int, len(samples))
	for i, v := range samples {
		v = math.Max(-1, math.Min(1, v))
		out[i] = int(math.Round(v * maxVal))
	}
	return out
}

func encodeWAV(samples []float64, rate, bitDepth int) ([]byte, error) {
	var f memFile
	enc := wav.NewEncoder(&f, rate, bitDepth, monoChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: monoChannels, SampleRate: rate},
		Data:           Quantize(samples, bitDepth),
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("%w: writing samples: %v", ErrProcessing, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalizing WAV: %v", ErrProcessing, err)
	}
	return f.Bytes(), nil
}
