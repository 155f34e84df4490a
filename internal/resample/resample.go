// Package resample converts whole mono signals between sample rates.
//
// Downsampling first applies a Kaiser-windowed sinc lowpass at the output
// Nyquist band; both directions then interpolate with a 4-point cubic
// Hermite kernel. The output holds round(len(in) * outRate / inRate)
// samples, so a duration in seconds is preserved.
package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-chorus/internal/filter"
)

// ErrInvalidRate is returned for non-positive sample rates.
var ErrInvalidRate = errors.New("invalid sample rate")

// Resample returns in converted from inRate to outRate. The input is never
// modified; equal rates return a copy.
func Resample(in []float64, inRate, outRate int) ([]float64, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d Hz", ErrInvalidRate, inRate, outRate)
	}
	if len(in) == 0 {
		return []float64{}, nil
	}
	if inRate == outRate {
		out := make([]float64, len(in))
		copy(out, in)
		return out, nil
	}

	ratio := float64(outRate) / float64(inRate)
	src := in
	if ratio < 1 {
		var err error
		if src, err = antiAlias(in, ratio); err != nil {
			return nil, err
		}
	}

	return interpolate(src, ratio), nil
}

// OutputLength returns the number of samples Resample produces.
func OutputLength(n, inRate, outRate int) int {
	if inRate <= 0 || outRate <= 0 {
		return 0
	}
	return int(math.Round(float64(n) * float64(outRate) / float64(inRate)))
}

// antiAlias lowpasses in below the output Nyquist band. The result has the
// same length and zero group delay; edges are extended by replication so a
// DC input stays flat.
func antiAlias(in []float64, ratio float64) ([]float64, error) {
	outNyquist := nyquistFraction * ratio
	cutoff := outNyquist * antiAliasPassbandFraction
	transition := 2 * (outNyquist - cutoff)

	kernel, err := filter.DesignLowPassFilterAuto(cutoff, transition, antiAliasAttenuation, 1.0)
	if err != nil {
		return nil, fmt.Errorf("anti-alias filter: %w", err)
	}

	half := (len(kernel) - 1) / halfDivisor
	padded := make([]float64, len(in)+2*half)
	copy(padded[half:], in)
	first, last := in[0], in[len(in)-1]
	for i := range half {
		padded[i] = first
		padded[len(padded)-1-i] = last
	}

	out := make([]float64, len(in))
	ConvolveValid(out, padded, kernel)
	return out, nil
}
