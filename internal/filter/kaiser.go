// Package filter provides the window functions and FIR designs used by the
// analysis front end (STFT windows) and by the resampler (anti-alias lowpass).
package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/go-chorus/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

const (
	minFilterTaps = 3
	maxFilterTaps = 8191

	windowNormalizationFactor = 2.0

	sincZeroThreshold = 1e-10
)

// KaiserWindow generates a symmetric Kaiser window of the given length and β.
//
//	w[n] = I₀(β·sqrt(1 - ((n - α)/α)²)) / I₀(β),  α = (N-1)/2
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)
	if length == 1 {
		window[0] = 1
		return window
	}

	alpha := float64(length-1) / windowNormalizationFactor
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		window[n] = mathutil.BesselI0(beta*math.Sqrt(1.0-x*x)) / i0Beta
	}

	return window
}

// FilterParams holds parameters for lowpass design.
type FilterParams struct {
	// NumTaps is the filter length; odd for a linear-phase FIR.
	NumTaps int

	// CutoffFreq is the normalized cutoff (cycles/sample), in (0, 0.5).
	CutoffFreq float64

	// Attenuation is the stopband attenuation in dB.
	Attenuation float64

	// Gain is the passband gain.
	Gain float64
}

// Validate checks if filter parameters are valid.
func (fp *FilterParams) Validate() error {
	if fp.NumTaps < minFilterTaps {
		return fmt.Errorf("filter too short: %d taps (minimum %d)", fp.NumTaps, minFilterTaps)
	}

	if fp.NumTaps > maxFilterTaps {
		return fmt.Errorf("filter too long: %d taps (maximum %d)", fp.NumTaps, maxFilterTaps)
	}

	if fp.CutoffFreq <= 0 || fp.CutoffFreq >= 0.5 {
		return fmt.Errorf("invalid cutoff frequency: %f (must be in (0, 0.5))", fp.CutoffFreq)
	}

	if fp.Attenuation < 0 {
		return fmt.Errorf("invalid attenuation: %f dB (must be positive)", fp.Attenuation)
	}

	if fp.Gain <= 0 {
		return fmt.Errorf("invalid gain: %f (must be positive)", fp.Gain)
	}

	return nil
}

// DesignLowPassFilter designs a Kaiser-windowed sinc lowpass FIR normalized
// to params.Gain at DC.
func DesignLowPassFilter(params FilterParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	window := KaiserWindow(params.NumTaps, mathutil.KaiserBeta(params.Attenuation))

	filter := make([]float64, params.NumTaps)
	center := float64(params.NumTaps-1) / windowNormalizationFactor

	for n := range params.NumTaps {
		x := float64(n) - center

		// sin(2πfc·x) / (πx), limit 2fc at x = 0
		var sincValue float64
		if math.Abs(x) < sincZeroThreshold {
			sincValue = windowNormalizationFactor * params.CutoffFreq
		} else {
			sincValue = math.Sin(windowNormalizationFactor*math.Pi*params.CutoffFreq*x) / (math.Pi * x)
		}

		filter[n] = sincValue * window[n]
	}

	sum := f64.Sum(filter)
	if math.Abs(sum) > sincZeroThreshold {
		f64.Scale(filter, filter, params.Gain/sum)
	}

	return filter, nil
}

// DesignLowPassFilterAuto designs a lowpass whose length is derived from the
// attenuation and normalized transition bandwidth.
func DesignLowPassFilterAuto(cutoffFreq, transitionBW, attenuation, gain float64) ([]float64, error) {
	return DesignLowPassFilter(FilterParams{
		NumTaps:     mathutil.EstimateFilterLength(attenuation, transitionBW),
		CutoffFreq:  cutoffFreq,
		Attenuation: attenuation,
		Gain:        gain,
	})
}
