package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-chorus/internal/testutil"
)

const (
	defaultTolerance = 1e-10
	windowTolerance  = 1e-10

	testAttenuation80 = 80.0
	testCutoff0_25    = 0.25
	testGainUnity     = 1.0

	passbandRippleDB = 0.1
)

func TestKaiserWindow_Symmetry(t *testing.T) {
	tests := []struct {
		name   string
		length int
		beta   float64
	}{
		{"length_11_beta_5", 11, 5.0},
		{"length_21_beta_8", 21, 8.653728},
		{"length_51_beta_10", 51, 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := KaiserWindow(tt.length, tt.beta)
			assert.Len(t, window, tt.length)
			testutil.AssertSymmetric(t, window, windowTolerance)
			assert.InDelta(t, 1.0, window[tt.length/2], windowTolerance, "center value should be ~1.0")
		})
	}
}

func TestKaiserWindow_EdgeCases(t *testing.T) {
	assert.Empty(t, KaiserWindow(0, 5))
	assert.Empty(t, KaiserWindow(-1, 5))
	assert.Equal(t, []float64{1}, KaiserWindow(1, 5))
}

func TestFilterParams_Validate(t *testing.T) {
	valid := FilterParams{NumTaps: 101, CutoffFreq: testCutoff0_25, Attenuation: testAttenuation80, Gain: testGainUnity}

	tests := []struct {
		name    string
		mutate  func(p *FilterParams)
		wantErr bool
	}{
		{"valid_params", func(*FilterParams) {}, false},
		{"too_few_taps", func(p *FilterParams) { p.NumTaps = 1 }, true},
		{"too_many_taps", func(p *FilterParams) { p.NumTaps = 10000 }, true},
		{"cutoff_too_low", func(p *FilterParams) { p.CutoffFreq = 0 }, true},
		{"cutoff_too_high", func(p *FilterParams) { p.CutoffFreq = 0.5 }, true},
		{"negative_attenuation", func(p *FilterParams) { p.Attenuation = -10 }, true},
		{"zero_gain", func(p *FilterParams) { p.Gain = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			err := params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDesignLowPassFilter_DCGainAndSymmetry(t *testing.T) {
	for _, gain := range []float64{0.5, 1.0, 2.0} {
		filter, err := DesignLowPassFilter(FilterParams{
			NumTaps:     101,
			CutoffFreq:  testCutoff0_25,
			Attenuation: testAttenuation80,
			Gain:        gain,
		})
		require.NoError(t, err)

		assert.Len(t, filter, 101)
		testutil.AssertSymmetric(t, filter, defaultTolerance)
		testutil.AssertDCGain(t, filter, gain, defaultTolerance)
	}
}

func TestDesignLowPassFilterAuto_FrequencyResponse(t *testing.T) {
	const (
		transition = 0.05
		cutoff     = 0.25
		atten      = 80.0
		points     = 256
	)

	filter, err := DesignLowPassFilterAuto(cutoff, transition, atten, testGainUnity)
	require.NoError(t, err)
	testutil.AssertOddLength(t, filter)

	for k := range points {
		freq := 0.5 * float64(k) / points
		magDB := magnitudeDB(magnitudeAt(filter, freq))

		switch {
		case freq <= cutoff-transition/2:
			assert.LessOrEqual(t, math.Abs(magDB), passbandRippleDB, "passband ripple at f=%f", freq)
		case freq >= cutoff+transition/2:
			assert.LessOrEqual(t, magDB, -atten+10, "stopband leak at f=%f", freq)
		}
	}
}

func TestMagnitude_ThreeTapAverager(t *testing.T) {
	coeffs := []float64{0.25, 0.5, 0.25}
	assert.InDelta(t, 1.0, magnitudeAt(coeffs, 0), 1e-12)
	assert.InDelta(t, 0.0, magnitudeAt(coeffs, 0.5), 1e-12)
}

func TestMagnitudeInDB(t *testing.T) {
	assert.InDelta(t, 0.0, magnitudeDB(1), 0.01)
	assert.InDelta(t, -6.0206, magnitudeDB(0.5), 0.01)
	assert.InDelta(t, -40.0, magnitudeDB(0.01), 0.01)
	assert.InDelta(t, -200.0, magnitudeDB(0), 0.01)
}

func TestHannWindow(t *testing.T) {
	const n = 1024
	w := HannWindow(n)
	require.Len(t, w, n)

	assert.InDelta(t, 0.0, w[0], 1e-12)
	assert.InDelta(t, 1.0, w[n/2], 1e-12)
	testutil.AssertAllInRange(t, w, 0, 1)

	// Periodic Hann at 50% overlap sums to one.
	for i := range n / 2 {
		assert.InDelta(t, 1.0, w[i]+w[i+n/2], 1e-12, "overlap-add at %d", i)
	}

	assert.Empty(t, HannWindow(0))
	assert.Equal(t, []float64{1}, HannWindow(1))
}

func BenchmarkDesignLowPassFilter(b *testing.B) {
	params := FilterParams{NumTaps: 201, CutoffFreq: testCutoff0_25, Attenuation: testAttenuation80, Gain: testGainUnity}
	for b.Loop() {
		_, _ = DesignLowPassFilter(params)
	}
}

// magnitudeAt evaluates |H(f)| of a FIR at normalized frequency f (DTFT).
func magnitudeAt(coeffs []float64, freq float64) float64 {
	omega := 2 * math.Pi * freq
	var re, im float64
	for n, h := range coeffs {
		angle := omega * float64(n)
		re += h * math.Cos(angle)
		im -= h * math.Sin(angle)
	}
	return math.Hypot(re, im)
}

func magnitudeDB(magnitude float64) float64 {
	return 20 * math.Log10(max(magnitude, 1e-10))
}
