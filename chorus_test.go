package chorus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-chorus/internal/testutil"
)

const testRate = 22050

// decodeResult writes the clip to disk and reads it back.
func decodeResult(t *testing.T, res *Result) (samples []float64, rate, bitDepth int) {
	t.Helper()
	return testutil.ReadWAV(t, testutil.WriteFile(t, "chorus.wav", res.Audio))
}

func TestExtract_FindsRepeatedMotif(t *testing.T) {
	track, motif := testutil.MotifTrack(7, 110, []float64{5, 45, 90}, testRate)
	data := testutil.WAVBytes(t, testRate, 16, track)
	e := newTestExtractor(t, nil)

	res, err := e.Extract(t.Context(), Request{Audio: data, FormatHint: "wav", DurationSeconds: 10, Quality: QualityLow})
	require.NoError(t, err)

	assert.InDelta(t, 5.0, res.ChorusStartSeconds, 0.5, "chorus should start at the first occurrence")
	assert.InDelta(t, 10.0, res.DurationSeconds, 1e-3)
	assert.Positive(t, res.Score)

	clip, rate, depth := decodeResult(t, res)
	require.Equal(t, testRate, rate)
	require.Equal(t, 16, depth)

	// Every clip sample that falls inside the first motif must match it.
	start := int(math.Round(res.ChorusStartSeconds * testRate))
	motifStart := 5 * testRate
	compared := 0
	for i, v := range clip {
		idx := start + i - motifStart
		if idx < 0 || idx >= len(motif) {
			continue
		}
		if !assert.InDelta(t, motif[idx], v, 1e-3, "sample %d", i) {
			break
		}
		compared++
	}
	assert.Greater(t, compared, 9*testRate, "clip should cover most of the motif")
}

func TestExtract_NoRepetition(t *testing.T) {
	data := testutil.WAVBytes(t, testRate, 16, testutil.Noise(11, 0.5, 60, testRate))
	e := newTestExtractor(t, nil)

	_, err := e.Extract(t.Context(), Request{Audio: data, DurationSeconds: 30, Quality: QualityLow})
	require.ErrorIs(t, err, ErrNoChorusDetected)
}

func TestExtract_WindowShiftedAtTrackEnd(t *testing.T) {
	short := testutil.Progression([]testutil.Chord{
		{Freqs: []float64{261.63, 329.63, 392.00}, Seconds: 2},
		{Freqs: []float64{349.23, 440.00, 523.25}, Seconds: 2},
		{Freqs: []float64{415.30, 523.25, 622.25}, Seconds: 2},
	}, 0.6, testRate)
	track := testutil.Noise(5, 0.1, 40, testRate)
	testutil.Place(track, short, 26, testRate)
	testutil.Place(track, short, 33.5, testRate)
	data := testutil.WAVBytes(t, testRate, 16, track)

	e := newTestExtractor(t, nil)
	res, err := e.Extract(t.Context(), Request{Audio: data, DurationSeconds: 30, Quality: QualityMedium})
	require.NoError(t, err)

	// The 6 s repeat at 26 s is widened to 30 s; the part that would pass
	// the track end is moved to the front.
	assert.InDelta(t, 10.0, res.ChorusStartSeconds, 1e-3)
	assert.InDelta(t, 30.0, res.DurationSeconds, 1e-3)
	assert.InDelta(t, 40.0, res.ChorusStartSeconds+res.DurationSeconds, 1e-3)
}

func TestExtract_WindowShiftedAtTrackStart(t *testing.T) {
	const rate = 44100
	track, _ := testutil.MotifTrack(29, 110, []float64{5, 45, 90}, rate)
	data := testutil.WAVBytes(t, rate, 16, track)
	e := newTestExtractor(t, nil)

	for _, q := range QualityTiers() {
		t.Run(q.String(), func(t *testing.T) {
			res, err := e.Extract(t.Context(), Request{Audio: data, DurationSeconds: 30, Quality: q})
			require.NoError(t, err)
			assert.InDelta(t, 0.0, res.ChorusStartSeconds, 1e-9)
			assert.InDelta(t, 30.0, res.DurationSeconds, 1e-3)
		})
	}
}

// Broadband passages that follow each chorus at the same distance must not
// pair up into a section of their own.
func TestExtract_NoiseBreaksDoNotRepeat(t *testing.T) {
	track := testutil.RandomTriads(31, 2, 90, testRate)
	motif := testutil.Motif(testRate)
	testutil.Place(track, motif, 10, testRate)
	testutil.Place(track, motif, 50, testRate)
	testutil.Place(track, testutil.Noise(37, 0.5, 12, testRate), 25, testRate)
	testutil.Place(track, testutil.Noise(41, 0.5, 12, testRate), 65, testRate)
	data := testutil.WAVBytes(t, testRate, 16, track)
	e := newTestExtractor(t, nil)

	for _, q := range QualityTiers() {
		t.Run(q.String(), func(t *testing.T) {
			res, err := e.Extract(t.Context(), Request{Audio: data, DurationSeconds: 10, Quality: q})
			require.NoError(t, err)
			assert.InDelta(t, 10.0, res.ChorusStartSeconds, 0.5)
		})
	}
}

func TestExtract_TierFidelity(t *testing.T) {
	track, _ := testutil.MotifTrack(13, 60, []float64{5, 35}, testRate)
	data := testutil.WAVBytes(t, testRate, 16, track)
	e := newTestExtractor(t, nil)

	for _, q := range QualityTiers() {
		t.Run(q.String(), func(t *testing.T) {
			spec, err := q.Spec()
			require.NoError(t, err)

			res, err := e.Extract(t.Context(), Request{Audio: data, DurationSeconds: 10, Quality: q})
			require.NoError(t, err)
			assert.Equal(t, spec.SampleRate, res.SampleRate)
			assert.Equal(t, spec.BitDepth, res.BitDepth)

			clip, rate, depth := decodeResult(t, res)
			assert.Equal(t, spec.SampleRate, rate)
			assert.Equal(t, spec.BitDepth, depth)

			hop := float64(spec.AnalysisHop) / testRate
			assert.InDelta(t, 10.0, res.DurationSeconds, hop)
			assert.InDelta(t, res.DurationSeconds*float64(rate), float64(len(clip)), 2)
			testutil.AssertAllInRange(t, clip, -1, 1)
		})
	}
}

func TestExtract_StereoInput(t *testing.T) {
	track, _ := testutil.MotifTrack(17, 60, []float64{5, 35}, testRate)
	data := testutil.WAVBytes(t, testRate, 16, track, track)
	e := newTestExtractor(t, nil)

	res, err := e.Extract(t.Context(), Request{Audio: data, DurationSeconds: 10, Quality: QualityLow})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.ChorusStartSeconds, 0.5)
}

func TestExtract_Deterministic(t *testing.T) {
	track, _ := testutil.MotifTrack(19, 60, []float64{10, 40}, testRate)
	data := testutil.WAVBytes(t, testRate, 16, track)
	req := Request{Audio: data, DurationSeconds: 15, Quality: QualityMedium}

	serial := newTestExtractor(t, func(c *Config) { c.Parallelism = 1 })
	parallel := newTestExtractor(t, func(c *Config) { c.Parallelism = 4 })

	first, err := serial.Extract(t.Context(), req)
	require.NoError(t, err)
	second, err := serial.Extract(t.Context(), req)
	require.NoError(t, err)
	third, err := parallel.Extract(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated runs must match")
	assert.Equal(t, first, third, "parallelism must not change the result")
}

func TestExtractChorus(t *testing.T) {
	track, _ := testutil.MotifTrack(23, 60, []float64{5, 35}, testRate)
	data := testutil.WAVBytes(t, testRate, 16, track)

	res, err := ExtractChorus(t.Context(), data, "track.wav", 10, QualityLow)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.ChorusStartSeconds, 0.5)

	_, err = ExtractChorus(t.Context(), data, "track.wav", 5, QualityLow)
	require.ErrorIs(t, err, ErrInvalidDuration)
}
