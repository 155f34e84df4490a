package testutil

import (
	"math"
	"math/rand/v2"
)

// Chord is a set of simultaneous frequencies held for a duration.
type Chord struct {
	Freqs   []float64
	Seconds float64
}

// Tone returns a sine at freq Hz.
func Tone(freq, amplitude float64, seconds float64, rate int) []float64 {
	n := int(seconds * float64(rate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

// Progression renders chords back to back with a short linear fade at each
// chord boundary so the joins do not click. Amplitude is shared by the notes.
func Progression(chords []Chord, amplitude float64, rate int) []float64 {
	const fadeSeconds = 0.01
	var out []float64
	for _, c := range chords {
		n := int(c.Seconds * float64(rate))
		fade := int(fadeSeconds * float64(rate))
		seg := make([]float64, n)
		for _, f := range c.Freqs {
			for i := range seg {
				seg[i] += amplitude / float64(len(c.Freqs)) * math.Sin(2*math.Pi*f*float64(i)/float64(rate))
			}
		}
		for i := 0; i < fade && i < n; i++ {
			g := float64(i) / float64(fade)
			seg[i] *= g
			seg[n-1-i] *= g
		}
		out = append(out, seg...)
	}
	return out
}

// Noise returns deterministic uniform white noise in [-amplitude, amplitude].
func Noise(seed uint64, amplitude float64, seconds float64, rate int) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	n := int(seconds * float64(rate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

// Place overwrites dst with src starting at the given second.
func Place(dst, src []float64, atSeconds float64, rate int) {
	start := int(math.Round(atSeconds * float64(rate)))
	copy(dst[start:], src)
}

// Motif is a five-chord, ten-second progression of distinct triads.
func Motif(rate int) []float64 {
	return Progression([]Chord{
		{Freqs: []float64{261.63, 329.63, 392.00}, Seconds: 2}, // C
		{Freqs: []float64{293.66, 369.99, 440.00}, Seconds: 2}, // D
		{Freqs: []float64{311.13, 392.00, 466.16}, Seconds: 2}, // Eb
		{Freqs: []float64{349.23, 440.00, 523.25}, Seconds: 2}, // F
		{Freqs: []float64{415.30, 523.25, 622.25}, Seconds: 2}, // Ab
	}, 0.6, rate)
}

// MotifTrack renders a noise bed of the given length with the motif placed,
// unmodified, at each of the given start times.
func MotifTrack(seed uint64, seconds float64, at []float64, rate int) (track, motif []float64) {
	track = Noise(seed, 0.1, seconds, rate)
	motif = Motif(rate)
	for _, s := range at {
		Place(track, motif, s, rate)
	}
	return track, motif
}

// RandomTriads renders back-to-back chords of three distinct pitch classes
// between A3 and G#4, drawn from seed, each held for chordSeconds.
func RandomTriads(seed uint64, chordSeconds, seconds float64, rate int) []float64 {
	const a3 = 220.0
	rng := rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d))
	var chords []Chord
	for t := 0.0; t < seconds; t += chordSeconds {
		pcs := rng.Perm(12)[:3]
		freqs := make([]float64, len(pcs))
		for i, pc := range pcs {
			freqs[i] = a3 * math.Pow(2, float64(pc)/12)
		}
		chords = append(chords, Chord{Freqs: freqs, Seconds: chordSeconds})
	}
	out := Progression(chords, 0.6, rate)
	return out[:min(len(out), int(seconds*float64(rate)))]
}
