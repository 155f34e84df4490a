package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPitchClass(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		want int
	}{
		{"A4", 440.0, 9},
		{"A3", 220.0, 9},
		{"A5", 880.0, 9},
		{"Middle C", 261.63, 0},
		{"C2", 65.41, 0},
		{"E4", 329.63, 4},
		{"G4", 392.0, 7},
		{"B3", 246.94, 11},
		{"C#4 slightly sharp", 280.0, 1},
		{"Zero", 0, -1},
		{"Negative", -100, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PitchClass(tt.freq, DefaultReferenceHz))
		})
	}
}

func TestPitchClass_EqualTemperedNotes(t *testing.T) {
	for semis := -36; semis <= 24; semis++ {
		f := noteFrequency(semis, DefaultReferenceHz)
		want := ((semis+referencePitchClass)%12 + 12) % 12
		assert.Equal(t, want, PitchClass(f, DefaultReferenceHz), "semitones=%d freq=%f", semis, f)
	}
	assert.InDelta(t, 880.0, noteFrequency(12, DefaultReferenceHz), 1e-9)
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 1000: 1024, 4096: 4096, 4097: 8192}
	for in, want := range cases {
		assert.Equal(t, want, NextPow2(in), "NextPow2(%d)", in)
	}
}

// noteFrequency returns the note the given number of semitones from A4.
func noteFrequency(semitonesFromA4 int, referenceHz float64) float64 {
	return referenceHz * math.Pow(2, float64(semitonesFromA4)/SemitonesPerOctave)
}
