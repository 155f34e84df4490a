package mathutil

import "math"

// PitchClass maps a frequency in Hz to its equal-tempered pitch class,
// 0 = C through 11 = B, relative to the given A4 reference. It returns -1
// for non-positive frequencies.
func PitchClass(freq, referenceHz float64) int {
	if freq <= 0 || referenceHz <= 0 {
		return -1
	}
	semitones := int(math.Round(SemitonesPerOctave * math.Log2(freq/referenceHz)))
	pc := (semitones + referencePitchClass) % SemitonesPerOctave
	if pc < 0 {
		pc += SemitonesPerOctave
	}
	return pc
}

// NextPow2 returns the smallest power of two ≥ n (1 for n ≤ 1).
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
