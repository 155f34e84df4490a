package filter

import "math"

// HannWindow returns a periodic Hann window of the given length, the form
// that sums to a constant under 50% overlap.
func HannWindow(length int) []float64 {
	if length < 1 {
		return []float64{}
	}
	w := make([]float64, length)
	if length == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(length)))
	}
	return w
}
