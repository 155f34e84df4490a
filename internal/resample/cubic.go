package resample

import "math"

// interpolate evaluates src at output positions j/ratio with a cubic
// Hermite kernel. Neighbours past either end are clamped to the edge sample.
func interpolate(src []float64, ratio float64) []float64 {
	n := len(src)
	outLen := int(math.Round(float64(n) * ratio))
	out := make([]float64, outLen)

	at := func(i int) float64 {
		return src[min(max(i, 0), n-1)]
	}

	step := 1 / ratio
	for j := range out {
		pos := float64(j) * step
		i := int(pos)
		x := pos - float64(i)
		if x == 0 {
			out[j] = at(i)
			continue
		}
		out[j] = hermite(at(i-1), at(i), at(i+1), at(i+2), x)
	}
	return out
}

// hermite interpolates between y1 and y2 at fractional position x using the
// Catmull-Rom tangents from y0 and y3.
func hermite(y0, y1, y2, y3, x float64) float64 {
	coefA := -hermiteCoeff0_5*y0 + hermiteCoeff1_5*y1 - hermiteCoeff1_5*y2 + hermiteCoeff0_5*y3
	coefB := y0 - hermiteCoeff2_5*y1 + 2*y2 - hermiteCoeff0_5*y3
	coefC := -hermiteCoeff0_5*y0 + hermiteCoeff0_5*y2
	coefD := y1

	return ((coefA*x+coefB)*x+coefC)*x + coefD
}
