package simdops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor_ReturnsMatchingInstance(t *testing.T) {
	assert.Same(t, &ops64, For[float64]())
	assert.Same(t, &ops32, For[float32]())
}

func TestNormalize(t *testing.T) {
	ops := For[float64]()

	v := []float64{3, 4, 0, 0}
	n := ops.Normalize(v, 1e-12)
	assert.InDelta(t, 5.0, n, 1e-12)
	assert.InDeltaSlice(t, []float64{0.6, 0.8, 0, 0}, v, 1e-12)

	zero := []float64{1e-15, 0, 0}
	ops.Normalize(zero, 1e-9)
	assert.Equal(t, []float64{0, 0, 0}, zero)
}

func TestCosine(t *testing.T) {
	ops := For[float32]()

	a := []float32{1, 0, 0, 0, 0, 0, 0, 0}
	b := []float32{1, 1, 0, 0, 0, 0, 0, 0}
	got := ops.Cosine(a, b, ops.Norm(a), ops.Norm(b))
	assert.InDelta(t, 0.70710678, float64(got), 1e-6)

	assert.Zero(t, ops.Cosine(a, b, 0, 1))
}
