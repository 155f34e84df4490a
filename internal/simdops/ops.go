// Package simdops provides generic SIMD operations for float32 and float64 types.
// Feature vectors and FIR kernels go through these so the hot loops of the
// analysis stay on the vectorized kernels of github.com/tphakala/simd.
package simdops

import (
	"math"

	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for supported floating-point types.
type Float interface {
	float32 | float64
}

// Ops provides SIMD-accelerated operations for type F.
type Ops[F Float] struct {
	// DotProduct computes the dot product of two equal-length slices.
	DotProduct func(a, b []F) F

	// DotProductUnsafe computes the dot product without bounds checking.
	// Use only when slices are guaranteed to have equal length.
	DotProductUnsafe func(a, b []F) F

	// ConvolveValid computes valid convolution of signal with kernel.
	ConvolveValid func(dst, signal, kernel []F)

	// Sum returns the sum of all elements.
	Sum func(a []F) F

	// Scale multiplies each element by scalar s: dst[i] = a[i] * s
	Scale func(dst, a []F, s F)
}

var (
	ops32 = Ops[float32]{
		DotProduct:       f32.DotProduct,
		DotProductUnsafe: f32.DotProductUnsafe,
		ConvolveValid:    f32.ConvolveValid,
		Sum:              f32.Sum,
		Scale:            f32.Scale,
	}
	ops64 = Ops[float64]{
		DotProduct:       f64.DotProduct,
		DotProductUnsafe: f64.DotProductUnsafe,
		ConvolveValid:    f64.ConvolveValid,
		Sum:              f64.Sum,
		Scale:            f64.Scale,
	}
)

// For returns the Ops instance for type F.
// The type switch happens at instantiation time, not in hot paths.
func For[F Float]() *Ops[F] {
	var zero F
	switch any(zero).(type) {
	case float32:
		ops, ok := any(&ops32).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float32")
		}
		return ops
	case float64:
		ops, ok := any(&ops64).(*Ops[F])
		if !ok {
			panic("simdops: type assertion failed for float64")
		}
		return ops
	default:
		panic("simdops: unsupported float type")
	}
}

// Norm returns the Euclidean norm of a.
func (o *Ops[F]) Norm(a []F) F {
	return F(math.Sqrt(float64(o.DotProduct(a, a))))
}

// Normalize scales a in place to unit Euclidean length and returns the
// original norm. Vectors with a norm at or below eps are zeroed.
func (o *Ops[F]) Normalize(a []F, eps F) F {
	n := o.Norm(a)
	if n <= eps {
		clear(a)
		return n
	}
	o.Scale(a, a, 1/n)
	return n
}

// Cosine returns the cosine similarity of a and b given their norms.
// A zero norm on either side yields zero.
func (o *Ops[F]) Cosine(a, b []F, normA, normB F) F {
	if normA == 0 || normB == 0 {
		return 0
	}
	return o.DotProductUnsafe(a, b) / (normA * normB)
}
