// Package similarity builds the self-similarity matrix of a chroma sequence.
package similarity

// Matrix is a square, symmetric similarity matrix with values in [0, 1] and
// ones on the diagonal, stored row-major in a single allocation.
type Matrix struct {
	n    int
	data []float32
}

// New returns an n×n matrix with ones on the diagonal and zeros elsewhere.
func New(n int) *Matrix {
	m := &Matrix{n: max(n, 0), data: make([]float32, max(n, 0)*max(n, 0))}
	for i := range m.n {
		m.data[i*m.n+i] = 1
	}
	return m
}

// Size returns the number of rows.
func (m *Matrix) Size() int { return m.n }

// At returns the similarity of frames i and j.
func (m *Matrix) At(i, j int) float32 { return m.data[i*m.n+j] }

// Set stores v at (i, j) and (j, i).
func (m *Matrix) Set(i, j int, v float32) {
	m.data[i*m.n+j] = v
	m.data[j*m.n+i] = v
}

// Row returns row i. The slice aliases the matrix.
func (m *Matrix) Row(i int) []float32 { return m.data[i*m.n : (i+1)*m.n] }

// Bytes returns the storage footprint of an n×n matrix.
func Bytes(n int) int64 { return int64(n) * int64(n) * bytesPerCell }
