package similarity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/tphakala/go-chorus/internal/chroma"
	"github.com/tphakala/go-chorus/internal/simdops"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidOptions is returned for unusable build options.
var ErrInvalidOptions = errors.New("invalid similarity options")

// Options controls matrix construction.
type Options struct {
	// SmoothingFrames is the length of the centred moving average applied
	// along each diagonal. Even values are rounded up; 0 or 1 disables it.
	SmoothingFrames int

	// MinTonality is the tonality below which a frame is treated as
	// broadband and compared like silence. A frame's tonality is the norm
	// of its chroma after subtracting the frame mean: 0 for a flat profile,
	// about 0.87 for a clean triad and 0.2 for white noise. 0 disables the
	// gate.
	MinTonality float64

	// Parallelism caps the number of row workers; 0 selects NumCPU.
	Parallelism int
}

// Build computes the smoothed self-similarity of seq.
//
// Each frame is centred on its own mean and compared by cosine similarity
// clipped to [0, 1]. Silent frames and frames below MinTonality are similar
// only to themselves. Cell (i, j) of the result is the mean of the raw
// similarities along its diagonal within SmoothingFrames/2 frames either
// side. Cells are computed independently,
// so the result does not depend on Parallelism.
func Build(ctx context.Context, seq *chroma.Sequence, opts Options) (*Matrix, error) {
	if opts.SmoothingFrames < 0 {
		return nil, fmt.Errorf("%w: smoothing %d frames", ErrInvalidOptions, opts.SmoothingFrames)
	}
	if opts.MinTonality < 0 || opts.MinTonality >= 1 {
		return nil, fmt.Errorf("%w: minimum tonality %.3f", ErrInvalidOptions, opts.MinTonality)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}

	n := seq.Len()
	m := New(n)
	if n == 0 {
		return m, nil
	}

	f := newFeatures(seq, opts.MinTonality)
	half := opts.SmoothingFrames / smoothingHalfDivisor

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for range min(opts.Parallelism, n) {
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= n {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				for j := i + 1; j < n; j++ {
					m.Set(i, j, f.smoothed(i, j, half))
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// features holds mean-centred chroma as float32 rows with their norms.
// Gated rows are zero with a zero norm.
type features struct {
	n     int
	vecs  []float32
	norms []float32
	ops   *simdops.Ops[float32]
}

func newFeatures(seq *chroma.Sequence, minTonality float64) *features {
	n := seq.Len()
	f := &features{
		n:     n,
		vecs:  make([]float32, n*chroma.Bins),
		norms: make([]float32, n),
		ops:   simdops.For[float32](),
	}

	for i, frame := range seq.Frames {
		if frame == (chroma.Frame{}) {
			continue
		}
		v := f.vec(i)
		mean := stat.Mean(frame[:], nil)
		for p := range chroma.Bins {
			v[p] = float32(frame[p] - mean)
		}
		// Frames are unit length, so the centred norm is the tonality.
		norm := f.ops.Norm(v)
		if float64(norm) < minTonality || norm == 0 {
			clear(v)
			continue
		}
		f.norms[i] = norm
	}
	return f
}

func (f *features) vec(i int) []float32 {
	return f.vecs[i*chroma.Bins : (i+1)*chroma.Bins]
}

// raw is the clipped cosine similarity of frames i and j.
func (f *features) raw(i, j int) float32 {
	if i == j {
		return 1
	}
	c := f.ops.Cosine(f.vec(i), f.vec(j), f.norms[i], f.norms[j])
	return min(max(c, 0), 1)
}

// smoothed averages raw along the diagonal through (i, j), j > i.
func (f *features) smoothed(i, j, half int) float32 {
	var (
		sum   float32
		count int
	)
	for k := -half; k <= half; k++ {
		a, b := i+k, j+k
		if a < 0 || b >= f.n {
			continue
		}
		sum += f.raw(a, b)
		count++
	}
	return sum / float32(count)
}
