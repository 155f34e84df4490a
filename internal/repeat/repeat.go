// Package repeat finds repeated passages along the diagonals of a
// self-similarity matrix.
package repeat

import (
	"context"
	"errors"
	"fmt"

	"github.com/tphakala/go-chorus/internal/similarity"
)

// ErrInvalidOptions is returned for unusable detection options.
var ErrInvalidOptions = errors.New("invalid repeat options")

// Segment is a passage starting at frame Anchor that recurs at frame Target
// for Length frames. Anchor+Length ≤ Target always holds.
type Segment struct {
	Anchor int
	Target int
	Length int

	// MeanSimilarity is the mean matrix value over the segment's cells.
	MeanSimilarity float64
}

// Lag returns the distance between the two occurrences.
func (s Segment) Lag() int { return s.Target - s.Anchor }

// Options controls detection.
type Options struct {
	// Threshold is the similarity a cell must exceed to count as repeated.
	Threshold float64

	// MinLength is the shortest accepted segment in frames. Only lags
	// greater than MinLength are searched.
	MinLength int

	// MaxGap is the largest run of sub-threshold cells bridged between two
	// runs on the same diagonal.
	MaxGap int
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Threshold < 0 || o.Threshold >= 1 {
		return fmt.Errorf("%w: threshold %.3f", ErrInvalidOptions, o.Threshold)
	}
	if o.MinLength < 1 {
		return fmt.Errorf("%w: minimum length %d", ErrInvalidOptions, o.MinLength)
	}
	if o.MaxGap < 0 {
		return fmt.Errorf("%w: max gap %d", ErrInvalidOptions, o.MaxGap)
	}
	return nil
}

// Detect scans every diagonal of m with lag greater than MinLength and
// returns the repeated segments ordered by lag, then anchor.
func Detect(ctx context.Context, m *similarity.Matrix, opts Options) ([]Segment, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var (
		segments []Segment
		n        = m.Size()
		thresh   = float32(opts.Threshold)
	)
	for lag := opts.MinLength + 1; lag < n; lag++ {
		if (lag-opts.MinLength-1)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		segments = scanDiagonal(m, lag, thresh, opts, segments)
	}
	return segments, nil
}

// scanDiagonal appends the segments found at one lag.
func scanDiagonal(m *similarity.Matrix, lag int, thresh float32, opts Options, dst []Segment) []Segment {
	cells := m.Size() - lag
	start, end := -1, -1 // current span [start, end)

	flush := func() {
		if start < 0 {
			return
		}
		length := min(end-start, lag)
		if length >= opts.MinLength {
			dst = append(dst, Segment{
				Anchor:         start,
				Target:         start + lag,
				Length:         length,
				MeanSimilarity: diagonalMean(m, start, lag, length),
			})
		}
		start, end = -1, -1
	}

	for i := range cells {
		if m.At(i, i+lag) <= thresh {
			continue
		}
		if start >= 0 && i-end > opts.MaxGap {
			flush()
		}
		if start < 0 {
			start = i
		}
		end = i + 1
	}
	flush()
	return dst
}

func diagonalMean(m *similarity.Matrix, start, lag, length int) float64 {
	var sum float64
	for i := start; i < start+length; i++ {
		sum += float64(m.At(i, i+lag))
	}
	return sum / float64(length)
}
