// Package cluster groups repeated segments into sections and ranks them.
//
// Every segment contributes two frame intervals, its anchor and its target.
// Intervals that overlap, or lie within a tolerance of each other, belong
// to the same section; the section's occurrences are its merged intervals.
package cluster

import (
	"cmp"
	"math"
	"slices"

	"github.com/tphakala/go-chorus/internal/repeat"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Span is the half-open frame interval [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the number of frames in s.
func (s Span) Len() int { return s.End - s.Start }

// Weights are the exponents of the section score
//
//	occurrences^Occurrence × similarity^Similarity ×
//	log(1+totalLength)^Length × energy^Energy
//
// A zero weight removes its factor.
type Weights struct {
	Occurrence float64
	Similarity float64
	Length     float64
	Energy     float64
}

// DefaultWeights weighs every factor equally.
func DefaultWeights() Weights {
	return Weights{Occurrence: 1, Similarity: 1, Length: 1, Energy: 1}
}

// Options controls clustering.
type Options struct {
	// Tolerance is the largest gap in frames between two intervals that
	// still joins them.
	Tolerance int

	Weights Weights
}

// Section is a group of segments describing one recurring passage.
type Section struct {
	Segments []repeat.Segment

	// Occurrences are the merged member intervals in start order.
	Occurrences []Span

	OccurrenceCount int
	TotalLength     int

	// MeanSimilarity is the length-weighted mean over member segments.
	MeanSimilarity float64

	// MeanEnergy is the mean frame energy over the occurrences, relative to
	// the loudest frame of the track.
	MeanEnergy float64

	Score float64
}

// Representative returns the earliest occurrence.
func (s *Section) Representative() Span { return s.Occurrences[0] }

type interval struct {
	Span
	segment int
}

// Score clusters segments and returns the sections ranked by score,
// highest first. Equal scores rank the later representative first.
// energy holds per-frame loudness indexed like the segment frames.
func Score(segments []repeat.Segment, energy []float64, opts Options) []Section {
	if len(segments) == 0 {
		return nil
	}

	intervals := make([]interval, 0, 2*len(segments))
	for id, s := range segments {
		intervals = append(intervals,
			interval{Span{s.Anchor, s.Anchor + s.Length}, id},
			interval{Span{s.Target, s.Target + s.Length}, id},
		)
	}
	sortIntervals(intervals)

	// Segments are nodes; overlapping intervals join their segments.
	g := simple.NewUndirectedGraph()
	for id := range segments {
		g.AddNode(simple.Node(id))
	}
	groupSeg, groupEnd := intervals[0].segment, intervals[0].End
	for _, iv := range intervals[1:] {
		if iv.Start > groupEnd+opts.Tolerance {
			groupSeg, groupEnd = iv.segment, iv.End
			continue
		}
		if iv.segment != groupSeg {
			g.SetEdge(g.NewEdge(simple.Node(groupSeg), simple.Node(iv.segment)))
		}
		groupEnd = max(groupEnd, iv.End)
	}

	components := topo.ConnectedComponents(g)
	groups := make([][]int, 0, len(components))
	for _, comp := range components {
		ids := make([]int, 0, len(comp))
		for _, n := range comp {
			ids = append(ids, int(n.ID()))
		}
		slices.Sort(ids)
		groups = append(groups, ids)
	}
	// Component order from the graph is not stable; fix it by first member.
	slices.SortFunc(groups, func(a, b []int) int { return cmp.Compare(a[0], b[0]) })

	peak := 0.0
	for _, e := range energy {
		peak = max(peak, e)
	}

	sections := make([]Section, 0, len(groups))
	for _, ids := range groups {
		sections = append(sections, buildSection(segments, ids, energy, peak, opts))
	}

	slices.SortStableFunc(sections, func(a, b Section) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(b.Representative().Start, a.Representative().Start)
	})
	return sections
}

func buildSection(all []repeat.Segment, ids []int, energy []float64, peak float64, opts Options) Section {
	sec := Section{Segments: make([]repeat.Segment, 0, len(ids))}
	intervals := make([]interval, 0, 2*len(ids))

	var weighted, length float64
	for _, id := range ids {
		s := all[id]
		sec.Segments = append(sec.Segments, s)
		intervals = append(intervals,
			interval{Span{s.Anchor, s.Anchor + s.Length}, id},
			interval{Span{s.Target, s.Target + s.Length}, id},
		)
		weighted += s.MeanSimilarity * float64(s.Length)
		length += float64(s.Length)
	}
	if length > 0 {
		sec.MeanSimilarity = weighted / length
	}

	sortIntervals(intervals)
	for _, iv := range intervals {
		last := len(sec.Occurrences) - 1
		if last >= 0 && iv.Start <= sec.Occurrences[last].End+opts.Tolerance {
			sec.Occurrences[last].End = max(sec.Occurrences[last].End, iv.End)
			continue
		}
		sec.Occurrences = append(sec.Occurrences, iv.Span)
	}

	var energySum float64
	var frames int
	for _, occ := range sec.Occurrences {
		sec.TotalLength += occ.Len()
		for f := occ.Start; f < min(occ.End, len(energy)); f++ {
			energySum += energy[f]
			frames++
		}
	}
	sec.OccurrenceCount = len(sec.Occurrences)
	if frames > 0 && peak > 0 {
		sec.MeanEnergy = energySum / float64(frames) / peak
	}

	w := opts.Weights
	sec.Score = math.Pow(float64(sec.OccurrenceCount), w.Occurrence) *
		math.Pow(sec.MeanSimilarity, w.Similarity) *
		math.Pow(math.Log1p(float64(sec.TotalLength)), w.Length) *
		math.Pow(sec.MeanEnergy, w.Energy)
	return sec
}

func sortIntervals(ivs []interval) {
	slices.SortFunc(ivs, func(a, b interval) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(a.End, b.End); c != 0 {
			return c
		}
		return cmp.Compare(a.segment, b.segment)
	})
}
