package chorus

import (
	"github.com/tphakala/go-chorus/internal/cluster"
)

// Candidate is the window chosen for a section.
type Candidate struct {
	Section         cluster.Section
	StartSeconds    float64
	DurationSeconds float64
	Score           float64
}

// selectChorus walks the ranked sections and returns the first whose
// window is long enough.
//
// The window is the request, capped at the track length. A representative
// at least that long is cut from its start. A shorter one is centred in the
// window, widened by half the shortfall on each side. A window that crosses
// a track boundary slides back inside it, so extension lost at one edge is
// added at the other.
func selectChorus(ranked []cluster.Section, hopSeconds, trackSeconds, requested, minDuration float64) (Candidate, error) {
	duration := min(requested, trackSeconds)
	if duration < minDuration {
		return Candidate{}, ErrNoChorusDetected
	}

	for _, sec := range ranked {
		rep := sec.Representative()
		spanStart := float64(rep.Start) * hopSeconds
		spanEnd := min(float64(rep.End)*hopSeconds, trackSeconds)
		if spanStart >= trackSeconds {
			continue
		}

		start := spanStart
		if span := spanEnd - spanStart; span < duration {
			start -= (duration - span) / 2
		}
		start = max(0, min(start, trackSeconds-duration))

		return Candidate{
			Section:         sec,
			StartSeconds:    start,
			DurationSeconds: duration,
			Score:           sec.Score,
		}, nil
	}
	return Candidate{}, ErrNoChorusDetected
}
