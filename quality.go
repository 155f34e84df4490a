package chorus

import (
	"fmt"
	"strings"
)

// QualityTier selects the output format and the analysis resolution.
type QualityTier int

const (
	// QualityLow renders 22.05 kHz 16-bit clips and analyses with
	// non-overlapping windows, trading accuracy for speed.
	QualityLow QualityTier = iota

	// QualityMedium renders 44.1 kHz 16-bit clips.
	QualityMedium

	// QualityHigh renders 44.1 kHz 24-bit clips.
	QualityHigh
)

// TierSpec holds the parameters behind a tier.
type TierSpec struct {
	// SampleRate and BitDepth describe the output clip.
	SampleRate int
	BitDepth   int

	// AnalysisWindow and AnalysisHop are the chroma STFT sizes in samples
	// at the analysis rate.
	AnalysisWindow int
	AnalysisHop    int
}

var tierSpecs = map[QualityTier]TierSpec{
	QualityLow:    {SampleRate: sampleRate22k, BitDepth: bitDepth16, AnalysisWindow: analysisWindow, AnalysisHop: analysisWindow},
	QualityMedium: {SampleRate: sampleRate44k, BitDepth: bitDepth16, AnalysisWindow: analysisWindow, AnalysisHop: analysisHop},
	QualityHigh:   {SampleRate: sampleRate44k, BitDepth: bitDepth24, AnalysisWindow: analysisWindow, AnalysisHop: analysisHop},
}

var tierNames = map[QualityTier]string{
	QualityLow:    "low",
	QualityMedium: "medium",
	QualityHigh:   "high",
}

// Spec returns the parameters of q.
func (q QualityTier) Spec() (TierSpec, error) {
	spec, ok := tierSpecs[q]
	if !ok {
		return TierSpec{}, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}
	return spec, nil
}

func (q QualityTier) String() string {
	if name, ok := tierNames[q]; ok {
		return name
	}
	return fmt.Sprintf("quality(%d)", int(q))
}

// ParseQualityTier parses "low", "medium" or "high", ignoring case.
func ParseQualityTier(s string) (QualityTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return QualityLow, nil
	case "medium":
		return QualityMedium, nil
	case "high":
		return QualityHigh, nil
	}
	return 0, fmt.Errorf("%w: %q (want low, medium or high)", ErrInvalidQuality, s)
}

// QualityTiers lists the tiers in ascending order.
func QualityTiers() []QualityTier {
	return []QualityTier{QualityLow, QualityMedium, QualityHigh}
}
