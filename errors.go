package chorus

import (
	"errors"

	"github.com/tphakala/go-chorus/internal/decode"
	"github.com/tphakala/go-chorus/internal/encode"
)

// Errors returned by the extractor. Each outcome is distinct so callers can
// map it to a specific response.
var (
	// ErrUnsupportedFormat reports a container or codec that cannot be parsed.
	ErrUnsupportedFormat = decode.ErrUnsupportedFormat

	// ErrCorruptAudio reports a parsed container with truncated or invalid
	// sample data.
	ErrCorruptAudio = decode.ErrCorruptAudio

	// ErrTrackTooLong reports a track longer than Config.MaxTrackMinutes.
	ErrTrackTooLong = errors.New("track too long")

	// ErrNoChorusDetected reports that no section repeats strongly enough.
	// It is an expected outcome for through-composed or very short material.
	ErrNoChorusDetected = errors.New("no chorus detected")

	// ErrOutOfBounds reports a selected window that does not fit the track.
	ErrOutOfBounds = encode.ErrOutOfBounds

	// ErrProcessing reports an internal inconsistency, including a
	// recovered panic.
	ErrProcessing = encode.ErrProcessing

	// ErrProcessingTimeout reports a job that exceeded Config.JobTimeout.
	ErrProcessingTimeout = errors.New("processing timed out")

	// ErrInvalidDuration reports a requested duration outside the
	// configured bounds. It is returned before any decoding.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidQuality reports an unknown quality tier.
	ErrInvalidQuality = errors.New("invalid quality tier")

	// ErrInvalidConfig reports unusable configuration.
	ErrInvalidConfig = errors.New("invalid chorus configuration")

	// ErrPoolSaturated reports that the pending-job bound was reached.
	// The request may be retried later.
	ErrPoolSaturated = errors.New("extraction pool saturated")

	// ErrClosed reports use of a closed Extractor.
	ErrClosed = errors.New("extractor closed")
)
