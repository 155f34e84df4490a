// Package decode turns encoded audio bytes into a mono floating-point track.
//
// The container is identified from its magic bytes first and from the
// caller's hint second. WAV (PCM), MP3 and FLAC are decoded; Ogg, MP4/M4A and
// raw AAC are recognised and rejected with ErrUnsupportedFormat. All source
// channels are averaged to mono and samples are normalized to [-1, 1].
package decode

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-chorus/internal/resample"
)

// Errors returned by Decode.
var (
	// ErrUnsupportedFormat reports a container or codec that cannot be parsed.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrCorruptAudio reports a parsed container whose sample data is
	// truncated, absent or invalid.
	ErrCorruptAudio = errors.New("corrupt audio")
)

// Track is decoded mono audio.
type Track struct {
	// Samples holds mono PCM normalized to [-1, 1].
	Samples []float64

	// SampleRate is in Hz.
	SampleRate int

	// SourceChannels and SourceBitDepth describe the encoded input.
	SourceChannels int
	SourceBitDepth int

	Format Format
}

// Seconds returns the track duration.
func (t *Track) Seconds() float64 {
	if t.SampleRate <= 0 {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.SampleRate)
}

// Truncate returns a track holding at most maxSeconds of audio. The samples
// are shared with t, not copied. Non-positive limits return t unchanged.
func (t *Track) Truncate(maxSeconds float64) *Track {
	limit := int(math.Floor(maxSeconds * float64(t.SampleRate)))
	if maxSeconds <= 0 || limit >= len(t.Samples) {
		return t
	}
	out := *t
	out.Samples = t.Samples[:limit]
	return &out
}

// Resample returns a copy of t at the given sample rate.
func (t *Track) Resample(rate int) (*Track, error) {
	samples, err := resample.Resample(t.Samples, t.SampleRate, rate)
	if err != nil {
		return nil, err
	}
	out := *t
	out.Samples = samples
	out.SampleRate = rate
	return &out, nil
}

// Decode decodes data into a mono track at the source sample rate. hint is a
// file extension or format name ("mp3", ".wav", "song.flac") used only when
// the bytes carry no recognisable signature.
func Decode(data []byte, hint string) (*Track, error) {
	format := Sniff(data)
	if format == FormatUnknown {
		format = FormatFromHint(hint)
	}

	var (
		track *Track
		err   error
	)
	switch format {
	case FormatWAV:
		track, err = decodeWAV(data)
	case FormatMP3:
		track, err = decodeMP3(data)
	case FormatFLAC:
		track, err = decodeFLAC(data)
	case FormatUnknown:
		return nil, fmt.Errorf("%w: unrecognised data (hint %q)", ErrUnsupportedFormat, hint)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	track.Format = format
	if len(track.Samples) == 0 {
		return nil, fmt.Errorf("%w: %s stream has no samples", ErrCorruptAudio, format)
	}
	if track.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s reports sample rate %d", ErrCorruptAudio, format, track.SampleRate)
	}
	return track, nil
}

// downmix averages interleaved integer samples to mono, mapping
// (v - offset) * scale onto [-1, 1].
func downmix(data []int, channels, offset int, scale float64) []float64 {
	if channels < 1 {
		return nil
	}
	scale /= float64(channels)

	frames := len(data) / channels
	out := make([]float64, frames)
	for i := range frames {
		base := i * channels
		var sum float64
		for ch := range channels {
			sum += float64(data[base+ch] - offset)
		}
		out[i] = sum * scale
	}
	return out
}

// fullScale returns 1 / 2^(bitDepth-1), which maps the most negative code
// to -1 and keeps every sample inside [-1, 1).
func fullScale(bitDepth int) float64 {
	return 1.0 / float64(int64(1)<<(bitDepth-1))
}

// downmixPCM handles WAV conventions, where 8-bit PCM is unsigned.
func downmixPCM(data []int, channels, bitDepth int) []float64 {
	if bitDepth == unsignedPCMBits {
		return downmix(data, channels, unsignedPCMShift, fullScale(bitDepth))
	}
	return downmix(data, channels, 0, fullScale(bitDepth))
}

// downmixSigned handles codecs whose samples are signed at every depth.
func downmixSigned(data []int, channels, bitDepth int) []float64 {
	return downmix(data, channels, 0, fullScale(bitDepth))
}
