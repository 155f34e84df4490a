package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

func decodeFLAC(data []byte) (*Track, error) {
	stream, err := flac.New(bytes.NewReader(skipID3v2(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: flac: %v", ErrUnsupportedFormat, err)
	}
	defer func() { _ = stream.Close() }()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	if err := checkLayout(channels, bitDepth); err != nil {
		return nil, err
	}

	interleaved := make([]int, 0, int(stream.Info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: flac frame: %v", ErrCorruptAudio, err)
		}
		if len(frame.Subframes) != channels {
			return nil, fmt.Errorf("%w: flac frame has %d of %d channels",
				ErrCorruptAudio, len(frame.Subframes), channels)
		}
		for i := range frame.Subframes[0].Samples {
			for ch := range channels {
				interleaved = append(interleaved, int(frame.Subframes[ch].Samples[i]))
			}
		}
	}

	// FLAC is always signed, including at 8 bits.
	samples := downmixSigned(interleaved, channels, bitDepth)
	if declared := int(stream.Info.NSamples); declared > 0 && len(samples) < declared {
		return nil, fmt.Errorf("%w: flac stream holds %d of %d declared samples",
			ErrCorruptAudio, len(samples), declared)
	}

	return &Track{
		Samples:        samples,
		SampleRate:     int(stream.Info.SampleRate),
		SourceChannels: channels,
		SourceBitDepth: bitDepth,
	}, nil
}
