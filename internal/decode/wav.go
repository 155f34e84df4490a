package decode

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
)

func decodeWAV(data []byte) (*Track, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV header", ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: WAV encoding %d is not integer PCM", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if err := checkLayout(channels, bitDepth); err != nil {
		return nil, err
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: reading WAV samples: %v", ErrCorruptAudio, err)
	}

	frameBytes := channels * bitDepth / bitsPerByte
	declared := dec.PCMSize / frameBytes
	got := len(buf.Data) / channels
	if got == 0 || got < declared {
		return nil, fmt.Errorf("%w: WAV data holds %d of %d declared frames", ErrCorruptAudio, got, declared)
	}

	return &Track{
		Samples:        downmixPCM(buf.Data, channels, bitDepth),
		SampleRate:     int(dec.SampleRate),
		SourceChannels: channels,
		SourceBitDepth: bitDepth,
	}, nil
}

// checkLayout rejects channel counts and sample depths no decoder here can
// normalize.
func checkLayout(channels, bitDepth int) error {
	const maxBitDepth = 32
	if channels < 1 {
		return fmt.Errorf("%w: %d channels", ErrCorruptAudio, channels)
	}
	if bitDepth < unsignedPCMBits || bitDepth > maxBitDepth {
		return fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}
	return nil
}
