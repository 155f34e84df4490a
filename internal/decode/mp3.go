package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

func decodeMP3(data []byte) (*Track, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %v", ErrUnsupportedFormat, err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3 frames: %v", ErrCorruptAudio, err)
	}

	frames := len(pcm) / mp3BytesPerFrame
	ints := make([]int, frames*mp3Channels)
	for i := range ints {
		ints[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*mp3BytesPerSample:])))
	}

	return &Track{
		Samples:        downmixSigned(ints, mp3Channels, mp3BitDepth),
		SampleRate:     dec.SampleRate(),
		SourceChannels: mp3Channels,
		SourceBitDepth: mp3BitDepth,
	}, nil
}
