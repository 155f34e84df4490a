package testutil

import (
	"bytes"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/stretchr/testify/require"
)

const flacBlockSize = 4096

// FLACBytes encodes integer samples, one slice per channel, as a FLAC stream
// of verbatim subframes.
func FLACBytes(t testing.TB, rate, bitDepth int, channels ...[]int32) []byte {
	t.Helper()
	require.NotEmpty(t, channels)
	require.LessOrEqual(t, len(channels), 2, "mono or stereo only")

	n := len(channels[0])
	layout := frame.ChannelsMono
	if len(channels) == 2 {
		layout = frame.ChannelsLR
	}

	var buf bytes.Buffer
	enc, err := flac.NewEncoder(&buf, &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(rate),
		NChannels:     uint8(len(channels)),
		BitsPerSample: uint8(bitDepth),
		NSamples:      uint64(n),
	})
	require.NoError(t, err)

	for start := 0; start < n; start += flacBlockSize {
		end := min(start+flacBlockSize, n)
		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(end - start),
				SampleRate:        uint32(rate),
				Channels:          layout,
				BitsPerSample:     uint8(bitDepth),
			},
		}
		for _, ch := range channels {
			f.Subframes = append(f.Subframes, &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   ch[start:end],
				NSamples:  end - start,
			})
		}
		require.NoError(t, enc.WriteFrame(f))
	}
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

// ID3v2Tag returns an ID3v2.3 tag whose body is padLen zero bytes.
func ID3v2Tag(padLen int) []byte {
	const syncsafeBits = 7
	tag := []byte{'I', 'D', '3', 3, 0, 0,
		byte(padLen >> (3 * syncsafeBits) & 0x7F),
		byte(padLen >> (2 * syncsafeBits) & 0x7F),
		byte(padLen >> syncsafeBits & 0x7F),
		byte(padLen & 0x7F),
	}
	return append(tag, make([]byte, padLen)...)
}

// IntTone returns a sine at freq Hz scaled to amplitude × (2^(bitDepth-1) - 1).
func IntTone(freq, amplitude, seconds float64, rate, bitDepth int) []int32 {
	tone := Tone(freq, amplitude, seconds, rate)
	maxVal := float64(int64(1)<<(bitDepth-1) - 1)
	out := make([]int32, len(tone))
	for i, v := range tone {
		out[i] = int32(v * maxVal)
	}
	return out
}
