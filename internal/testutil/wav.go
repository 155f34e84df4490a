package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

const wavFormatPCM = 1

// WAVBytes encodes the given channels (planar, equal length) as PCM WAV and
// returns the file contents.
func WAVBytes(t testing.TB, rate, bitDepth int, channels ...[]float64) []byte {
	t.Helper()
	require.NotEmpty(t, channels)

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	numCh := len(channels)
	maxVal := float64(int(1)<<(bitDepth-1) - 1)
	data := make([]int, len(channels[0])*numCh)
	for i := range channels[0] {
		for ch := range numCh {
			v := math.Max(-1, math.Min(1, channels[ch][i]))
			data[i*numCh+ch] = int(math.Round(v * maxVal))
		}
	}

	enc := wav.NewEncoder(f, rate, bitDepth, numCh, wavFormatPCM)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numCh, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

// ReadWAV decodes WAV bytes written by the encoder under test into
// normalized samples of the first channel.
func ReadWAV(t testing.TB, path string) (samples []float64, rate, bitDepth int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile(), "not a valid WAV file")
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	bitDepth = int(dec.BitDepth)
	numCh := buf.Format.NumChannels
	scale := 1 / float64(int(1)<<(bitDepth-1)-1)
	samples = make([]float64, len(buf.Data)/numCh)
	for i := range samples {
		samples[i] = float64(buf.Data[i*numCh]) * scale
	}
	return samples, buf.Format.SampleRate, bitDepth
}

// WriteFile writes b into a fresh temp file and returns its path.
func WriteFile(t testing.TB, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}
