package chroma

const (
	// Analysis band, A1 to 5 kHz.
	defaultMinFreq = 55.0
	defaultMaxFreq = 5000.0

	minWindowSize = 16

	// Chroma vectors whose norm falls below this are treated as silence.
	silenceNorm = 1e-10

	ctxCheckInterval = 64

	halfDivisor = 2
)
