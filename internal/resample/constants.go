package resample

// Anti-alias filter design constants.
const (
	// Stopband attenuation of the anti-alias lowpass (dB).
	antiAliasAttenuation = 80.0

	// The passband keeps this fraction of the output Nyquist band.
	antiAliasPassbandFraction = 0.9

	nyquistFraction = 0.5

	halfDivisor = 2
)

// Cubic Hermite (Catmull-Rom) coefficients.
// Formula: y = ((a*x + b)*x + c)*x + d
const (
	hermiteCoeff0_5 = 0.5
	hermiteCoeff1_5 = 1.5
	hermiteCoeff2_5 = 2.5
)

// FFT convolution constants.
const (
	// Minimum kernel length to use FFT convolution (below this, direct is faster).
	minKernelForFFT = 400

	// Default FFT block size (power of 2 for efficiency)
	defaultFFTBlockSize = 512

	// A real FFT of size N has N/2 + 1 unique complex coefficients.
	fftHermitianDivisor = 2
)
