package resample

import (
	"github.com/tphakala/go-chorus/internal/mathutil"
	"github.com/tphakala/simd/c128"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTConvolver performs overlap-save FFT convolution for long kernels.
//
// Input is processed in blocks of fftSize samples overlapping by
// kernelLen-1; each block yields fftSize-kernelLen+1 valid outputs and the
// circularly wrapped head of each block is discarded.
type FFTConvolver struct {
	fft       *fourier.FFT
	fftSize   int
	blockSize int

	kernelFFT []complex128
	kernelLen int
	scale     float64 // gonum's inverse transform is unnormalized

	signalBlock []float64
	signalFFT   []complex128
	productFFT  []complex128
	ifftResult  []float64
}

// NewFFTConvolver transforms kernel once for reuse across calls.
// It returns nil for an empty kernel.
func NewFFTConvolver(kernel []float64) *FFTConvolver {
	kernelLen := len(kernel)
	if kernelLen == 0 {
		return nil
	}

	fftSize := max(defaultFFTBlockSize, mathutil.NextPow2(2*kernelLen))
	fft := fourier.NewFFT(fftSize)

	// Reversed so the circular product matches the valid-mode sliding dot
	// product used by f64.ConvolveValid.
	kernelPadded := make([]float64, fftSize)
	for i := range kernelLen {
		kernelPadded[i] = kernel[kernelLen-1-i]
	}

	fftLen := fftSize/fftHermitianDivisor + 1
	return &FFTConvolver{
		fft:         fft,
		fftSize:     fftSize,
		blockSize:   fftSize - kernelLen + 1,
		kernelFFT:   fft.Coefficients(nil, kernelPadded),
		kernelLen:   kernelLen,
		scale:       1.0 / float64(fftSize),
		signalBlock: make([]float64, fftSize),
		signalFFT:   make([]complex128, fftLen),
		productFFT:  make([]complex128, fftLen),
		ifftResult:  make([]float64, fftSize),
	}
}

// Convolve writes the valid convolution of signal into dst, which must hold
// at least len(signal)-kernelLen+1 samples.
func (c *FFTConvolver) Convolve(dst, signal []float64) {
	signalLen := len(signal)
	outputLen := signalLen - c.kernelLen + 1
	if outputLen <= 0 || len(dst) < outputLen {
		return
	}

	overlap := c.kernelLen - 1
	for outIdx := 0; outIdx < outputLen; {
		clear(c.signalBlock)
		copyLen := min(c.fftSize, signalLen-outIdx)
		copy(c.signalBlock, signal[outIdx:outIdx+copyLen])

		c.signalFFT = c.fft.Coefficients(c.signalFFT, c.signalBlock)
		c128.Mul(c.productFFT, c.signalFFT, c.kernelFFT)
		c.ifftResult = c.fft.Sequence(c.ifftResult, c.productFFT)
		f64.Scale(c.ifftResult, c.ifftResult, c.scale)

		valid := min(c.blockSize, outputLen-outIdx)
		copy(dst[outIdx:outIdx+valid], c.ifftResult[overlap:overlap+valid])
		outIdx += valid
	}
}

// ConvolveValid picks FFT convolution for long kernels and direct SIMD
// convolution otherwise.
func ConvolveValid(dst, signal, kernel []float64) {
	if len(kernel) < minKernelForFFT {
		f64.ConvolveValid(dst, signal, kernel)
		return
	}
	if conv := NewFFTConvolver(kernel); conv != nil {
		conv.Convolve(dst, signal)
	}
}
