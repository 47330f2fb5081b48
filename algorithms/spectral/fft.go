package spectral

import (
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT provides the real transforms used by the analysis window.
// The forward direction goes through mjibson/go-dsp, which handles the
// non-power-of-two window length; the inverse half-spectrum synthesis uses
// gonum's real FFT plan.
type FFT struct {
	size    int
	inverse *fourier.FFT
}

// NewFFT creates a transform for real sequences of the given length
func NewFFT(size int) *FFT {
	return &FFT{
		size:    size,
		inverse: fourier.NewFFT(size),
	}
}

// Size returns the sequence length the transform was built for
func (f *FFT) Size() int {
	return f.size
}

// Forward returns the first size/2+1 bins of the DFT of x, scaled by 1/size.
func (f *FFT) Forward(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	full := fft.FFTReal(x)
	scale := complex(1/float64(f.size), 0)

	out := make([]complex128, f.size/2+1)
	for i := range out {
		out[i] = full[i] * scale
	}
	return out
}

// InverseReal synthesizes the real sequence whose half spectrum is X, without
// normalization: out[n] = sum over the full conjugate-symmetric spectrum of
// X[k]*exp(2j*pi*k*n/size). X must hold size/2+1 bins.
func (f *FFT) InverseReal(X []complex128) []float64 {
	if len(X) == 0 {
		return []float64{}
	}
	return f.inverse.Sequence(nil, X)
}
