package speech

import (
	"github.com/RyanBlaney/sonido-lpc/algorithms/spectral"
)

const (
	// relative -40 dB floor plus an absolute floor added to ac[0]
	noiseFloorRelative = 1e-4
	noiseFloorAbsolute = 26.0 / 38.0

	// lag window ac[i] *= 1 - lagWindow*i*i
	lagWindow = 6e-5

	// recursion stops once the error drops below this fraction of ac[0]
	minPredictionGain = 1e-3
)

// bandCompensation undoes the triangular band overlap when band energies are
// interpolated back onto FFT bins.
var bandCompensation = [spectral.NbBands]float64{
	0.8, 1, 1, 1, 1, 1, 1, 1, 0.666667, 0.5, 0.5, 0.5, 0.333333, 0.25, 0.25, 0.2, 0.166667, 0.173913,
}

// LPCFitter derives short-term prediction coefficients from a cepstrum by
// going back to a power spectrum and from there to an autocorrelation.
type LPCFitter struct {
	order    int
	freqSize int
	encoder  *spectral.CepstralEncoder
	fft      *spectral.FFT
}

// NewLPCFitter creates a fitter of the given order for an analysis window of
// windowSize samples
func NewLPCFitter(order, windowSize int) *LPCFitter {
	return &LPCFitter{
		order:    order,
		freqSize: windowSize/2 + 1,
		encoder:  spectral.NewCepstralEncoder(),
		fft:      spectral.NewFFT(windowSize),
	}
}

// Order returns the prediction order
func (f *LPCFitter) Order() int {
	return f.order
}

// FromCepstrum returns the LPC coefficients and prediction gain described by
// a cepstrum produced by spectral.CepstralEncoder.
func (f *LPCFitter) FromCepstrum(ceps []float64) ([]float64, float64) {
	ex := f.encoder.BandEnergies(ceps)
	for i := range ex {
		ex[i] *= bandCompensation[i]
	}
	return f.FromBands(ex)
}

// FromBands returns the LPC coefficients and prediction gain of the spectral
// envelope given by NbBands linear energies.
func (f *LPCFitter) FromBands(bandE []float64) ([]float64, float64) {
	xr := spectral.InterpBandGain(bandE, f.freqSize)
	xr[f.freqSize-1] = 0

	X := make([]complex128, f.freqSize)
	for i, v := range xr {
		X[i] = complex(v, 0)
	}
	xAuto := f.fft.InverseReal(X)

	ac := make([]float64, f.order+1)
	copy(ac, xAuto[:f.order+1])

	ac[0] += ac[0]*noiseFloorRelative + noiseFloorAbsolute
	for i := 1; i <= f.order; i++ {
		ac[i] *= 1 - lagWindow*float64(i*i)
	}

	lpc, _, gain := LevinsonDurbin(ac, f.order)
	return lpc, gain
}

// LevinsonDurbin solves the normal equations for an order-p predictor from
// the autocorrelation ac[0..p]. Coefficients follow the A(z) = 1 + sum a_k z^-k
// convention. It returns the coefficients, the reflection coefficients and
// the final prediction error. A zero ac[0] yields all-zero coefficients.
func LevinsonDurbin(ac []float64, p int) ([]float64, []float64, float64) {
	lpc := make([]float64, p)
	rc := make([]float64, p)
	e := ac[0]

	if ac[0] == 0 {
		return lpc, rc, e
	}

	for i := 0; i < p; i++ {
		rr := 0.0
		for j := 0; j < i; j++ {
			rr += lpc[j] * ac[i-j]
		}
		rr += ac[i+1]

		r := -rr / e
		rc[i] = r
		lpc[i] = r
		for j := 0; j < (i+1)>>1; j++ {
			t1 := lpc[j]
			t2 := lpc[i-1-j]
			lpc[j] = t1 + r*t2
			lpc[i-1-j] = t2 + r*t1
		}

		e -= r * r * e
		if e < minPredictionGain*ac[0] {
			break
		}
	}

	return lpc, rc, e
}
