package spectral

import "math"

const (
	// cepstralBias is subtracted from c0 to centre it around zero
	cepstralBias = 4.0

	logFloor      = 1e-2
	envelopeStart = -2.0
	maxDynamic    = 8.0
	maxDecay      = 2.5
)

// CepstralEncoder turns band energies into a cepstrum: log10 compression with
// a spectral floor, followed by an orthonormal DCT.
type CepstralEncoder struct {
	dct *DCT
}

// NewCepstralEncoder creates an encoder for NbBands energies
func NewCepstralEncoder() *CepstralEncoder {
	return &CepstralEncoder{dct: NewDCT(NbBands)}
}

// LogSpectrum returns the floored log10 band energies and their linear total.
// Going up in frequency, each value is raised to at least 8 below the running
// maximum and 2.5 below a follower that decays by 2.5 per band.
func (c *CepstralEncoder) LogSpectrum(bandE []float64) ([]float64, float64) {
	ly := make([]float64, len(bandE))
	logMax := envelopeStart
	follow := envelopeStart
	energy := 0.0

	for i, e := range bandE {
		v := math.Log10(logFloor + e)
		v = max(logMax-maxDynamic, max(follow-maxDecay, v))
		logMax = max(logMax, v)
		follow = max(follow-maxDecay, v)
		ly[i] = v
		energy += e
	}
	return ly, energy
}

// Encode returns the cepstrum of bandE and the total band energy
func (c *CepstralEncoder) Encode(bandE []float64) ([]float64, float64) {
	ly, energy := c.LogSpectrum(bandE)
	ceps := c.dct.Forward(ly)
	ceps[0] -= cepstralBias
	return ceps, energy
}

// BandEnergies inverts Encode back to linear band energies (without undoing
// the floor).
func (c *CepstralEncoder) BandEnergies(ceps []float64) []float64 {
	tmp := make([]float64, len(ceps))
	copy(tmp, ceps)
	tmp[0] += cepstralBias

	ex := c.dct.Inverse(tmp)
	for i := range ex {
		ex[i] = math.Pow(10, ex[i])
	}
	return ex
}
