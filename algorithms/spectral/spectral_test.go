package spectral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDCTRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := NewDCT(NbBands)
	x := make([]float64, NbBands)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	y := d.Inverse(d.Forward(x))
	for i := range x {
		assert.InDelta(t, x[i], y[i], 1e-12)
	}
}

func TestDCTConstantInput(t *testing.T) {
	d := NewDCT(NbBands)
	x := make([]float64, NbBands)
	for i := range x {
		x[i] = -2
	}
	c := d.Forward(x)
	assert.InDelta(t, -2*math.Sqrt(NbBands), c[0], 1e-12)
	for k := 1; k < NbBands; k++ {
		assert.InDelta(t, 0, c[k], 1e-12, "coefficient %d", k)
	}
}

func TestFFTForwardScaling(t *testing.T) {
	f := NewFFT(320)
	x := make([]float64, 320)
	for i := range x {
		x[i] = 3
	}
	X := f.Forward(x)
	require.Len(t, X, 161)
	assert.InDelta(t, 3, real(X[0]), 1e-9)
	for k := 1; k < len(X); k++ {
		assert.InDelta(t, 0, math.Hypot(real(X[k]), imag(X[k])), 1e-9)
	}
}

func TestFFTInverseRealUnnormalized(t *testing.T) {
	f := NewFFT(320)
	X := make([]complex128, 161)
	X[0] = 1
	X[3] = 0.5
	out := f.InverseReal(X)
	require.Len(t, out, 320)
	for n := 0; n < 320; n++ {
		want := 1 + 2*0.5*math.Cos(2*math.Pi*3*float64(n)/320)
		assert.InDelta(t, want, out[n], 1e-9)
	}
}

func TestBandEnergyFlatSpectrum(t *testing.T) {
	X := make([]complex128, 161)
	for i := range X {
		X[i] = 1
	}
	E := BandEnergy(X)
	require.Len(t, E, NbBands)
	// interior bands collect half of each neighbouring band
	assert.InDelta(t, 4, E[1], 1e-12)
	assert.InDelta(t, 6, E[8], 1e-12)
	assert.InDelta(t, 8, E[9], 1e-12)
	// edge bands are doubled
	assert.InDelta(t, 2*(1+0.75+0.5+0.25), E[0], 1e-12)
}

func TestInterpBandGain(t *testing.T) {
	bandE := make([]float64, NbBands)
	for i := range bandE {
		bandE[i] = float64(i)
	}
	g := InterpBandGain(bandE, 161)
	assert.Equal(t, 0.0, g[0])
	assert.InDelta(t, 0.5, g[2], 1e-12)
	assert.InDelta(t, 1, g[4], 1e-12)
	assert.Equal(t, 0.0, g[160])
}

func TestCepstralEncoderFloor(t *testing.T) {
	enc := NewCepstralEncoder()

	ly, energy := enc.LogSpectrum(make([]float64, NbBands))
	assert.Equal(t, 0.0, energy)
	for _, v := range ly {
		assert.InDelta(t, -2, v, 1e-12)
	}

	bandE := make([]float64, NbBands)
	bandE[0] = 1e8
	ly, _ = enc.LogSpectrum(bandE)
	assert.InDelta(t, 8, ly[0], 1e-9)
	// follower decays 2.5 per band, never below logMax-8
	assert.InDelta(t, 5.5, ly[1], 1e-9)
	assert.InDelta(t, 3, ly[2], 1e-9)
	assert.InDelta(t, 0.5, ly[3], 1e-9)
	assert.InDelta(t, 0, ly[4], 1e-9)
	assert.InDelta(t, 0, ly[NbBands-1], 1e-9)
}

func TestCepstralEncoderInverse(t *testing.T) {
	enc := NewCepstralEncoder()
	bandE := make([]float64, NbBands)
	for i := range bandE {
		bandE[i] = 1000 / float64(i+1)
	}
	ceps, _ := enc.Encode(bandE)
	back := enc.BandEnergies(ceps)
	for i := range bandE {
		assert.InDelta(t, bandE[i]+0.01, back[i], 1e-6*bandE[i])
	}
}

func TestFrontEndOverlapMemory(t *testing.T) {
	fe, err := NewFrontEnd(160, 160, 0)
	require.NoError(t, err)

	in := make([]float64, 160)
	for i := range in {
		in[i] = float64(i)
	}
	_, E := fe.Analyze(in)
	assert.Len(t, E, NbBands)
	assert.Equal(t, in, fe.Memory())

	fe.Reset()
	assert.Equal(t, make([]float64, 160), fe.Memory())
}

func TestFrontEndLowpass(t *testing.T) {
	fe, err := NewFrontEnd(160, 160, 40)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	in := make([]float64, 160)
	for i := range in {
		in[i] = rng.NormFloat64() * 1000
	}
	X, _ := fe.Analyze(in)
	for i := 40; i < len(X); i++ {
		assert.Equal(t, complex128(0), X[i])
	}
}

func TestFrontEndRejectsBadLayout(t *testing.T) {
	_, err := NewFrontEnd(128, 128, 0)
	assert.Error(t, err)

	fe, err := NewFrontEnd(160, 160, 0)
	require.NoError(t, err)
	assert.Panics(t, func() { fe.Analyze(make([]float64, 10)) })
}
