package speech

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-lpc/algorithms/spectral"
)

func TestLevinsonDurbinAR1(t *testing.T) {
	const a = 0.9
	ac := make([]float64, 17)
	for k := range ac {
		ac[k] = math.Pow(a, float64(k))
	}

	lpc, rc, e := LevinsonDurbin(ac, 16)
	require.Len(t, lpc, 16)
	assert.InDelta(t, -a, lpc[0], 1e-12)
	for k := 1; k < 16; k++ {
		assert.InDelta(t, 0, lpc[k], 1e-12, "coefficient %d", k)
	}
	assert.InDelta(t, -a, rc[0], 1e-12)
	assert.InDelta(t, 1-a*a, e, 1e-12)
}

func TestLevinsonDurbinZeroEnergy(t *testing.T) {
	lpc, rc, e := LevinsonDurbin(make([]float64, 5), 4)
	assert.Equal(t, make([]float64, 4), lpc)
	assert.Equal(t, make([]float64, 4), rc)
	assert.Equal(t, 0.0, e)
}

func TestLPCFitterFlatSpectrum(t *testing.T) {
	f := NewLPCFitter(16, 320)
	bandE := make([]float64, spectral.NbBands)
	for i := range bandE {
		bandE[i] = 1
	}
	lpc, gain := f.FromBands(bandE)
	require.Len(t, lpc, 16)
	assert.Greater(t, gain, 0.0)
	for _, c := range lpc {
		assert.False(t, math.IsNaN(c))
		assert.Less(t, math.Abs(c), 1.0)
	}
}

func TestLPCFitterFromSilentCepstrum(t *testing.T) {
	f := NewLPCFitter(16, 320)
	enc := spectral.NewCepstralEncoder()
	ceps, _ := enc.Encode(make([]float64, spectral.NbBands))

	lpc, gain := f.FromCepstrum(ceps)
	assert.Greater(t, gain, 0.0)
	assert.False(t, math.IsInf(math.Log10(gain), 0))
	assert.Len(t, lpc, 16)
}

func TestExcitationFilterCarriesState(t *testing.T) {
	f := NewExcitationFilter(2)
	lpc := []float64{-0.5, 0}

	out := make([]float64, 3)
	f.Process(lpc, []float64{1, 0, 0}, out)
	// e = {1, -0.5, 0}; out = e + 0.7*e[n-1]
	assert.InDeltaSlice(t, []float64{1, -0.5 + 0.7, -0.35}, out, 1e-12)

	f.Process(lpc, []float64{2}, out[:1])
	// e = 2 + (-0.5*0) = 2, previous residual 0
	assert.InDelta(t, 2, out[0], 1e-12)

	f.Reset()
	f.Process(lpc, []float64{1}, out[:1])
	assert.InDelta(t, 1, out[0], 1e-12)
}
