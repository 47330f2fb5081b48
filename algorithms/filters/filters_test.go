package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBiquadZeroCoefficientsIsIdentity(t *testing.T) {
	bq := NewBiquad([2]float64{}, [2]float64{})
	x := []float64{1, -2, 3, 0.5}
	y := make([]float64, len(x))
	bq.Process(y, x)
	assert.Equal(t, x, y)
}

func TestBiquadImpulseResponse(t *testing.T) {
	bq := NewBiquad([2]float64{0.5, 0.25}, [2]float64{-0.5, 0})
	x := []float64{1, 0, 0, 0}
	bq.Process(x, x)
	// y0 = 1; y1 = 0.5 + 0.5*1; y2 = 0.25 + 0.5*1; y3 = 0.5*0.75
	assert.InDeltaSlice(t, []float64{1, 1, 0.75, 0.375}, x, 1e-12)
}

func TestBiquadStateAcrossCalls(t *testing.T) {
	whole := NewBiquad([2]float64{0.3, -0.2}, [2]float64{-0.4, 0.1})
	split := NewBiquad([2]float64{0.3, -0.2}, [2]float64{-0.4, 0.1})

	x := []float64{1, 2, -1, 0.5, 3, -2}
	a := make([]float64, len(x))
	whole.Process(a, x)

	b := make([]float64, len(x))
	split.Process(b[:3], x[:3])
	split.Process(b[3:], x[3:])
	assert.InDeltaSlice(t, a, b, 1e-12)

	split.Reset()
	c := make([]float64, len(x))
	split.Process(c, x)
	assert.InDeltaSlice(t, a, c, 1e-12)
}

func TestDCBlockerRemovesOffset(t *testing.T) {
	bq := NewDCBlocker()
	x := make([]float64, 16000)
	for i := range x {
		x[i] = 1000
	}
	bq.Process(x, x)
	assert.InDelta(t, 0, x[len(x)-1], 1)
}

func TestPreEmphasis(t *testing.T) {
	pe := NewPreEmphasisDefault()
	buf := []float64{1, 1, 0}
	pe.ProcessInPlace(buf)
	assert.InDeltaSlice(t, []float64{1, 0.15, -0.85}, buf, 1e-12)

	pe.Reset()
	assert.Equal(t, 2.0, pe.Process(2))

	assert.Error(t, pe.SetCoefficient(1))
	assert.NoError(t, pe.SetCoefficient(0.9))
	assert.Equal(t, 0.9, pe.GetCoefficient())
}
