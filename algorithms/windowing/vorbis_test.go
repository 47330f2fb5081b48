package windowing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVorbisPowerComplementary(t *testing.T) {
	w := NewVorbis(320, 160).GetCoefficients()
	require.Len(t, w, 320)

	// overlapping halves of consecutive windows sum to unit power
	for i := 0; i < 160; i++ {
		sum := w[i]*w[i] + w[i+160]*w[i+160]
		assert.InDelta(t, 1.0, sum, 1e-12, "sample %d", i)
	}
	for i := 0; i < 160; i++ {
		assert.Equal(t, w[i], w[319-i])
	}
}

func TestVorbisFlatTop(t *testing.T) {
	w := NewVorbis(100, 20).GetCoefficients()
	for i := 20; i < 80; i++ {
		assert.Equal(t, 1.0, w[i])
	}
	assert.Less(t, w[0], 0.01)
	assert.False(t, math.IsNaN(w[50]))
}

func TestVorbisApplyLengthMismatch(t *testing.T) {
	v := NewVorbis(8, 4)
	assert.Nil(t, v.Apply(make([]float64, 7)))
	assert.Error(t, v.ApplyInPlace(make([]float64, 9)))

	sig := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	require.NoError(t, v.ApplyInPlace(sig))
	assert.Equal(t, v.GetCoefficients(), sig)
	assert.Equal(t, "vorbis", v.GetType())
	assert.Equal(t, 8, v.GetSize())
}
