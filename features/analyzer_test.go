package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-lpc/algorithms/spectral"
	"github.com/RyanBlaney/sonido-lpc/algorithms/speech"
	"github.com/RyanBlaney/sonido-lpc/features/config"
	"github.com/RyanBlaney/sonido-lpc/logging"
)

func newTestAnalyzer(t *testing.T, layout config.Layout) *Analyzer {
	t.Helper()
	cfg := config.DefaultAnalyzerConfig()
	cfg.Layout = layout
	a, err := NewAnalyzer(cfg, &logging.NoOpLogger{})
	require.NoError(t, err)
	return a
}

func pulseFrames(frames, period int, amplitude float64) [][]float64 {
	out := make([][]float64, frames)
	n := 0
	for f := range out {
		out[f] = make([]float64, FrameSize)
		for i := range out[f] {
			if n%period == 0 {
				out[f][i] = amplitude
			}
			n++
		}
	}
	return out
}

// noiseFrames returns deterministic pseudo-random frames
func noiseFrames(frames int, seed uint32) [][]float64 {
	out := make([][]float64, frames)
	s := seed
	for f := range out {
		out[f] = make([]float64, FrameSize)
		for i := range out[f] {
			s = s*1664525 + 1013904223
			out[f][i] = float64(int32(s)>>16) / 4
		}
	}
	return out
}

func runFrames(t *testing.T, a *Analyzer, frames [][]float64) []*Batch {
	t.Helper()
	var batches []*Batch
	for _, f := range frames {
		b, err := a.ProcessFrame(f)
		require.NoError(t, err)
		if b != nil {
			batches = append(batches, b)
		}
	}
	return batches
}

func TestFieldsFor(t *testing.T) {
	compact, err := FieldsFor(config.LayoutCompact)
	require.NoError(t, err)
	assert.Equal(t, 37, compact.Width)
	assert.Equal(t, -1, compact.Delta)
	assert.Equal(t, 18, compact.Pitch)
	assert.Equal(t, 21, compact.LPC)

	lpcnet, err := FieldsFor(config.LayoutLPCNet)
	require.NoError(t, err)
	assert.Equal(t, 55, lpcnet.Width)
	assert.Equal(t, 18, lpcnet.Delta)
	assert.Equal(t, 36, lpcnet.Pitch)
	assert.Equal(t, 37, lpcnet.Voicing)
	assert.Equal(t, 38, lpcnet.Gain)
	assert.Equal(t, 39, lpcnet.LPC)

	_, err = FieldsFor("wide")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestNewAnalyzerRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultAnalyzerConfig()
	cfg.Layout = "wide"
	_, err := NewAnalyzer(cfg, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	tests := []struct {
		name   string
		mutate func(c *config.AnalyzerConfig)
	}{
		{"no search range", func(c *config.AnalyzerConfig) { c.PitchMaxPeriod = 36 }},
		{"empty search window", func(c *config.AnalyzerConfig) { c.PitchMinPeriod = 2 }},
		{"range wider than index", func(c *config.AnalyzerConfig) { c.PitchMinPeriod = 20 }},
		{"delta without block", func(c *config.AnalyzerConfig) { c.DeltaCepstrum = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultAnalyzerConfig()
			tt.mutate(&cfg)
			_, err := NewAnalyzer(cfg, nil)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestProcessFrameWrongLength(t *testing.T) {
	a := newTestAnalyzer(t, config.LayoutCompact)
	_, err := a.ProcessFrame(make([]float64, FrameSize-1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrameLength))
	assert.Equal(t, int64(0), a.Frames())
}

func TestBatchEveryFourthFrame(t *testing.T) {
	a := newTestAnalyzer(t, config.LayoutCompact)
	for i, f := range noiseFrames(12, 7) {
		b, err := a.ProcessFrame(f)
		require.NoError(t, err)
		if (i+1)%4 == 0 {
			require.NotNil(t, b, "frame %d", i)
			for _, v := range b.Vectors {
				assert.Len(t, v, 37)
			}
			assert.Equal(t, 0, a.GroupPosition())
		} else {
			assert.Nil(t, b, "frame %d", i)
			assert.Equal(t, (i+1)%4, a.GroupPosition())
		}
	}
	assert.Equal(t, int64(12), a.Frames())
}

func TestEmittedVectorsAreNotReused(t *testing.T) {
	a := newTestAnalyzer(t, config.LayoutCompact)
	batches := runFrames(t, a, noiseFrames(8, 3))
	require.Len(t, batches, 2)

	first := append(FeatureVector(nil), batches[0].Vectors[0]...)
	batches[1].Vectors[0][0] = 12345
	assert.Equal(t, first, batches[0].Vectors[0])
}

func TestExcitationRingInvariant(t *testing.T) {
	a := newTestAnalyzer(t, config.LayoutCompact)
	ref := speech.NewExcitationFilter(LPCOrder)
	prevTail := make([]float64, TrainingOffset)
	want := make([]float64, FrameSize)

	n := len(a.Excitation())
	require.Equal(t, 256+FrameSize, n)
	require.Len(t, a.PitchBuffer(), n)

	for _, in := range noiseFrames(9, 11) {
		_, err := a.ProcessFrame(in)
		require.NoError(t, err)

		aligned := append(append([]float64(nil), prevTail...), in[:FrameSize-TrainingOffset]...)
		ref.Process(a.LastLPC(), aligned, want)

		assert.Equal(t, want, a.LastResidual())
		assert.Equal(t, want, a.Excitation()[n-FrameSize:])
		assert.Len(t, a.Excitation(), n)
		assert.Equal(t, in, a.PitchBuffer()[n-FrameSize:])

		copy(prevTail, in[FrameSize-TrainingOffset:])
	}
}

func TestSilentGroup(t *testing.T) {
	a := newTestAnalyzer(t, config.LayoutCompact)
	zeros := make([][]float64, 4)
	for i := range zeros {
		zeros[i] = make([]float64, FrameSize)
	}
	batches := runFrames(t, a, zeros)
	require.Len(t, batches, 1)

	b := batches[0]
	f := a.Fields()
	assert.False(t, b.Pitch.Voiced)
	assert.Equal(t, 0.0, b.Pitch.Slope)
	for _, v := range b.Vectors {
		assert.Equal(t, -1.0, v[f.Voicing])
		for i, x := range v {
			assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), "field %d", i)
		}
	}
}

func TestVoicedPulseTrain(t *testing.T) {
	const period = 80
	a := newTestAnalyzer(t, config.LayoutCompact)
	batches := runFrames(t, a, pulseFrames(16, period, 10000))
	require.Len(t, batches, 4)

	last := batches[len(batches)-1]
	want := int(math.Round(21 * math.Log2(float64(period)/32)))
	assert.InDelta(t, want, last.Pitch.MainIndex, 1)
	assert.True(t, last.Pitch.Voiced)

	f := a.Fields()
	for k, v := range last.Vectors {
		assert.Equal(t, 1.0, v[f.Voicing])
		assert.InDelta(t, 0.02*(period-100), v[f.Pitch], 0.1, "frame %d", k)
	}
}

func TestIdempotence(t *testing.T) {
	frames := noiseFrames(20, 99)

	a := newTestAnalyzer(t, config.LayoutLPCNet)
	first := runFrames(t, a, frames)

	b := newTestAnalyzer(t, config.LayoutLPCNet)
	second := runFrames(t, b, frames)
	assert.Equal(t, first, second)

	a.Reset()
	assert.Equal(t, int64(0), a.Frames())
	third := runFrames(t, a, frames)
	assert.Equal(t, first, third)
}

func TestDeltaCepstrum(t *testing.T) {
	a := newTestAnalyzer(t, config.LayoutLPCNet)

	ceps := make([]float64, spectral.NbBands)
	for step := 0; step < 6; step++ {
		for k := range ceps {
			ceps[k] = float64(step) * float64(k+1)
		}
		a.pushCepstrum(ceps)
	}

	delta := a.deltaCepstrum()
	for k := 0; k < NbDeltaCeps; k++ {
		assert.InDelta(t, float64(k+1), delta[k], 1e-12, "coef %d", k)
	}
	for k := NbDeltaCeps; k < spectral.NbBands; k++ {
		assert.Equal(t, 0.0, delta[k])
	}
}

func TestLPCNetLayoutBlockZeroByDefault(t *testing.T) {
	a := newTestAnalyzer(t, config.LayoutLPCNet)
	batches := runFrames(t, a, noiseFrames(12, 5))
	require.Len(t, batches, 3)

	f := a.Fields()
	for _, b := range batches {
		for _, v := range b.Vectors {
			assert.Equal(t, make([]float64, spectral.NbBands), []float64(v[f.Delta:f.Delta+spectral.NbBands]))
		}
	}
}

func newDeltaAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	cfg := config.DefaultAnalyzerConfig()
	cfg.Layout = config.LayoutLPCNet
	cfg.DeltaCepstrum = true
	a, err := NewAnalyzer(cfg, &logging.NoOpLogger{})
	require.NoError(t, err)
	return a
}

func TestLPCNetLayoutWithDeltas(t *testing.T) {
	a := newDeltaAnalyzer(t)
	batches := runFrames(t, a, noiseFrames(12, 5))
	require.Len(t, batches, 3)

	f := a.Fields()
	nonzero := false
	for _, v := range batches[2].Vectors {
		for k := 0; k < NbDeltaCeps; k++ {
			nonzero = nonzero || v[f.Delta+k] != 0
		}
		for k := NbDeltaCeps; k < spectral.NbBands; k++ {
			assert.Equal(t, 0.0, v[f.Delta+k])
		}
	}
	assert.True(t, nonzero)
}

func TestLPCNetLayoutSteadyDelta(t *testing.T) {
	a := newDeltaAnalyzer(t)
	batches := runFrames(t, a, pulseFrames(12, 80, 10000))
	require.Len(t, batches, 3)

	f := a.Fields()
	for _, v := range batches[2].Vectors {
		assert.Len(t, v, 55)
		for k := 0; k < spectral.NbBands; k++ {
			assert.InDelta(t, 0, v[f.Delta+k], 1e-9)
		}
	}
}
