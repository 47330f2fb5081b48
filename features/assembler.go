package features

import (
	"math"

	"github.com/RyanBlaney/sonido-lpc/algorithms/spectral"
	"github.com/RyanBlaney/sonido-lpc/algorithms/tonal"
)

// Batch is the output of one completed pitch group
type Batch struct {
	Vectors [tonal.PitchGroupFrames]FeatureVector
	Pitch   tonal.PitchEstimate
}

// Assembler packs per-frame fields into FeatureVectors and holds them until
// the pitch group they belong to completes.
type Assembler struct {
	fields  Fields
	pending [tonal.PitchGroupFrames]FeatureVector
}

// NewAssembler creates an assembler for the given field layout
func NewAssembler(fields Fields) *Assembler {
	a := &Assembler{fields: fields}
	a.allocate()
	return a
}

func (a *Assembler) allocate() {
	for k := range a.pending {
		a.pending[k] = make(FeatureVector, a.fields.Width)
	}
}

// Fields returns the layout offsets
func (a *Assembler) Fields() Fields {
	return a.fields
}

// SetFrame stores the spectral fields of frame k of the current group.
// delta is ignored by layouts without a delta block and may be nil.
func (a *Assembler) SetFrame(k int, ceps, delta []float64, gain float64, lpc []float64) {
	v := a.pending[k]
	copy(v[a.fields.Ceps:a.fields.Ceps+spectral.NbBands], ceps)
	if a.fields.Delta >= 0 {
		d := v[a.fields.Delta : a.fields.Delta+spectral.NbBands]
		clear(d)
		copy(d, delta)
	}
	v[a.fields.Gain] = math.Log10(gain)
	copy(v[a.fields.LPC:a.fields.LPC+LPCOrder], lpc)
}

// Complete writes the pitch fields of est into every pending frame and
// hands the group over as a Batch. Fresh vectors are allocated for the next
// group so emitted vectors are never aliased.
func (a *Assembler) Complete(est *tonal.PitchEstimate) *Batch {
	b := &Batch{Pitch: *est}
	for k, v := range a.pending {
		v[a.fields.Pitch] = est.PeriodFeature(k)
		v[a.fields.Voicing] = est.VoicingFeature()
		b.Vectors[k] = v
	}
	a.allocate()
	return b
}

// Reset discards pending frames
func (a *Assembler) Reset() {
	a.allocate()
}
