package features

import (
	"fmt"

	"github.com/RyanBlaney/sonido-lpc/algorithms/spectral"
	"github.com/RyanBlaney/sonido-lpc/features/config"
)

// Analysis constants for 16 kHz input
const (
	SampleRate     = 16000
	FrameSize      = 160
	OverlapSize    = 160
	WindowSize     = OverlapSize + FrameSize
	FreqSize       = WindowSize/2 + 1
	TrainingOffset = 80
	LPCOrder       = 16

	CepsMem     = 8
	NbDeltaCeps = 6

	// frames of look-back on each side of the delta regression centre
	deltaSpan = 2
)

// FeatureVector is one frame's feature record. Once part of an emitted
// Batch it is owned by the receiver and never written again by the analyzer.
type FeatureVector []float64

// Fields gives the offsets of each field group within a FeatureVector of a
// given layout. Delta is -1 when the layout carries no delta block.
type Fields struct {
	Ceps    int
	Delta   int
	Pitch   int
	Voicing int
	Gain    int
	LPC     int
	Width   int
}

// FieldsFor returns the field offsets for layout
func FieldsFor(layout config.Layout) (Fields, error) {
	nb := spectral.NbBands
	switch layout {
	case config.LayoutCompact, "":
		return Fields{
			Ceps:    0,
			Delta:   -1,
			Pitch:   nb,
			Voicing: nb + 1,
			Gain:    nb + 2,
			LPC:     nb + 3,
			Width:   nb + 3 + LPCOrder,
		}, nil
	case config.LayoutLPCNet:
		return Fields{
			Ceps:    0,
			Delta:   nb,
			Pitch:   2 * nb,
			Voicing: 2*nb + 1,
			Gain:    2*nb + 2,
			LPC:     2*nb + 3,
			Width:   2*nb + 3 + LPCOrder,
		}, nil
	default:
		return Fields{}, fmt.Errorf("%w: unknown layout %q", ErrInvalidConfig, layout)
	}
}

// CepsOf returns the cepstral coefficients of v
func (f Fields) CepsOf(v FeatureVector) []float64 {
	return v[f.Ceps : f.Ceps+spectral.NbBands]
}

// LPCOf returns the LPC coefficients of v
func (f Fields) LPCOf(v FeatureVector) []float64 {
	return v[f.LPC : f.LPC+LPCOrder]
}
