package filters

import (
	"fmt"
)

// PreEmphasis implements a first-order pre-emphasis filter for speech.
// It compensates for the natural spectral roll-off of voiced speech.
//
// The filter implements the transfer function:
// H(z) = 1 - α*z^-1
//
// With the difference equation:
// y[n] = x[n] - α*x[n-1]
//
// References:
//   - L.R. Rabiner, R.W. Schafer, "Digital Processing of Speech Signals",
//     Prentice-Hall, 1978, Chapter 4
type PreEmphasis struct {
	coefficient float64 // Pre-emphasis coefficient α
	mem         float64 // -α*x[n-1]
}

// SpeechFeaturePreEmphasis is the coefficient used ahead of feature analysis
const SpeechFeaturePreEmphasis = 0.85

// NewPreEmphasis creates a pre-emphasis filter with specified coefficient.
//
// Parameters:
//   - coefficient: Pre-emphasis coefficient α (0.0 < α < 1.0)
//     Higher values = more emphasis of high frequencies
func NewPreEmphasis(coefficient float64) *PreEmphasis {
	return &PreEmphasis{coefficient: coefficient}
}

// NewPreEmphasisDefault creates a pre-emphasis filter with the feature
// analysis coefficient (0.85).
func NewPreEmphasisDefault() *PreEmphasis {
	return NewPreEmphasis(SpeechFeaturePreEmphasis)
}

// Process applies pre-emphasis filtering to a single sample.
// Implements: y[n] = x[n] - α*x[n-1]
func (pe *PreEmphasis) Process(input float64) float64 {
	output := input + pe.mem
	pe.mem = -pe.coefficient * input
	return output
}

// ProcessInPlace applies pre-emphasis to an entire buffer of samples.
func (pe *PreEmphasis) ProcessInPlace(buf []float64) {
	for i, sample := range buf {
		buf[i] = pe.Process(sample)
	}
}

// Reset clears the filter's internal state.
// Call this when processing discontinuous audio segments.
func (pe *PreEmphasis) Reset() {
	pe.mem = 0
}

// SetCoefficient updates the pre-emphasis coefficient.
func (pe *PreEmphasis) SetCoefficient(coefficient float64) error {
	if coefficient <= 0.0 || coefficient >= 1.0 {
		return fmt.Errorf("coefficient must be between 0 and 1, got %f", coefficient)
	}
	pe.coefficient = coefficient
	return nil
}

// GetCoefficient returns the current coefficient.
func (pe *PreEmphasis) GetCoefficient() float64 {
	return pe.coefficient
}
