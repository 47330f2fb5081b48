package windowing

import (
	"fmt"
	"math"
)

// Vorbis represents the power-complementary window used for overlapped
// speech analysis. The first and last overlap samples follow the Vorbis
// rise sin(pi/2 * sin^2(pi/2 * (i+0.5)/overlap)); samples in between are 1.
type Vorbis struct {
	size         int
	overlap      int
	coefficients []float64
}

// NewVorbis creates a window of the given size with overlap-sample edges.
// overlap is capped at size/2.
func NewVorbis(size, overlap int) *Vorbis {
	if overlap > size/2 {
		overlap = size / 2
	}
	v := &Vorbis{
		size:    size,
		overlap: overlap,
	}
	v.generate()
	return v
}

func (v *Vorbis) generate() {
	v.coefficients = make([]float64, v.size)
	for i := range v.coefficients {
		v.coefficients[i] = 1
	}

	for i := 0; i < v.overlap; i++ {
		s := math.Sin(0.5 * math.Pi * (float64(i) + 0.5) / float64(v.overlap))
		w := math.Sin(0.5 * math.Pi * s * s)
		v.coefficients[i] = w
		v.coefficients[v.size-1-i] = w
	}
}

// Apply applies the window to a signal (creates new array)
func (v *Vorbis) Apply(signal []float64) []float64 {
	if len(signal) != v.size {
		return nil
	}

	windowed := make([]float64, v.size)
	for i := range windowed {
		windowed[i] = signal[i] * v.coefficients[i]
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (v *Vorbis) ApplyInPlace(signal []float64) error {
	if len(signal) != v.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), v.size)
	}

	for i := range signal {
		signal[i] *= v.coefficients[i]
	}

	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (v *Vorbis) GetCoefficients() []float64 {
	coeffs := make([]float64, len(v.coefficients))
	copy(coeffs, v.coefficients)
	return coeffs
}

// GetSize returns the window size
func (v *Vorbis) GetSize() int {
	return v.size
}

// GetType returns the window type
func (v *Vorbis) GetType() string {
	return "vorbis"
}
