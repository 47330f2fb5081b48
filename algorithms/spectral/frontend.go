package spectral

import (
	"fmt"

	"github.com/RyanBlaney/sonido-lpc/algorithms/windowing"
)

// FrontEnd windows consecutive frames with an overlap memory, transforms
// them and reduces the spectrum to band energies.
type FrontEnd struct {
	frameSize  int
	overlap    int
	windowSize int
	freqSize   int
	lowpass    int

	memory []float64
	window *windowing.Vorbis
	fft    *FFT
	buf    []float64
}

// NewFrontEnd creates a front end for frames of frameSize samples analysed
// with overlap samples of history. Bins at or above lowpass are zeroed before
// banding; pass windowSize/2+1 (or less than 1) for the full band.
func NewFrontEnd(frameSize, overlap, lowpass int) (*FrontEnd, error) {
	if overlap > frameSize {
		return nil, fmt.Errorf("overlap %d exceeds frame size %d", overlap, frameSize)
	}
	windowSize := frameSize + overlap
	freqSize := windowSize/2 + 1
	if freqSize-1 != BandLayoutBins() {
		return nil, fmt.Errorf("window of %d samples does not match the %d-bin band layout", windowSize, BandLayoutBins())
	}
	if lowpass < 1 || lowpass > freqSize {
		lowpass = freqSize
	}

	return &FrontEnd{
		frameSize:  frameSize,
		overlap:    overlap,
		windowSize: windowSize,
		freqSize:   freqSize,
		lowpass:    lowpass,
		memory:     make([]float64, overlap),
		window:     windowing.NewVorbis(windowSize, overlap),
		fft:        NewFFT(windowSize),
		buf:        make([]float64, windowSize),
	}, nil
}

// Analyze windows memory+in, returns the half spectrum and band energies, and
// keeps the last overlap samples of in for the next call. len(in) must equal
// the frame size.
func (f *FrontEnd) Analyze(in []float64) ([]complex128, []float64) {
	if len(in) != f.frameSize {
		panic(fmt.Sprintf("spectral: frame of %d samples, want %d", len(in), f.frameSize))
	}

	copy(f.buf, f.memory)
	copy(f.buf[f.overlap:], in)
	copy(f.memory, in[f.frameSize-f.overlap:])

	if err := f.window.ApplyInPlace(f.buf); err != nil {
		panic(fmt.Sprintf("spectral: %v", err))
	}
	X := f.fft.Forward(f.buf)
	for i := f.lowpass; i < f.freqSize; i++ {
		X[i] = 0
	}
	return X, BandEnergy(X)
}

// Memory returns the overlap memory. The slice aliases internal state.
func (f *FrontEnd) Memory() []float64 {
	return f.memory
}

// FreqSize returns the number of half-spectrum bins
func (f *FrontEnd) FreqSize() int {
	return f.freqSize
}

// Reset clears the overlap memory
func (f *FrontEnd) Reset() {
	clear(f.memory)
}
