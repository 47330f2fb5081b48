package spectral

// NbBands is the number of perceptual bands of the 16 kHz layout.
const NbBands = 18

// bandEdges5ms holds the band edges in units of the 5 ms bin spacing
// (one unit is windowScale5ms FFT bins of the 20 ms analysis window).
var bandEdges5ms = [NbBands]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 12, 14, 16, 20, 24, 28, 34, 40}

const windowScale5ms = 4

// BandLayoutBins returns the number of FFT bins the band layout spans, i.e.
// the frequency size (minus the Nyquist bin) it expects.
func BandLayoutBins() int {
	return bandEdges5ms[NbBands-1] * windowScale5ms
}

// BandEnergy reduces a half spectrum to NbBands energies. Each bin's power is
// split between the two neighbouring band centres with triangular weights;
// the outermost bands only receive one side and are doubled.
func BandEnergy(X []complex128) []float64 {
	sum := make([]float64, NbBands)
	for i := 0; i < NbBands-1; i++ {
		start := bandEdges5ms[i] * windowScale5ms
		bandSize := (bandEdges5ms[i+1] - bandEdges5ms[i]) * windowScale5ms
		for j := 0; j < bandSize; j++ {
			frac := float64(j) / float64(bandSize)
			re, im := real(X[start+j]), imag(X[start+j])
			p := re*re + im*im
			sum[i] += (1 - frac) * p
			sum[i+1] += frac * p
		}
	}
	sum[0] *= 2
	sum[NbBands-1] *= 2
	return sum
}

// InterpBandGain expands NbBands gains back to freqSize bins by linear
// interpolation between band centres. Bins past the last band edge are zero.
func InterpBandGain(bandE []float64, freqSize int) []float64 {
	g := make([]float64, freqSize)
	for i := 0; i < NbBands-1; i++ {
		start := bandEdges5ms[i] * windowScale5ms
		bandSize := (bandEdges5ms[i+1] - bandEdges5ms[i]) * windowScale5ms
		for j := 0; j < bandSize && start+j < freqSize; j++ {
			frac := float64(j) / float64(bandSize)
			g[start+j] = (1-frac)*bandE[i] + frac*bandE[i+1]
		}
	}
	return g
}
