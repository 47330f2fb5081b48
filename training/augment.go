package training

import (
	"math"
	"math/rand"

	"github.com/RyanBlaney/sonido-lpc/algorithms/filters"
)

const (
	// spread of the random response biquad coefficients around zero
	responseSpread = 0.75

	// speech gain is drawn in whole dB from [gainMinDB, gainMinDB+gainRangeDB)
	gainMinDB   = -20
	gainRangeDB = 40

	attenuateOdds = 20  // 1 in 20 draws are attenuated by 40 dB
	muteOdds      = 100 // 1 in 100 draws are muted
	attenuation   = 0.01
)

// Augmenter conditions input frames before analysis. It always removes DC,
// applies pre-emphasis and adds uniform dither. When randomization is on it
// also applies a random spectral tilt and a random speech gain, both redrawn
// every gainInterval frames.
type Augmenter struct {
	rng       *rand.Rand
	randomize bool

	dcBlock  *filters.Biquad
	response *filters.Biquad
	preEmph  *filters.PreEmphasis

	gainInterval int
	gainCount    int
	gain         float64
	oldGain      float64
	noiseStd     float64
}

// NewAugmenter creates an augmenter drawing from rng
func NewAugmenter(rng *rand.Rand, randomize bool, gainInterval int) *Augmenter {
	return &Augmenter{
		rng:          rng,
		randomize:    randomize,
		dcBlock:      filters.NewDCBlocker(),
		response:     filters.NewBiquad([2]float64{}, [2]float64{}),
		preEmph:      filters.NewPreEmphasisDefault(),
		gainInterval: gainInterval,
		gain:         1,
		oldGain:      1,
	}
}

// Process conditions x in place
func (a *Augmenter) Process(x []float64) {
	if a.randomize {
		a.gainCount++
		if a.gainCount > a.gainInterval {
			a.redraw()
		}
	}

	a.dcBlock.Process(x, x)
	a.response.Process(x, x)
	a.preEmph.ProcessInPlace(x)

	n := float64(len(x))
	for i := range x {
		f := float64(i) / n
		x[i] *= f*a.gain + (1-f)*a.oldGain
	}
	for i := range x {
		x[i] += a.rng.Float64() - 0.5
	}
	a.oldGain = a.gain
}

func (a *Augmenter) redraw() {
	a.gain = math.Pow(10, float64(gainMinDB+a.rng.Intn(gainRangeDB))/20)
	if a.rng.Intn(attenuateOdds) == 0 {
		a.gain *= attenuation
	}
	if a.rng.Intn(muteOdds) == 0 {
		a.gain = 0
	}
	a.gainCount = 0

	var ra, rb [2]float64
	ra[0] = responseSpread * (a.rng.Float64() - 0.5)
	ra[1] = responseSpread * (a.rng.Float64() - 0.5)
	rb[0] = responseSpread * (a.rng.Float64() - 0.5)
	rb[1] = responseSpread * (a.rng.Float64() - 0.5)
	a.response.SetCoefficients(rb, ra)

	u := a.rng.Float64()
	a.noiseStd = 4 * u * u
}

// Gain returns the current speech gain
func (a *Augmenter) Gain() float64 {
	return a.gain
}

// NoiseStd returns the current simulated excitation noise level
func (a *Augmenter) NoiseStd() float64 {
	return a.noiseStd
}
