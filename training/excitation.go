package training

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/RyanBlaney/sonido-lpc/algorithms/companding"
)

// laplaceScale converts the noise level to the scale of the Laplacian noise
const laplaceScale = 0.707

// ExcitationWriter writes four u-law bytes per sample for vocoder training:
// the reconstructed signal, the LPC prediction, the previous excitation and
// the current excitation. Excitation fed back into the reconstruction is
// perturbed with Laplacian noise to simulate sampling error.
type ExcitationWriter struct {
	w   *bufio.Writer
	rng *rand.Rand

	sigMem []float64
	excMem int
	buf    []byte
}

// NewExcitationWriter creates a writer for predictors of the given order
func NewExcitationWriter(w io.Writer, rng *rand.Rand, order int) *ExcitationWriter {
	return &ExcitationWriter{
		w:      bufio.NewWriter(w),
		rng:    rng,
		sigMem: make([]float64, order),
	}
}

// WriteFrame encodes one frame of pcm predicted with lpc
func (ew *ExcitationWriter) WriteFrame(lpc []float64, pcm []int16, noiseStd float64) error {
	if cap(ew.buf) < 4*len(pcm) {
		ew.buf = make([]byte, 4*len(pcm))
	}
	buf := ew.buf[:4*len(pcm)]
	order := len(ew.sigMem)

	for i, s := range pcm {
		var p float64
		for j := 0; j < order; j++ {
			p -= lpc[j] * ew.sigMem[j]
		}
		e := companding.Lin2Ulaw(float64(s) - p)

		buf[4*i] = byte(companding.Lin2Ulaw(ew.sigMem[0]))
		buf[4*i+1] = byte(companding.Lin2Ulaw(p))
		buf[4*i+2] = byte(ew.excMem)
		buf[4*i+3] = byte(e)

		e += ew.laplaceNoise(noiseStd)
		e = min(companding.MaxCode, max(0, e))

		copy(ew.sigMem[1:], ew.sigMem[:order-1])
		ew.sigMem[0] = p + companding.Ulaw2Lin(e)
		ew.excMem = e
	}

	if _, err := ew.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write excitation frame: %w", err)
	}
	return nil
}

// laplaceNoise draws rounded Laplacian noise as the difference of two
// exponential variates
func (ew *ExcitationWriter) laplaceNoise(std float64) int {
	u1 := 1 - ew.rng.Float64()
	u2 := 1 - ew.rng.Float64()
	return int(math.Floor(0.5 + std*laplaceScale*(math.Log(u1)-math.Log(u2))))
}

// Flush writes any buffered data to the underlying writer
func (ew *ExcitationWriter) Flush() error {
	return ew.w.Flush()
}
