package spectral

import "math"

// DCT is an orthonormal DCT-II of fixed size. Its inverse is the transpose,
// so IDCT(DCT(x)) == x up to rounding.
type DCT struct {
	size   int
	matrix [][]float64
}

// NewDCT builds the transform matrix for the given size
func NewDCT(size int) *DCT {
	d := &DCT{size: size}
	d.createMatrix()
	return d
}

func (d *DCT) createMatrix() {
	d.matrix = make([][]float64, d.size)
	norm := math.Sqrt(2.0 / float64(d.size))

	for k := 0; k < d.size; k++ {
		d.matrix[k] = make([]float64, d.size)
		for n := 0; n < d.size; n++ {
			d.matrix[k][n] = norm * math.Cos(math.Pi*float64(k)*(float64(n)+0.5)/float64(d.size))
			if k == 0 {
				d.matrix[k][n] *= math.Sqrt(0.5)
			}
		}
	}
}

// Size returns the transform length
func (d *DCT) Size() int {
	return d.size
}

// Forward applies the DCT-II
func (d *DCT) Forward(in []float64) []float64 {
	out := make([]float64, d.size)
	for k := 0; k < d.size; k++ {
		sum := 0.0
		for n := 0; n < d.size; n++ {
			sum += in[n] * d.matrix[k][n]
		}
		out[k] = sum
	}
	return out
}

// Inverse applies the DCT-III (transpose of Forward)
func (d *DCT) Inverse(in []float64) []float64 {
	out := make([]float64, d.size)
	for n := 0; n < d.size; n++ {
		sum := 0.0
		for k := 0; k < d.size; k++ {
			sum += in[k] * d.matrix[k][n]
		}
		out[n] = sum
	}
	return out
}
