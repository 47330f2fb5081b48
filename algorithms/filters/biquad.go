package filters

// Biquad is a second-order IIR section in transposed direct form II with a
// unit leading numerator coefficient:
//
//	y[n] = x[n] + b0*x[n-1] + b1*x[n-2] - a0*y[n-1] - a1*y[n-2]
type Biquad struct {
	b   [2]float64
	a   [2]float64
	mem [2]float64
}

// NewBiquad creates a section with numerator {1, b0, b1} and denominator
// {1, a0, a1}
func NewBiquad(b, a [2]float64) *Biquad {
	return &Biquad{b: b, a: a}
}

// NewDCBlocker creates the double-zero-at-DC high-pass used to condition
// 16 kHz speech before analysis.
func NewDCBlocker() *Biquad {
	return NewBiquad([2]float64{-2, 1}, [2]float64{-1.99599, 0.99600})
}

// Process filters x into y. y and x may be the same slice.
func (bq *Biquad) Process(y, x []float64) {
	for i, xi := range x {
		yi := xi + bq.mem[0]
		bq.mem[0] = bq.mem[1] + (bq.b[0]*xi - bq.a[0]*yi)
		bq.mem[1] = bq.b[1]*xi - bq.a[1]*yi
		y[i] = yi
	}
}

// SetCoefficients replaces the coefficients and keeps the filter memory
func (bq *Biquad) SetCoefficients(b, a [2]float64) {
	bq.b = b
	bq.a = a
}

// Reset clears the filter memory
func (bq *Biquad) Reset() {
	bq.mem = [2]float64{}
}
