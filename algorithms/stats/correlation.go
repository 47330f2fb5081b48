package stats

import (
	"gonum.org/v1/gonum/floats"
)

// InnerProduct returns sum(x[i]*y[i]) over the first length samples.
func InnerProduct(x, y []float64, length int) float64 {
	if length <= 0 {
		return 0
	}
	return floats.Dot(x[:length], y[:length])
}

// PitchXcorr computes the cross-correlation of x against every lag of y:
//
//	xcorr[i] = sum_{j<length} x[j]*y[i+j],  0 <= i < maxPitch
//
// y must hold at least maxPitch+length-1 samples.
func PitchXcorr(x, y, xcorr []float64, length, maxPitch int) {
	if length <= 0 || maxPitch <= 0 {
		return
	}
	_ = y[maxPitch+length-2] // BCE
	x = x[:length]
	for i := 0; i < maxPitch; i++ {
		xcorr[i] = floats.Dot(x, y[i:i+length])
	}
}
