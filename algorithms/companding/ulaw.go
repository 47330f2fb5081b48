// Package companding maps linear 16-bit sample values to 8-bit u-law codes
// and back using the continuous (non-segmented) mu = 255 curve.
package companding

import (
	"math"
)

const (
	// ln(256)
	log256 = 5.5451774445

	ulawScale    = 255.0 / 32768.0
	ulawScaleInv = 32768.0 / 255.0

	// MaxCode is the largest u-law code
	MaxCode = 255
)

// Lin2Ulaw encodes a linear sample in [-32768, 32767] as a code in [0, 255].
// Code 128 is zero.
func Lin2Ulaw(x float64) int {
	s := 1.0
	if x < 0 {
		s = -1
	}
	x = math.Abs(x)
	u := 128 + s*(128*math.Log(1+ulawScale*x)/log256)
	u = max(0, min(MaxCode, u))
	return int(math.Floor(0.5 + u))
}

// Ulaw2Lin decodes a u-law code back to a linear sample value
func Ulaw2Lin(code int) float64 {
	u := float64(code) - 128
	s := 1.0
	if u < 0 {
		s = -1
	}
	u = math.Abs(u)
	return s * ulawScaleInv * (math.Exp(u/128*log256) - 1)
}
