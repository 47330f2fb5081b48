package temporal

import (
	"math"
)

// Default thresholds for 10 ms frames of 16-bit speech, in squared sample units.
const (
	DefaultSilenceEnterEnergy = 5000.0
	DefaultSilenceStayEnergy  = 20000.0
)

// SilenceGate is a frame-level voice activity gate with hysteresis.
//
// A frame is silent when its energy is below the enter threshold, or below the
// higher stay threshold while the gate is already closed. While closed the
// caller drops frames. When the gate reopens the first active frame is
// cross-faded from the last frame seen before the gate closed so that the
// kept audio remains continuous.
type SilenceGate struct {
	enterEnergy float64
	stayEnergy  float64

	lastSilent bool
	saved      []int16
}

// NewSilenceGate creates a closed gate with the default thresholds
func NewSilenceGate(frameSize int) *SilenceGate {
	return NewSilenceGateWithThresholds(frameSize, DefaultSilenceEnterEnergy, DefaultSilenceStayEnergy)
}

// NewSilenceGateWithThresholds creates a closed gate with custom thresholds
func NewSilenceGateWithThresholds(frameSize int, enterEnergy, stayEnergy float64) *SilenceGate {
	return &SilenceGate{
		enterEnergy: enterEnergy,
		stayEnergy:  stayEnergy,
		lastSilent:  true,
		saved:       make([]int16, frameSize),
	}
}

// FrameEnergy returns the sum of squared samples
func FrameEnergy(frame []int16) float64 {
	var e float64
	for _, s := range frame {
		v := float64(s)
		e += v * v
	}
	return e
}

// Step advances the gate by one frame. prev is the frame about to be
// processed and next is the frame that follows it. next may be rewritten in
// place when the gate reopens. Step reports whether prev should be kept.
func (sg *SilenceGate) Step(prev, next []int16) bool {
	e := FrameEnergy(next)
	silent := e < sg.enterEnergy || (sg.lastSilent && e < sg.stayEnergy)

	if !sg.lastSilent && silent {
		copy(sg.saved, prev)
	}
	if sg.lastSilent && !silent {
		n := float64(len(next))
		for i := range next {
			f := float64(i) / n
			next[i] = int16(math.Floor(0.5 + f*float64(next[i]) + (1-f)*float64(sg.saved[i])))
		}
	}

	keep := !sg.lastSilent
	sg.lastSilent = silent
	return keep
}

// Silent reports whether the gate is currently closed
func (sg *SilenceGate) Silent() bool {
	return sg.lastSilent
}

// Reset closes the gate and forgets the saved frame
func (sg *SilenceGate) Reset() {
	sg.lastSilent = true
	clear(sg.saved)
}
