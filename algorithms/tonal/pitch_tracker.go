package tonal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-lpc/algorithms/stats"
)

const (
	// PitchGroupFrames is the number of frames one pitch contour covers
	PitchGroupFrames = 4

	// PitchHistorySlots is the number of half-frame correlation curves
	// searched per group: two carried over plus two per frame.
	PitchHistorySlots = 2 + 2*PitchGroupFrames

	// Bounds of the quantized contour
	PitchIndexMax      = 63
	PitchModulationMax = 3

	// MaxPeriodRatio is the widest MaxPeriod/MinPeriod span the main index
	// can represent: 2^(PitchIndexMax/21).
	MaxPeriodRatio = 8

	// MinSearchPeriod is the shortest candidate period with a non-empty
	// period/5 search window.
	MinSearchPeriod = 5
)

const (
	// log-domain resolution of the main index
	pitchStepsPerOctave = 21.0

	// maps a relative slope per slot to modulation steps
	modulationScale = 16.0 * 7.0

	hysteresis         = 0.15
	voicingThreshold   = 0.45
	weakCorrelation    = 0.5
	escapeRatio        = 1.2
	weightOffset       = 0.2
	weightGain         = 5.0
	minWeight          = 0.1
	contourCentre      = 5.5
	maxRelativeSlope   = 1.0 / 32
	periodFeatureScale = 0.02
	periodFeatureBias  = 100.0
)

// PitchTrackerParams configures the period range and frame length
type PitchTrackerParams struct {
	MinPeriod int `json:"min_period"` // shortest period in samples (default: 32)
	MaxPeriod int `json:"max_period"` // longest period in samples (default: 256)
	FrameSize int `json:"frame_size"` // samples per frame (default: 160)
}

// DefaultPitchTrackerParams returns the 16 kHz defaults
func DefaultPitchTrackerParams() PitchTrackerParams {
	return PitchTrackerParams{
		MinPeriod: 32,
		MaxPeriod: 256,
		FrameSize: 160,
	}
}

// Validate checks that the period search window is usable
func (p PitchTrackerParams) Validate() error {
	if p.FrameSize <= 0 || p.FrameSize%2 != 0 {
		return fmt.Errorf("frame size must be positive and even, got %d", p.FrameSize)
	}
	if p.MinPeriod <= 0 {
		return fmt.Errorf("min period must be positive, got %d", p.MinPeriod)
	}
	if p.MinPeriod*5/4 < MinSearchPeriod {
		return fmt.Errorf("min period %d yields candidate periods below %d samples", p.MinPeriod, MinSearchPeriod)
	}
	if p.MaxPeriod-p.MinPeriod*5/4 < 0 {
		return fmt.Errorf("max period %d leaves no search range above min period %d", p.MaxPeriod, p.MinPeriod)
	}
	if p.MaxPeriod > p.MinPeriod*MaxPeriodRatio {
		return fmt.Errorf("period range [%d, %d] exceeds the %d:1 span of the pitch index", p.MinPeriod, p.MaxPeriod, MaxPeriodRatio)
	}
	return nil
}

// PitchEstimate is the contour fitted over one group of frames
type PitchEstimate struct {
	CoarsePeriod int     `json:"coarse_period"` // winner of the coarse search
	Correlation  float64 `json:"correlation"`   // weighted mean of per-slot peaks
	Voiced       bool    `json:"voiced"`

	Slope     float64 `json:"slope"`     // period change per half frame
	Intercept float64 `json:"intercept"` // period at slot 0

	MainIndex  int `json:"main_index"` // 0..63, 21 steps per octave above MinPeriod
	Modulation int `json:"modulation"` // -3..3

	SubPeriods [PitchHistorySlots]int     `json:"sub_periods"`
	Peaks      [PitchHistorySlots]float64 `json:"peaks"`
	Periods    [PitchGroupFrames]float64  `json:"periods"` // reconstructed per-frame periods
}

// PeriodFeature returns the centred period feature 0.02*(period-100) of a frame
func (e *PitchEstimate) PeriodFeature(frame int) float64 {
	return periodFeatureScale * (e.Periods[frame] - periodFeatureBias)
}

// VoicingFeature returns +1 for voiced groups and -1 otherwise
func (e *PitchEstimate) VoicingFeature() float64 {
	if e.Voiced {
		return 1
	}
	return -1
}

// PitchTracker estimates a linear pitch contour every PitchGroupFrames frames
// from the normalized cross-correlation of an excitation signal.
//
// Each frame contributes two half-frame correlation curves to a rolling
// history; the last two curves of a group are kept as context for the next.
type PitchTracker struct {
	minPeriod int
	maxPeriod int
	frameSize int

	excBuf       []float64
	xc           [PitchHistorySlots][]float64
	ener         [PitchHistorySlots][]float64
	frameMaxCorr []float64
	count        int

	xcorr []float64
}

// NewPitchTracker creates a tracker with default parameters
func NewPitchTracker() *PitchTracker {
	t, _ := NewPitchTrackerWithParams(DefaultPitchTrackerParams())
	return t
}

// NewPitchTrackerWithParams creates a tracker with custom parameters
func NewPitchTrackerWithParams(params PitchTrackerParams) (*PitchTracker, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pitch tracker parameters: %w", err)
	}

	t := &PitchTracker{
		minPeriod:    params.MinPeriod,
		maxPeriod:    params.MaxPeriod,
		frameSize:    params.FrameSize,
		excBuf:       make([]float64, params.MaxPeriod+params.FrameSize),
		frameMaxCorr: make([]float64, params.MaxPeriod),
		xcorr:        make([]float64, params.MaxPeriod),
	}
	for s := range t.xc {
		t.xc[s] = make([]float64, params.MaxPeriod)
		t.ener[s] = make([]float64, params.MaxPeriod)
	}
	return t, nil
}

// Push appends one frame of excitation. It returns the group's estimate on
// every PitchGroupFrames-th call and nil otherwise.
func (t *PitchTracker) Push(exc []float64) *PitchEstimate {
	if len(exc) != t.frameSize {
		panic(fmt.Sprintf("tonal: excitation frame of %d samples, want %d", len(exc), t.frameSize))
	}

	copy(t.excBuf, t.excBuf[t.frameSize:])
	copy(t.excBuf[t.maxPeriod:], exc)

	half := t.frameSize / 2
	for sub := 0; sub < 2; sub++ {
		off := sub * half
		x := t.excBuf[t.maxPeriod+off:]
		slot := 2 + 2*t.count + sub

		stats.PitchXcorr(x, t.excBuf[off:], t.xcorr, half, t.maxPeriod)
		ener0 := stats.InnerProduct(x, x, half)
		for i := 0; i < t.maxPeriod; i++ {
			y := t.excBuf[i+off:]
			e := 1 + ener0 + stats.InnerProduct(y, y, half)
			t.ener[slot][i] = e
			t.xc[slot][i] = 2 * t.xcorr[i] / e
		}
	}

	t.count++
	if t.count < PitchGroupFrames {
		return nil
	}

	est := t.search()
	t.rollover()
	return est
}

// Pending returns how many frames of the current group have been pushed
func (t *PitchTracker) Pending() int {
	return t.count
}

// Excitation returns the excitation ring buffer: MaxPeriod samples of
// look-back followed by the most recent frame. The slice aliases internal
// state and keeps its length for the tracker's lifetime.
func (t *PitchTracker) Excitation() []float64 {
	return t.excBuf
}

// Reset returns the tracker to its zero state
func (t *PitchTracker) Reset() {
	clear(t.excBuf)
	clear(t.frameMaxCorr)
	for s := range t.xc {
		clear(t.xc[s])
		clear(t.ener[s])
	}
	t.count = 0
}

// xcAt reads a correlation curve, treating lags outside the curve as zero
func (t *PitchTracker) xcAt(slot, lag int) float64 {
	if lag < 0 || lag >= t.maxPeriod {
		return 0
	}
	return t.xc[slot][lag]
}

func (t *PitchTracker) search() *PitchEstimate {
	bestPeriod := t.coarseSearch()
	est := &PitchEstimate{CoarsePeriod: bestPeriod}

	i := t.maxPeriod - bestPeriod
	span := bestPeriod / 5

	x := make([]float64, PitchHistorySlots)
	y := make([]float64, PitchHistorySlots)
	w := make([]float64, PitchHistorySlots)

	for sub := 0; sub < PitchHistorySlots; sub++ {
		subPeriod := t.minPeriod
		maxXc := -1000.0
		for j := 0; j < span; j++ {
			k := i + j
			curr := t.xc[sub][k]
			if sub > 0 && sub < PitchHistorySlots-1 {
				prev, next := sub-1, sub+1
				neighbours := max(
					t.xcAt(prev, k)+t.xcAt(next, k),
					t.xcAt(prev, k-1)+t.xcAt(next, k+1),
					t.xcAt(prev, k+1)+t.xcAt(next, k-1),
				)
				curr = 0.5*curr + 0.25*neighbours
			}
			if curr > maxXc {
				maxXc = curr
				subPeriod = bestPeriod - j
			}
		}

		x[sub] = float64(sub)
		y[sub] = float64(subPeriod)
		w[sub] = ContourWeight(maxXc)
		est.SubPeriods[sub] = subPeriod
		est.Peaks[sub] = maxXc
	}

	est.Correlation = stat.Mean(est.Peaks[:], w)
	est.Voiced = est.Correlation > voicingThreshold

	slope, ok := RegressContour(x, y, w)
	if !ok {
		est.Voiced = false
	}
	meanPeriod := stat.Mean(y, w)
	if est.Voiced {
		maxSlope := meanPeriod * maxRelativeSlope
		slope = min(maxSlope, max(-maxSlope, slope))
	} else {
		slope = 0
	}
	est.Slope = slope
	est.Intercept = meanPeriod - slope*stat.Mean(x, w)

	centre := est.Intercept + contourCentre*slope
	est.MainIndex, est.Modulation = QuantizeContour(centre, slope, t.minPeriod)
	for f := 0; f < PitchGroupFrames; f++ {
		est.Periods[f] = ReconstructPeriod(est.MainIndex, est.Modulation, f, t.minPeriod, t.maxPeriod)
	}
	return est
}

// coarseSearch scores every candidate period by the energy-weighted maxima of
// all history curves over a window of period/5 lags (about four semitones)
// and returns the preferred period.
func (t *PitchTracker) coarseSearch() int {
	bestCorr := -100.0
	bestPeriod := t.minPeriod

	for i := t.maxPeriod - t.minPeriod*5/4; i >= 0; i-- {
		period := t.maxPeriod - i
		span := period / 5

		num, den := 0.0, 0.0
		for sub := 0; sub < PitchHistorySlots; sub++ {
			maxXc, maxEner := -1000.0, 0.0
			for j := 0; j < span; j++ {
				if t.xc[sub][i+j] > maxXc {
					maxXc = t.xc[sub][i+j]
					maxEner = t.ener[sub][i+j]
				}
			}
			num += maxXc * maxEner
			den += maxEner
		}

		corr := num / den
		corr = max(corr, t.frameMaxCorr[i]-hysteresis)
		t.frameMaxCorr[i] = corr

		if corr > bestCorr {
			if period < bestPeriod*5/4 || (corr > escapeRatio*bestCorr && bestCorr < weakCorrelation) {
				bestCorr = corr
				bestPeriod = period
			}
		}
	}
	return bestPeriod
}

// rollover keeps the group's last two curves as context for the next group
func (t *PitchTracker) rollover() {
	copy(t.xc[0], t.xc[PitchHistorySlots-2])
	copy(t.xc[1], t.xc[PitchHistorySlots-1])
	copy(t.ener[0], t.ener[PitchHistorySlots-2])
	copy(t.ener[1], t.ener[PitchHistorySlots-1])
	t.count = 0
}

// ContourWeight maps a slot's peak correlation to its regression weight,
// 5*(peak-0.2) clamped to [0.1, 1].
func ContourWeight(peak float64) float64 {
	return max(minWeight, min(1, weightGain*(peak-weightOffset)))
}

// RegressContour returns the weighted least-squares slope of y against x.
// ok is false, and the slope 0, when the fit is degenerate (no spread in x).
func RegressContour(x, y, w []float64) (slope float64, ok bool) {
	_, slope = stat.LinearRegression(x, y, w, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, false
	}
	return slope, true
}

// QuantizeContour maps a contour centre period and slope to a 6-bit log
// period index and a 3-level signed modulation. Non-positive or non-finite
// centres quantize to (0, 0).
func QuantizeContour(centre, slope float64, minPeriod int) (mainIndex, modulation int) {
	if !(centre > 0) || math.IsInf(centre, 0) {
		return 0, 0
	}

	idx := pitchStepsPerOctave * math.Log2(centre/float64(minPeriod))
	idx = min(PitchIndexMax, max(0, idx))
	mainIndex = int(math.Floor(0.5 + idx))

	mod := modulationScale * slope / centre
	if math.IsNaN(mod) {
		mod = 0
	}
	mod = min(PitchModulationMax, max(-PitchModulationMax, mod))
	modulation = int(math.Floor(0.5 + mod))
	return mainIndex, modulation
}

// ReconstructPeriod returns the period of frame (0..3) of a group from its
// quantized contour, clamped to [minPeriod, maxPeriod].
func ReconstructPeriod(mainIndex, modulation, frame, minPeriod, maxPeriod int) float64 {
	p := math.Pow(2, float64(mainIndex)/pitchStepsPerOctave) * float64(minPeriod)
	p *= 1 + float64(modulation)/modulationScale*float64(2*frame-3)
	return min(float64(maxPeriod), max(float64(minPeriod), p))
}
