package features

import (
	"fmt"

	"github.com/RyanBlaney/sonido-lpc/algorithms/spectral"
	"github.com/RyanBlaney/sonido-lpc/algorithms/speech"
	"github.com/RyanBlaney/sonido-lpc/algorithms/tonal"
	"github.com/RyanBlaney/sonido-lpc/features/config"
	"github.com/RyanBlaney/sonido-lpc/logging"
)

// Analyzer turns a stream of FrameSize-sample frames into feature vectors.
//
// It owns all per-stream state and is not safe for concurrent use; run one
// Analyzer per stream. Frames must be supplied in order.
type Analyzer struct {
	cfg    config.AnalyzerConfig
	logger logging.Logger

	frontEnd  *spectral.FrontEnd
	encoder   *spectral.CepstralEncoder
	fitter    *speech.LPCFitter
	excFilter *speech.ExcitationFilter
	tracker   *tonal.PitchTracker
	assembler *Assembler

	cepsHistory [CepsMem][]float64
	cepsPos     int
	delta       []float64

	pitchBuf []float64
	aligned  []float64
	exc      []float64

	lastGain float64
	lastLPC  []float64

	frames int64
	groups int64
}

// NewAnalyzer creates an analyzer in its zero state. A nil logger falls
// back to the global logger.
func NewAnalyzer(cfg config.AnalyzerConfig, logger logging.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fields, err := FieldsFor(cfg.Layout)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	frontEnd, err := spectral.NewFrontEnd(FrameSize, OverlapSize, cfg.LowpassBins)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	tracker, err := tonal.NewPitchTrackerWithParams(tonal.PitchTrackerParams{
		MinPeriod: cfg.PitchMinPeriod,
		MaxPeriod: cfg.PitchMaxPeriod,
		FrameSize: FrameSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	a := &Analyzer{
		cfg: cfg,
		logger: logger.WithFields(logging.Fields{
			"component": "feature_analyzer",
			"layout":    string(cfg.Layout),
		}),
		frontEnd:  frontEnd,
		encoder:   spectral.NewCepstralEncoder(),
		fitter:    speech.NewLPCFitter(LPCOrder, WindowSize),
		excFilter: speech.NewExcitationFilter(LPCOrder),
		tracker:   tracker,
		assembler: NewAssembler(fields),
		delta:     make([]float64, spectral.NbBands),
		pitchBuf:  make([]float64, cfg.PitchMaxPeriod+FrameSize),
		aligned:   make([]float64, FrameSize),
		exc:       make([]float64, FrameSize),
		lastLPC:   make([]float64, LPCOrder),
	}
	for i := range a.cepsHistory {
		a.cepsHistory[i] = make([]float64, spectral.NbBands)
	}
	return a, nil
}

// Fields returns the layout of emitted vectors
func (a *Analyzer) Fields() Fields {
	return a.assembler.Fields()
}

// ProcessFrame analyses one frame. It returns a Batch of four vectors when
// the frame completes a pitch group and nil otherwise.
func (a *Analyzer) ProcessFrame(in []float64) (*Batch, error) {
	if len(in) != FrameSize {
		return nil, fmt.Errorf("%w: got %d samples, want %d", ErrFrameLength, len(in), FrameSize)
	}

	// residual input lags the analysis frame by TrainingOffset samples
	mem := a.frontEnd.Memory()
	copy(a.aligned, mem[OverlapSize-TrainingOffset:])
	copy(a.aligned[TrainingOffset:], in[:FrameSize-TrainingOffset])

	_, bandE := a.frontEnd.Analyze(in)
	ceps, _ := a.encoder.Encode(bandE)
	lpc, gain := a.fitter.FromCepstrum(ceps)

	a.pushCepstrum(ceps)
	a.lastGain = gain
	copy(a.lastLPC, lpc)

	// the lagged input is filtered with this frame's LPC, not the previous one
	a.excFilter.Process(a.lastLPC, a.aligned, a.exc)

	copy(a.pitchBuf, a.pitchBuf[FrameSize:])
	copy(a.pitchBuf[len(a.pitchBuf)-FrameSize:], in)

	var delta []float64
	if a.cfg.DeltaCepstrum {
		delta = a.deltaCepstrum()
	}
	a.assembler.SetFrame(a.tracker.Pending(), ceps, delta, gain, lpc)
	a.frames++

	est := a.tracker.Push(a.exc)
	if est == nil {
		return nil, nil
	}

	a.groups++
	a.logger.Debug("Pitch group completed", logging.Fields{
		"group":       a.groups,
		"main_index":  est.MainIndex,
		"modulation":  est.Modulation,
		"voiced":      est.Voiced,
		"correlation": est.Correlation,
	})
	return a.assembler.Complete(est), nil
}

func (a *Analyzer) pushCepstrum(ceps []float64) {
	copy(a.cepsHistory[a.cepsPos], ceps)
	a.cepsPos = (a.cepsPos + 1) % CepsMem
}

// cepstrumAt returns the cepstrum age frames before the most recent one
func (a *Analyzer) cepstrumAt(age int) []float64 {
	return a.cepsHistory[(a.cepsPos-1-age+2*CepsMem)%CepsMem]
}

// deltaCepstrum fits a regression slope to the first NbDeltaCeps
// coefficients over the last 2*deltaSpan+1 frames, centred deltaSpan
// frames back.
func (a *Analyzer) deltaCepstrum() []float64 {
	var denom float64
	for n := 1; n <= deltaSpan; n++ {
		denom += float64(n * n)
	}
	denom *= 2

	clear(a.delta)
	for n := 1; n <= deltaSpan; n++ {
		ahead := a.cepstrumAt(deltaSpan - n)
		behind := a.cepstrumAt(deltaSpan + n)
		for k := 0; k < NbDeltaCeps; k++ {
			a.delta[k] += float64(n) * (ahead[k] - behind[k])
		}
	}
	for k := 0; k < NbDeltaCeps; k++ {
		a.delta[k] /= denom
	}
	return a.delta
}

// GroupPosition returns the index of the next frame within its pitch group
func (a *Analyzer) GroupPosition() int {
	return a.tracker.Pending()
}

// Excitation returns the excitation ring buffer. The slice aliases internal
// state; its length never changes.
func (a *Analyzer) Excitation() []float64 {
	return a.tracker.Excitation()
}

// LastResidual returns the excitation computed for the most recent frame
func (a *Analyzer) LastResidual() []float64 {
	exc := a.tracker.Excitation()
	return exc[len(exc)-FrameSize:]
}

// PitchBuffer returns the ring of recent input samples, the same length as
// the excitation ring. The slice aliases internal state.
func (a *Analyzer) PitchBuffer() []float64 {
	return a.pitchBuf
}

// LastLPC returns the coefficients fitted to the most recent frame
func (a *Analyzer) LastLPC() []float64 {
	return a.lastLPC
}

// LastGain returns the prediction gain of the most recent frame
func (a *Analyzer) LastGain() float64 {
	return a.lastGain
}

// Frames returns the number of frames processed since the last Reset
func (a *Analyzer) Frames() int64 {
	return a.frames
}

// Reset returns the analyzer to its freshly constructed state
func (a *Analyzer) Reset() {
	a.frontEnd.Reset()
	a.excFilter.Reset()
	a.tracker.Reset()
	a.assembler.Reset()
	for i := range a.cepsHistory {
		clear(a.cepsHistory[i])
	}
	a.cepsPos = 0
	clear(a.pitchBuf)
	clear(a.lastLPC)
	a.lastGain = 0
	a.frames = 0
	a.groups = 0
}
