package config

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-lpc/algorithms/tonal"
)

// ErrInvalidConfig is returned (wrapped) by Validate
var ErrInvalidConfig = errors.New("invalid analyzer configuration")

// Layout selects the order and width of emitted feature vectors
type Layout string

const (
	// LayoutCompact packs ceps, pitch, voicing, log gain and LPC (37 values)
	LayoutCompact Layout = "compact"

	// LayoutLPCNet uses the 55-value LPCNet record order: ceps, an 18-slot
	// block, pitch, voicing, log gain and LPC. The block is written as zeros,
	// as LPCNet's own dump does, unless DeltaCepstrum is set.
	LayoutLPCNet Layout = "lpcnet"
)

// AnalyzerConfig configures the per-stream feature analyzer
type AnalyzerConfig struct {
	Layout Layout `json:"layout" yaml:"layout" mapstructure:"layout"`

	// Bins at or above this index are zeroed before banding. 0 keeps the full band.
	LowpassBins int `json:"lowpass_bins" yaml:"lowpass_bins" mapstructure:"lowpass_bins"`

	// Fill the lpcnet layout's 18-slot block with regression deltas of the
	// first cepstral coefficients. Records then differ from LPCNet's dump.
	DeltaCepstrum bool `json:"delta_cepstrum" yaml:"delta_cepstrum" mapstructure:"delta_cepstrum"`

	PitchMinPeriod int `json:"pitch_min_period" yaml:"pitch_min_period" mapstructure:"pitch_min_period"`
	PitchMaxPeriod int `json:"pitch_max_period" yaml:"pitch_max_period" mapstructure:"pitch_max_period"`
}

// DefaultAnalyzerConfig returns the 16 kHz wideband configuration
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Layout:         LayoutCompact,
		LowpassBins:    0,
		PitchMinPeriod: 32,
		PitchMaxPeriod: 256,
	}
}

// Validate checks the configuration
func (c AnalyzerConfig) Validate() error {
	switch c.Layout {
	case LayoutCompact, LayoutLPCNet:
	default:
		return fmt.Errorf("%w: unknown layout %q", ErrInvalidConfig, c.Layout)
	}
	if c.LowpassBins < 0 {
		return fmt.Errorf("%w: lowpass bins cannot be negative", ErrInvalidConfig)
	}
	if c.DeltaCepstrum && c.Layout != LayoutLPCNet {
		return fmt.Errorf("%w: delta cepstrum needs the %s layout", ErrInvalidConfig, LayoutLPCNet)
	}
	if c.PitchMinPeriod <= 0 || c.PitchMaxPeriod <= c.PitchMinPeriod {
		return fmt.Errorf("%w: pitch period range [%d, %d] is empty", ErrInvalidConfig, c.PitchMinPeriod, c.PitchMaxPeriod)
	}

	params := tonal.DefaultPitchTrackerParams()
	params.MinPeriod = c.PitchMinPeriod
	params.MaxPeriod = c.PitchMaxPeriod
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
