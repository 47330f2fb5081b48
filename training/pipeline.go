package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/RyanBlaney/sonido-lpc/algorithms/temporal"
	"github.com/RyanBlaney/sonido-lpc/features"
	featconfig "github.com/RyanBlaney/sonido-lpc/features/config"
	"github.com/RyanBlaney/sonido-lpc/logging"
	"github.com/RyanBlaney/sonido-lpc/transcode"
)

// unitsPerFrame is the number of 5 ms units in one frame
const unitsPerFrame = 2

var (
	// ErrEmptySource is returned when a source does not hold a single frame
	ErrEmptySource = errors.New("source holds less than one frame")

	// ErrNoActiveFrames is returned in train mode when the silence gate
	// rejects every frame of two full passes
	ErrNoActiveFrames = errors.New("no active frames in source")
)

// Mode selects between feature extraction only and training data generation
type Mode int

const (
	// ModeTest analyses the input once with fixed conditioning
	ModeTest Mode = iota

	// ModeTrain loops over the input with silence gating and random
	// augmentation and also produces excitation labels
	ModeTrain
)

func (m Mode) String() string {
	switch m {
	case ModeTest:
		return "test"
	case ModeTrain:
		return "train"
	default:
		return "unknown"
	}
}

// FrameSource yields consecutive frames of 16-bit samples.
// *transcode.RawSource implements it.
type FrameSource interface {
	ReadFrame(dst []int16) error
	Rewind() error
}

var _ FrameSource = (*transcode.RawSource)(nil)

// Options configures one pipeline run
type Options struct {
	Mode     Mode
	Source   FrameSource
	Features io.Writer
	PCM      io.Writer // excitation labels, train mode only; may be nil

	Analyzer featconfig.AnalyzerConfig

	Seed         int64
	Augment      bool  // random gain and response in train mode
	MaxUnits     int64 // 5 ms units to produce once the input was seen in full
	GainInterval int
	SilenceEnter float64
	SilenceStay  float64

	Logger logging.Logger

	// OnFrame, when set, is called after every analysed frame
	OnFrame func(frames int64)
}

// DefaultOptions returns options matching the default configuration
func DefaultOptions() Options {
	return Options{
		Mode:         ModeTest,
		Analyzer:     featconfig.DefaultAnalyzerConfig(),
		Seed:         1,
		Augment:      true,
		MaxUnits:     10000000,
		GainInterval: 2821,
		SilenceEnter: temporal.DefaultSilenceEnterEnergy,
		SilenceStay:  temporal.DefaultSilenceStayEnergy,
	}
}

// Stats summarizes a pipeline run
type Stats struct {
	Frames        int64 `json:"frames"`
	Groups        int64 `json:"groups"`
	SkippedSilent int64 `json:"skipped_silent"`
	Passes        int64 `json:"passes"`
}

// Run drives Source through conditioning and analysis and writes feature
// records to Features. Processing runs one frame behind the reader so that
// the silence gate can look at the following frame.
func Run(ctx context.Context, opts Options) (Stats, error) {
	var stats Stats

	if opts.Source == nil || opts.Features == nil {
		return stats, fmt.Errorf("pipeline needs a source and a feature writer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithFields(logging.Fields{
		"component": "training_pipeline",
		"mode":      opts.Mode.String(),
	})

	analyzer, err := features.NewAnalyzer(opts.Analyzer, logger)
	if err != nil {
		return stats, err
	}
	training := opts.Mode == ModeTrain
	rng := rand.New(rand.NewSource(opts.Seed))

	aug := NewAugmenter(rng, training && opts.Augment, opts.GainInterval)
	gate := temporal.NewSilenceGateWithThresholds(features.FrameSize, opts.SilenceEnter, opts.SilenceStay)
	featOut := transcode.NewFeatureWriter(opts.Features, analyzer.Fields().Width)

	var excOut *ExcitationWriter
	if training && opts.PCM != nil {
		excOut = NewExcitationWriter(opts.PCM, rng, features.LPCOrder)
	}

	x := make([]float64, features.FrameSize)
	prev := make([]int16, features.FrameSize)
	next := make([]int16, features.FrameSize)
	pcm := make([]int16, features.FrameSize)
	onePassCompleted := false
	var count int64

	logger.Info("Starting feature extraction", logging.Fields{
		"layout":  string(opts.Analyzer.Layout),
		"augment": training && opts.Augment,
	})

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		copy(prev, next)
		err := opts.Source.ReadFrame(next)
		if errors.Is(err, io.EOF) {
			stats.Passes++
			if !training {
				break
			}
			if stats.Passes >= 2 && stats.Frames == 0 {
				return stats, ErrNoActiveFrames
			}
			if err := opts.Source.Rewind(); err != nil {
				return stats, err
			}
			if err := opts.Source.ReadFrame(next); err != nil {
				if errors.Is(err, io.EOF) {
					return stats, ErrEmptySource
				}
				return stats, fmt.Errorf("failed to read frame: %w", err)
			}
			onePassCompleted = true
		} else if err != nil {
			return stats, fmt.Errorf("failed to read frame: %w", err)
		}

		if training && !gate.Step(prev, next) {
			stats.SkippedSilent++
			continue
		}
		if count*unitsPerFrame >= opts.MaxUnits && onePassCompleted {
			break
		}

		for i, s := range prev {
			x[i] = float64(s)
		}
		aug.Process(x)

		batch, err := analyzer.ProcessFrame(x)
		if err != nil {
			return stats, err
		}
		if batch != nil {
			for _, v := range batch.Vectors {
				if err := featOut.Write(v); err != nil {
					return stats, err
				}
			}
			stats.Groups++
		}

		// labels are delayed by half a frame to centre them on the features
		for i := 0; i < features.FrameSize-features.TrainingOffset; i++ {
			pcm[i+features.TrainingOffset] = floatToShort(x[i])
		}
		if excOut != nil {
			if err := excOut.WriteFrame(analyzer.LastLPC(), pcm, aug.NoiseStd()); err != nil {
				return stats, err
			}
		}
		for i := 0; i < features.TrainingOffset; i++ {
			pcm[i] = floatToShort(x[i+features.FrameSize-features.TrainingOffset])
		}

		count++
		stats.Frames++
		if opts.OnFrame != nil {
			opts.OnFrame(stats.Frames)
		}
	}

	if err := featOut.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush features: %w", err)
	}
	if excOut != nil {
		if err := excOut.Flush(); err != nil {
			return stats, fmt.Errorf("failed to flush excitation: %w", err)
		}
	}

	logger.Info("Feature extraction completed", logging.Fields{
		"frames":         stats.Frames,
		"groups":         stats.Groups,
		"skipped_silent": stats.SkippedSilent,
		"passes":         stats.Passes,
	})
	return stats, nil
}

func floatToShort(x float64) int16 {
	i := math.Floor(0.5 + x)
	return int16(max(-32767, min(32767, i)))
}
