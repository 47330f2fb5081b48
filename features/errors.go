package features

import (
	"errors"

	"github.com/RyanBlaney/sonido-lpc/features/config"
)

var (
	// ErrFrameLength is returned when a frame does not hold exactly FrameSize samples
	ErrFrameLength = errors.New("frame length mismatch")

	// ErrInvalidConfig aliases the analyzer configuration error
	ErrInvalidConfig = config.ErrInvalidConfig
)
