package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-lpc/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	SampleRate  int           `json:"sample_rate"`
	FFmpegPath  string        `json:"ffmpeg_path"`  // Path to ffmpeg binary
	Timeout     time.Duration `json:"timeout"`      // Timeout for one decode, 0 for none
	MaxDuration time.Duration `json:"max_duration"` // 0 decodes the whole input
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		SampleRate: 16000,
		FFmpegPath: "ffmpeg", // Assume in PATH
		Timeout:    10 * time.Minute,
	}
}

// rawExtensions are read directly as headerless s16le mono
var rawExtensions = map[string]bool{
	".s16": true,
	".raw": true,
	".pcm": true,
	".sw":  true,
}

// IsRaw reports whether path names a headerless s16le file
func IsRaw(path string) bool {
	return rawExtensions[strings.ToLower(filepath.Ext(path))]
}

// Decoder converts arbitrary audio files to 16-bit mono PCM using FFmpeg
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// Open returns a frame source for path. Raw files are streamed from disk;
// anything else is decoded in full by ffmpeg first so that the source can
// be rewound.
func (d *Decoder) Open(ctx context.Context, path string) (*RawSource, error) {
	if IsRaw(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		src := NewRawSource(f)
		src.closer = f
		return src, nil
	}

	pcm, err := d.DecodeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewRawSource(bytes.NewReader(pcm)), nil
}

// DecodeFile decodes an audio file and returns s16le mono PCM at the
// configured sample rate
func (d *Decoder) DecodeFile(ctx context.Context, filename string) ([]byte, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	args := append([]string{"-i", filename}, d.buildFFmpegArgs()...)
	args = append(args, "pipe:1") // Output to stdout

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	// Trim to whole samples
	output = output[:len(output)-len(output)%2]

	logger.Debug("Audio decoded", logging.Fields{
		"samples":  len(output) / 2,
		"duration": time.Duration(len(output)/2) * time.Second / time.Duration(d.config.SampleRate),
	})
	return output, nil
}

func (d *Decoder) buildFFmpegArgs() []string {
	args := []string{
		"-f", "s16le", // Output raw int16 little-endian
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.SampleRate),
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	// Suppress ffmpeg output
	args = append(args, "-v", "error")

	return args
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", d.config.SampleRate)
	}
	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative: %v", d.config.Timeout)
	}
	return nil
}

// CheckFFmpeg checks that the ffmpeg binary can be executed
func (d *Decoder) CheckFFmpeg(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	return nil
}
