package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	featconfig "github.com/RyanBlaney/sonido-lpc/features/config"
	"github.com/RyanBlaney/sonido-lpc/logging"
)

// EnvPrefix is prepended to environment variable overrides, e.g.
// LPCDUMP_ANALYZER_LAYOUT=lpcnet.
const EnvPrefix = "LPCDUMP"

// ErrInvalidConfig is returned (wrapped) when validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	Analyzer featconfig.AnalyzerConfig `mapstructure:"analyzer" yaml:"analyzer"`
	Training TrainingConfig            `mapstructure:"training" yaml:"training"`
	Batch    BatchConfig               `mapstructure:"batch" yaml:"batch"`
	Decoder  DecoderConfig             `mapstructure:"decoder" yaml:"decoder"`
}

// TrainingConfig contains the data augmentation settings used by the train command
type TrainingConfig struct {
	Seed            int64   `mapstructure:"seed" yaml:"seed"`
	Augment         bool    `mapstructure:"augment" yaml:"augment"`
	MaxUnits        int64   `mapstructure:"max_units" yaml:"max_units"` // 5 ms units before stopping once a full pass completed
	GainInterval    int     `mapstructure:"gain_interval" yaml:"gain_interval"`
	SilenceEnter    float64 `mapstructure:"silence_enter" yaml:"silence_enter"`
	SilenceStay     float64 `mapstructure:"silence_stay" yaml:"silence_stay"`
	WriteExcitation bool    `mapstructure:"write_excitation" yaml:"write_excitation"`
}

// BatchConfig contains settings for processing many recordings
type BatchConfig struct {
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`
	Extensions  []string `mapstructure:"extensions" yaml:"extensions"`
	Progress    bool     `mapstructure:"progress" yaml:"progress"`
}

// DecoderConfig contains ffmpeg settings for non-raw inputs
type DecoderConfig struct {
	FFmpegPath string        `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NewViper returns a viper instance with defaults and environment overrides
// configured
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Analyzer.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Training.MaxUnits <= 0 {
		return fmt.Errorf("%w: training max units must be positive", ErrInvalidConfig)
	}
	if c.Training.GainInterval <= 0 {
		return fmt.Errorf("%w: training gain interval must be positive", ErrInvalidConfig)
	}
	if c.Training.SilenceEnter < 0 || c.Training.SilenceStay < c.Training.SilenceEnter {
		return fmt.Errorf("%w: silence thresholds must satisfy 0 <= enter <= stay", ErrInvalidConfig)
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("%w: batch concurrency must be positive", ErrInvalidConfig)
	}
	if c.Decoder.Timeout < 0 {
		return fmt.Errorf("%w: decoder timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Default returns the configuration produced by an empty config file
func Default() *Config {
	config, err := Load(viper.New())
	if err != nil {
		// defaults are static and always valid
		panic(err)
	}
	return config
}

// WriteDefault writes the default configuration as YAML to path. Existing
// files are left untouched unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode default configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
