package configs

import (
	"github.com/spf13/viper"

	featconfig "github.com/RyanBlaney/sonido-lpc/features/config"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	// Analyzer defaults
	analyzer := featconfig.DefaultAnalyzerConfig()
	v.SetDefault("analyzer.layout", string(analyzer.Layout))
	v.SetDefault("analyzer.lowpass_bins", analyzer.LowpassBins)
	v.SetDefault("analyzer.delta_cepstrum", analyzer.DeltaCepstrum)
	v.SetDefault("analyzer.pitch_min_period", analyzer.PitchMinPeriod)
	v.SetDefault("analyzer.pitch_max_period", analyzer.PitchMaxPeriod)

	// Training defaults
	v.SetDefault("training.seed", 1)
	v.SetDefault("training.augment", true)
	v.SetDefault("training.max_units", 10000000)
	v.SetDefault("training.gain_interval", 2821)
	v.SetDefault("training.silence_enter", 5000.0)
	v.SetDefault("training.silence_stay", 20000.0)
	v.SetDefault("training.write_excitation", true)

	// Batch defaults
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.extensions", []string{".s16", ".raw", ".wav", ".flac", ".mp3", ".ogg"})
	v.SetDefault("batch.progress", true)

	// Decoder defaults
	v.SetDefault("decoder.ffmpeg_path", "ffmpeg")
	v.SetDefault("decoder.timeout", "10m")
}
