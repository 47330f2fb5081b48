package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-lpc/configs"
	"github.com/RyanBlaney/sonido-lpc/logging"
	"github.com/RyanBlaney/sonido-lpc/training"
	"github.com/RyanBlaney/sonido-lpc/transcode"
)

var (
	configFile string
	v          = configs.NewViper()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lpcdump",
	Short: "Speech feature extraction for LPC vocoder training",
	Long: `Extracts per-frame speech features from 16 kHz speech: 18 cepstral
coefficients, pitch period and voicing, LPC gain and 16 LPC coefficients.

Inputs ending in .s16, .raw, .pcm or .sw are read as headerless 16-bit
little-endian mono at 16 kHz; anything else is decoded with ffmpeg.
Features are written as little-endian float32 records.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "",
		"config file (default is ./lpcdump.yaml or $HOME/.config/lpcdump/lpcdump.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("layout", "compact", "feature layout (compact, lpcnet)")
	flags.Int("lowpass-bins", 0, "zero spectrum bins at and above this index (0 keeps the full band)")

	bindFlags(flags, map[string]string{
		"log-level":    "log_level",
		"layout":       "analyzer.layout",
		"lowpass-bins": "analyzer.lowpass_bins",
	})
}

// bindFlags binds each flag named in keys to its viper configuration key
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	flags.VisitAll(func(f *pflag.Flag) {
		if key, ok := keys[f.Name]; ok {
			v.BindPFlag(key, f)
		}
	})
}

// initConfig reads in the config file, if any, and applies the log level
func initConfig() error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("lpcdump")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "lpcdump"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	level, err := logging.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return err
	}
	logging.SetGlobalLogger(logging.NewWriterLogger(os.Stderr, level))

	if used := v.ConfigFileUsed(); used != "" {
		logging.Debug("Using config file", logging.Fields{"path": used})
	}
	return nil
}

// loadConfig decodes and validates the merged configuration
func loadConfig() (*configs.Config, error) {
	return configs.Load(v)
}

// pipelineOptions maps the configuration onto pipeline options
func pipelineOptions(cfg *configs.Config, mode training.Mode) training.Options {
	opts := training.DefaultOptions()
	opts.Mode = mode
	opts.Analyzer = cfg.Analyzer
	opts.Seed = cfg.Training.Seed
	opts.Augment = cfg.Training.Augment
	opts.MaxUnits = cfg.Training.MaxUnits
	opts.GainInterval = cfg.Training.GainInterval
	opts.SilenceEnter = cfg.Training.SilenceEnter
	opts.SilenceStay = cfg.Training.SilenceStay
	opts.Logger = logging.GetGlobalLogger()
	return opts
}

func newDecoder(cfg *configs.Config) *transcode.Decoder {
	dc := transcode.DefaultDecoderConfig()
	dc.FFmpegPath = cfg.Decoder.FFmpegPath
	dc.Timeout = cfg.Decoder.Timeout
	return transcode.NewDecoder(dc)
}

// GetConfig returns the viper instance backing the CLI
func GetConfig() *viper.Viper {
	return v
}
