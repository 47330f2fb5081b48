package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-lpc/logging"
	"github.com/RyanBlaney/sonido-lpc/training"
)

var trainCmd = &cobra.Command{
	Use:   "train <speech> <features out> <pcm out>",
	Short: "Generate augmented training features and excitation labels",
	Long: `Loops over the input with silence gating and random gain and
response augmentation until enough frames were produced, writing feature
records and four u-law bytes per sample of excitation labels.

Examples:
  lpcdump train speech.s16 features.f32 data.u8
  LPCDUMP_TRAINING_MAX_UNITS=2000000 lpcdump train speech.s16 features.f32 data.u8`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, training.ModeTrain, args[0], args[1], args[2])
	},
}

var testCmd = &cobra.Command{
	Use:   "test <speech> <features out>",
	Short: "Extract features from one pass over the input",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, training.ModeTest, args[0], args[1], "")
	},
}

func init() {
	trainCmd.Flags().Int64("seed", 1, "random seed for augmentation")
	trainCmd.Flags().Int64("max-units", 10000000, "5 ms units to produce after one full pass")
	bindFlags(trainCmd.Flags(), map[string]string{
		"seed":      "training.seed",
		"max-units": "training.max_units",
	})

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(testCmd)
}

func runExtract(cmd *cobra.Command, mode training.Mode, input, featPath, pcmPath string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	src, err := newDecoder(cfg).Open(ctx, input)
	if err != nil {
		return err
	}
	defer src.Close()

	featFile, err := os.Create(featPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", featPath, err)
	}
	defer func() {
		if cerr := featFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	opts := pipelineOptions(cfg, mode)
	opts.Source = src
	opts.Features = featFile

	if pcmPath != "" && cfg.Training.WriteExcitation {
		pcmFile, perr := os.Create(pcmPath)
		if perr != nil {
			return fmt.Errorf("failed to create %s: %w", pcmPath, perr)
		}
		defer func() {
			if cerr := pcmFile.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		opts.PCM = pcmFile
	}

	stats, err := training.Run(ctx, opts)
	if err != nil {
		return err
	}

	logging.Info("Wrote features", logging.Fields{
		"output":         featPath,
		"frames":         stats.Frames,
		"records":        stats.Groups * 4,
		"skipped_silent": stats.SkippedSilent,
	})
	return nil
}
