package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-lpc/logging"
	"github.com/RyanBlaney/sonido-lpc/training"
)

var batchCmd = &cobra.Command{
	Use:   "batch <input dir> <output dir>",
	Short: "Extract features from every recording under a directory",
	Long: `Runs one independent analyzer per recording, several at a time.
Each input produces <name>.f32 and, with --train, <name>.u8 in the output
directory. Nested paths are flattened with underscores.

Examples:
  lpcdump batch ./corpus ./features
  lpcdump batch --train --concurrency 8 ./corpus ./training`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Bool("train", false, "generate augmented training data instead of test features")
	batchCmd.Flags().Int("concurrency", 4, "recordings processed at once")
	batchCmd.Flags().Bool("fail-fast", false, "stop at the first failing recording")
	batchCmd.Flags().Bool("progress", true, "show a progress bar")
	bindFlags(batchCmd.Flags(), map[string]string{
		"concurrency": "batch.concurrency",
		"progress":    "batch.progress",
	})

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	inDir, outDir := args[0], args[1]

	train, _ := cmd.Flags().GetBool("train")
	failFast, _ := cmd.Flags().GetBool("fail-fast")

	inputs, err := training.FindInputs(inDir, cfg.Batch.Extensions)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no inputs with extensions %v under %s", cfg.Batch.Extensions, inDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	jobs, err := training.PlanJobs(inDir, inputs, outDir, train && cfg.Training.WriteExcitation)
	if err != nil {
		return err
	}

	mode := training.ModeTest
	if train {
		mode = training.ModeTrain
	}
	opts := training.BatchOptions{
		Jobs:        jobs,
		Concurrency: cfg.Batch.Concurrency,
		Template:    pipelineOptions(cfg, mode),
		Open:        newDecoder(cfg).Open,
		FailFast:    failFast,
	}
	if cfg.Batch.Progress {
		opts.Progress = cmd.ErrOrStderr()
	}

	results, err := training.RunBatch(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if err := training.Failed(results); err != nil {
		return err
	}

	var frames int64
	for _, r := range results {
		frames += r.Stats.Frames
	}
	logging.Info("Batch written", logging.Fields{
		"recordings": len(results),
		"frames":     frames,
		"output_dir": outDir,
	})
	return nil
}
