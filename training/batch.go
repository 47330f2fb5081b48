package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-lpc/logging"
	"github.com/RyanBlaney/sonido-lpc/transcode"
)

// Output file extensions used by PlanJobs
const (
	FeatureExt    = ".f32"
	ExcitationExt = ".u8"
)

// Job names one recording and where its outputs go
type Job struct {
	Input    string `json:"input"`
	Features string `json:"features"`
	PCM      string `json:"pcm,omitempty"`
}

// Result is the outcome of one Job
type Result struct {
	Job   Job   `json:"job"`
	Stats Stats `json:"stats"`
	Err   error `json:"-"`
}

// OpenFunc opens an input recording as a frame source
type OpenFunc func(ctx context.Context, path string) (*transcode.RawSource, error)

// BatchOptions configures RunBatch
type BatchOptions struct {
	Jobs        []Job
	Concurrency int

	// Template is copied for every job; its Source, Features and PCM are replaced
	Template Options

	// Open defaults to a transcode.Decoder with default settings
	Open OpenFunc

	// Progress receives a progress bar; nil disables it
	Progress io.Writer

	// FailFast cancels outstanding jobs after the first failure
	FailFast bool
}

// RunBatch processes every job with its own analyzer, at most Concurrency at
// a time. Results are returned in job order. The returned error is the first
// job failure when FailFast is set and nil otherwise; per-job errors are in
// the results.
func RunBatch(ctx context.Context, opts BatchOptions) ([]Result, error) {
	logger := opts.Template.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithFields(logging.Fields{
		"component": "batch_runner",
	})

	open := opts.Open
	if open == nil {
		open = transcode.NewDecoder(nil).Open
	}

	var p *mpb.Progress
	var bar *mpb.Bar
	if opts.Progress != nil {
		p = mpb.New(mpb.WithWidth(64), mpb.WithOutput(opts.Progress))
		bar = p.AddBar(int64(len(opts.Jobs)),
			mpb.PrependDecorators(
				decor.Name("Extracting: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)
	}

	results := make([]Result, len(opts.Jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Concurrency))

	for i, job := range opts.Jobs {
		g.Go(func() error {
			start := time.Now()
			stats, err := runJob(gctx, open, opts.Template, job, logger)
			results[i] = Result{Job: job, Stats: stats, Err: err}
			if bar != nil {
				bar.EwmaIncrement(time.Since(start))
			}
			if err != nil {
				logger.Error(err, "Job failed", logging.Fields{"input": job.Input})
				if opts.FailFast {
					return fmt.Errorf("%s: %w", job.Input, err)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if p != nil {
		if err != nil {
			bar.Abort(false)
		}
		p.Wait()
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("Batch completed", logging.Fields{
		"jobs":   len(opts.Jobs),
		"failed": failed,
	})
	return results, err
}

func runJob(ctx context.Context, open OpenFunc, template Options, job Job, logger logging.Logger) (stats Stats, err error) {
	src, err := open(ctx, job.Input)
	if err != nil {
		return stats, err
	}
	defer src.Close()

	featFile, err := os.Create(job.Features)
	if err != nil {
		return stats, fmt.Errorf("failed to create %s: %w", job.Features, err)
	}
	defer func() {
		if cerr := featFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	opts := template
	opts.Source = src
	opts.Features = featFile
	opts.PCM = nil
	opts.Logger = logger.WithFields(logging.Fields{"input": job.Input})

	if job.PCM != "" {
		pcmFile, perr := os.Create(job.PCM)
		if perr != nil {
			return stats, fmt.Errorf("failed to create %s: %w", job.PCM, perr)
		}
		defer func() {
			if cerr := pcmFile.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		opts.PCM = pcmFile
	}

	return Run(ctx, opts)
}

// FindInputs walks root and returns the files whose extension is in exts,
// sorted by path
func FindInputs(root string, exts []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if slices.Contains(exts, ext) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	slices.Sort(out)
	return out, nil
}

// PlanJobs maps each input to outputs in outDir named after the input's path
// relative to root. Excitation outputs are planned only when withPCM is set.
func PlanJobs(root string, inputs []string, outDir string, withPCM bool) ([]Job, error) {
	jobs := make([]Job, 0, len(inputs))
	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		rel, err := filepath.Rel(root, in)
		if err != nil {
			return nil, fmt.Errorf("failed to relate %s to %s: %w", in, root, err)
		}
		base := strings.TrimSuffix(rel, filepath.Ext(rel))
		base = strings.ReplaceAll(base, string(filepath.Separator), "_")
		if other, ok := seen[base]; ok {
			return nil, fmt.Errorf("inputs %s and %s map to the same output", other, in)
		}
		seen[base] = in

		job := Job{
			Input:    in,
			Features: filepath.Join(outDir, base+FeatureExt),
		}
		if withPCM {
			job.PCM = filepath.Join(outDir, base+ExcitationExt)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Failed returns the results that carry an error, joined into one error
func Failed(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Job.Input, r.Err))
		}
	}
	return errors.Join(errs...)
}
