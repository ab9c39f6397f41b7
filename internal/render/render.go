// ABOUTME: Offline rendering of tunes to WAV files
// ABOUTME: Runs the pre-renderer to completion and exports its buffer, one worker per job
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/tuneplay/pkg/prerender"
)

// Job is one tune to render
type Job struct {
	Input   string
	Output  string
	Subsong int
	// Tone renders the built-in tone generator instead of Input
	Tone bool
}

// Options apply to every job
type Options struct {
	SampleRate          int
	Channels            int
	DefaultSongLengthMs int64
	Logger              *slog.Logger
	// Progress is called from the rendering goroutine with a fraction in [0, 1]
	Progress func(job Job, fraction float64)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// File renders job to its output file
func File(ctx context.Context, job Job, opts Options) error {
	if job.Output == "" {
		return errors.New("no output file")
	}
	logger := opts.logger().With("input", job.Input, "output", job.Output)

	cfg := decode.Config{SampleRate: opts.SampleRate, DefaultSongLengthMs: opts.DefaultSongLengthMs}
	var tune decode.Tune
	if job.Tone {
		tune = decode.NewTone(cfg)
	} else {
		t, err := decode.Open(job.Input, cfg)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", job.Input, err)
		}
		tune = t
	}
	defer tune.Close()

	if err := tune.SelectSubsong(job.Subsong); err != nil {
		return fmt.Errorf("failed to select subsong %d: %w", job.Subsong, err)
	}

	tune = decode.Conform(tune, opts.SampleRate, opts.Channels)
	durationMs := tune.DurationMs()
	if durationMs <= 0 {
		durationMs = opts.DefaultSongLengthMs
	}

	pre := prerender.New(logger)
	defer pre.Stop()

	start := time.Now()
	if err := pre.Render(tune, opts.SampleRate, opts.Channels, durationMs); err != nil {
		return err
	}

	ticker := time.NewTicker(prerender.PollInterval)
	defer ticker.Stop()
	for pre.Rendering() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if opts.Progress != nil {
				opts.Progress(job, pre.ProgressFactor())
			}
		}
	}
	if err := pre.Err(); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if opts.Progress != nil {
		opts.Progress(job, 1)
	}

	f, err := os.Create(job.Output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := pre.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	logger.Info("Rendered tune", "duration_ms", pre.RenderedMs(), "elapsed", time.Since(start))
	return nil
}

// Batch renders jobs with at most workers goroutines. The result holds one
// error per job; a failed job does not stop the others.
func Batch(ctx context.Context, jobs []Job, opts Options, workers int) []error {
	if workers < 1 {
		workers = 1
	}
	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range jobs {
		g.Go(func() error {
			errs[i] = File(ctx, jobs[i], opts)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
