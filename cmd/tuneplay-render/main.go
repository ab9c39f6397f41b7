// ABOUTME: Headless batch renderer
// ABOUTME: Renders tune files to WAV in parallel without touching audio hardware
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Resonate-Protocol/tuneplay/internal/logger"
	"github.com/Resonate-Protocol/tuneplay/internal/render"
	"github.com/Resonate-Protocol/tuneplay/internal/version"
	"github.com/Resonate-Protocol/tuneplay/pkg/playback"
)

var (
	outDir     = flag.String("out", ".", "Directory for rendered WAV files")
	sampleRate = flag.Int("rate", 44100, "Output sample rate")
	channels   = flag.Int("channels", 2, "Output channels (1 or 2)")
	subsong    = flag.Int("subsong", 0, "Subsong to render (0-based)")
	lengthMs   = flag.Int64("length-ms", playback.DefaultSongLengthMs, "Length for tunes that do not report one")
	workers    = flag.Int("workers", 2, "Number of files rendered at once")
	logFile    = flag.String("log-file", "", "Log file path (default stdout)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: tuneplay-render [flags] file...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := "info"
	if *debug {
		level = "debug"
	}
	closeLog, err := logger.Setup(level, "text", *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		slog.Error("Failed to create output directory", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	jobs := make([]render.Job, 0, flag.NArg())
	for _, path := range flag.Args() {
		base := filepath.Base(path)
		jobs = append(jobs, render.Job{
			Input:   path,
			Output:  filepath.Join(*outDir, strings.TrimSuffix(base, filepath.Ext(base))+".wav"),
			Subsong: *subsong,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Rendering", "files", len(jobs), "workers", *workers, "rate", *sampleRate, "channels", *channels)
	errs := render.Batch(ctx, jobs, render.Options{
		SampleRate:          *sampleRate,
		Channels:            *channels,
		DefaultSongLengthMs: *lengthMs,
		Logger:              logger.WithFields("component", "render", "workers", *workers),
	}, *workers)

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			slog.Error("Render failed", "input", jobs[i].Input, "error", err)
		}
	}
	slog.Info("Done", "rendered", len(jobs)-failed, "failed", failed)
	if failed > 0 {
		closeLog()
		os.Exit(1)
	}
}
