// ABOUTME: render command
// ABOUTME: Pre-renders a tune offline and writes it to a WAV file
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/tuneplay/internal/logger"
	"github.com/Resonate-Protocol/tuneplay/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a tune to a WAV file",
	Long:  "Decode a tune at the configured output format and write it to a 16-bit PCM WAV file.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "output file (default is the input name with .wav)")
	renderCmd.Flags().Int("subsong", 0, "subsong to render (0-based)")
	renderCmd.Flags().Bool("tone", false, "render the built-in tone generator")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	tone, _ := cmd.Flags().GetBool("tone")
	subsong, _ := cmd.Flags().GetInt("subsong")
	output, _ := cmd.Flags().GetString("output")

	job := render.Job{Subsong: subsong, Tone: tone, Output: output}
	if len(args) > 0 {
		job.Input = args[0]
	}
	if job.Input == "" && !tone {
		return fmt.Errorf("a tune file or --tone is required")
	}
	if job.Output == "" {
		job.Output = outputName(job)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg, "")
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = render.File(ctx, job, render.Options{
		SampleRate:          cfg.Audio.SampleRate,
		Channels:            cfg.Audio.Channels,
		DefaultSongLengthMs: cfg.Decoder.DefaultSongLengthMs,
		Logger:              logger.WithComponent("render"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", job.Output)
	return nil
}

// outputName derives the WAV name for a job without one
func outputName(job render.Job) string {
	if job.Tone {
		return fmt.Sprintf("tone-%d.wav", job.Subsong)
	}
	base := filepath.Base(job.Input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".wav"
}
