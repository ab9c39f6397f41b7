// ABOUTME: play command
// ABOUTME: Loads a tune into the playback controller and drives it from the TUI or headless
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Resonate-Protocol/tuneplay/internal/config"
	"github.com/Resonate-Protocol/tuneplay/internal/logger"
	"github.com/Resonate-Protocol/tuneplay/internal/ui"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/tuneplay/pkg/playback"
)

const tuiLogFile = "tuneplay.log"

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play a tune",
	Long: `Play a tune file, or the built-in tone generator with --tone.

The interactive UI polls the player and accepts keyboard commands. With --no-tui
the tune plays to its end while progress is logged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Int("subsong", 0, "subsong to start with (0-based)")
	playCmd.Flags().Bool("tone", false, "play the built-in tone generator")
	playCmd.Flags().Bool("no-tui", false, "disable the TUI and log progress instead")
	playCmd.Flags().Bool("instant-seek", false, "pre-render the tune for instant seeking")
	playCmd.Flags().Bool("loop", false, "replay the tune when it ends")
	playCmd.Flags().Bool("widen", false, "enable the stereo widener")
	playCmd.Flags().Float64("volume", 1.0, "output volume (0.0-1.0)")
	playCmd.Flags().String("device", "", "output device name")

	viper.BindPFlag("decoder.instant_seek", playCmd.Flags().Lookup("instant-seek"))
	viper.BindPFlag("decoder.loop", playCmd.Flags().Lookup("loop"))
	viper.BindPFlag("decoder.widening.enabled", playCmd.Flags().Lookup("widen"))
	viper.BindPFlag("audio.volume", playCmd.Flags().Lookup("volume"))
	viper.BindPFlag("audio.device", playCmd.Flags().Lookup("device"))

	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	tone, _ := cmd.Flags().GetBool("tone")
	noTUI, _ := cmd.Flags().GetBool("no-tui")
	subsong, _ := cmd.Flags().GetInt("subsong")
	if len(args) == 0 && !tone {
		return errors.New("a tune file or --tone is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fallback := ""
	if !noTUI {
		fallback = tuiLogFile
	}
	closeLog, err := setupLogging(cfg, fallback)
	if err != nil {
		return err
	}
	defer closeLog()

	ctrl := playback.New(playback.WithLogger(logger.WithComponent("controller")))
	if err := ctrl.Init(cfg.ToPlayback()); err != nil {
		return fmt.Errorf("failed to initialize playback (%s): %w", playback.StatusOf(err), err)
	}
	defer ctrl.Close()

	if tone {
		t := decode.NewTone(decode.Config{
			SampleRate:          cfg.Audio.SampleRate,
			DefaultSongLengthMs: cfg.Decoder.DefaultSongLengthMs,
		})
		if err := t.SelectSubsong(subsong); err != nil {
			return err
		}
		err = ctrl.Play(t)
	} else {
		err = ctrl.Load(args[0], subsong)
	}
	if err != nil {
		return fmt.Errorf("failed to play (%s): %w", playback.StatusOf(err), err)
	}

	if noTUI {
		return playHeadless(cmd.Context(), ctrl, cfg)
	}

	ctrl.SetVisualizationSize(cfg.Visualization.Samples)
	return ui.Run(ctrl, ui.Options{
		Refresh:              cfg.UI.Refresh,
		VisualizationSamples: cfg.Visualization.Samples,
	})
}

// playHeadless polls the controller until the tune ends or a signal arrives
func playHeadless(ctx context.Context, ctrl *playback.Controller, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	md := ctrl.Metadata()
	slog.Info("Playing",
		"title", md.Title,
		"author", md.Author,
		"duration_ms", ctrl.DurationMs(),
		"subsong", ctrl.Subsong(),
		"subsongs", ctrl.Subsongs())

	ticker := time.NewTicker(cfg.UI.Refresh)
	defer ticker.Stop()

	lastReport := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutdown signal received")
			return ctrl.Stop()
		case <-ticker.C:
		}

		if err := ctrl.Poll(); err != nil {
			return err
		}
		if ctrl.State() == playback.Stopped {
			slog.Info("Playback finished")
			return nil
		}
		if time.Since(lastReport) >= time.Second {
			lastReport = time.Now()
			st := ctrl.Status()
			slog.Info("Position",
				"state", st.State,
				"time_ms", st.TimeMs,
				"duration_ms", st.DurationMs,
				"prerender", fmt.Sprintf("%.0f%%", st.PreRenderProgress*100))
		}
	}
}
