// ABOUTME: config command
// ABOUTME: Shows and validates the merged configuration
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Resonate-Protocol/tuneplay/internal/config"
	"github.com/Resonate-Protocol/tuneplay/internal/logger"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Commands for showing and validating tuneplay configuration.",
}

// configValidateCmd validates the current configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the current configuration file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := logger.Setup("info", "text", ""); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			slog.Error("Configuration validation failed", slog.Any("error", err))
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
		return nil
	},
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration values from file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintf(w, "  Audio:\n")
	fmt.Fprintf(w, "    Backend: %s\n", cfg.Audio.Backend)
	fmt.Fprintf(w, "    Device: %s\n", orDefault(cfg.Audio.Device))
	fmt.Fprintf(w, "    Sample rate: %d\n", cfg.Audio.SampleRate)
	fmt.Fprintf(w, "    Channels: %d\n", cfg.Audio.Channels)
	fmt.Fprintf(w, "    Buffer frames: %d\n", cfg.Audio.BufferFrames)
	fmt.Fprintf(w, "    Low latency: %t\n", cfg.Audio.LowLatency)
	fmt.Fprintf(w, "    Volume: %.2f\n", cfg.Audio.Volume)
	fmt.Fprintf(w, "  Decoder:\n")
	fmt.Fprintf(w, "    Default song length: %dms\n", cfg.Decoder.DefaultSongLengthMs)
	fmt.Fprintf(w, "    Instant seek: %t\n", cfg.Decoder.InstantSeek)
	fmt.Fprintf(w, "    Loop: %t\n", cfg.Decoder.Loop)
	fmt.Fprintf(w, "    Widening: %t (delay %dms, side %.2f, center %.2f, far %.2f)\n",
		cfg.Decoder.Widening.Enabled,
		cfg.Decoder.Widening.DelayMs,
		cfg.Decoder.Widening.SideVolume,
		cfg.Decoder.Widening.CenterVolume,
		cfg.Decoder.Widening.FarVolume)
	fmt.Fprintf(w, "  Visualization samples: %d\n", cfg.Visualization.Samples)
	fmt.Fprintf(w, "  UI refresh: %s\n", cfg.UI.Refresh)
	fmt.Fprintf(w, "  Logging:\n")
	fmt.Fprintf(w, "    Level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "    Format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(w, "    File: %s\n", orDefault(cfg.Logging.File))
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
