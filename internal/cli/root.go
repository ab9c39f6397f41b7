// ABOUTME: Root cobra command and shared setup
// ABOUTME: Global flags, config loading and logging for every subcommand
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Resonate-Protocol/tuneplay/internal/config"
	"github.com/Resonate-Protocol/tuneplay/internal/logger"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tuneplay",
	Short: "A music tune player with instant seeking",
	Long: `tuneplay plays tunes from mp3, flac, wav and opus files through a choice of
audio backends. It can pre-render a tune in the background so seeking anywhere is
instant, widen stereo output and export rendered tunes to WAV.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tuneplay.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("log-file", "", "log file (default stdout, tuneplay.log with the TUI)")
	rootCmd.PersistentFlags().String("backend", "", "audio backend (oto, malgo, portaudio, beep, null)")
	rootCmd.PersistentFlags().Int("sample-rate", 0, "output sample rate")

	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("audio.backend", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("audio.sample_rate", rootCmd.PersistentFlags().Lookup("sample-rate"))
}

// initConfig applies flags that override configuration
func initConfig() {
	if verbose {
		viper.Set("logging.level", "debug")
	}
}

// loadConfig loads and validates the configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// setupLogging configures slog from cfg. fallbackFile is used when no log
// file is configured, so the TUI keeps the terminal to itself.
func setupLogging(cfg *config.Config, fallbackFile string) (func() error, error) {
	file := cfg.Logging.File
	if file == "" {
		file = fallbackFile
	}
	closeLog, err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format, file)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return closeLog, nil
}
