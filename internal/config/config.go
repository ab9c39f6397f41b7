// ABOUTME: Application configuration loaded through viper
// ABOUTME: Merges defaults, a YAML file, .env and TUNEPLAY_ environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio/output"
	"github.com/Resonate-Protocol/tuneplay/pkg/playback"
)

// EnvPrefix prefixes every environment variable, e.g. TUNEPLAY_AUDIO_BACKEND
const EnvPrefix = "TUNEPLAY"

// Config holds all configuration for the application
type Config struct {
	Audio         output.AudioConfig     `mapstructure:"audio"`
	Decoder       playback.DecoderConfig `mapstructure:"decoder"`
	Visualization VisualizationConfig    `mapstructure:"visualization"`
	UI            UIConfig               `mapstructure:"ui"`
	Logging       LoggingConfig          `mapstructure:"logging"`
}

// VisualizationConfig holds spectrum settings
type VisualizationConfig struct {
	// Samples per visualization batch. 0 disables it.
	Samples int `mapstructure:"samples"`
}

// UIConfig holds TUI settings
type UIConfig struct {
	Refresh time.Duration `mapstructure:"refresh"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
	File   string `mapstructure:"file"`
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// SetDefaults registers the default of every key on v
func SetDefaults(v *viper.Viper) {
	defaults := playback.DefaultConfig()

	v.SetDefault("audio.sample_rate", defaults.Audio.SampleRate)
	v.SetDefault("audio.channels", defaults.Audio.Channels)
	v.SetDefault("audio.device", "")
	v.SetDefault("audio.low_latency", false)
	v.SetDefault("audio.volume", defaults.Audio.Volume)
	v.SetDefault("audio.backend", defaults.Audio.Backend)
	v.SetDefault("audio.buffer_frames", defaults.Audio.BufferFrames)

	v.SetDefault("decoder.sample_rate", 0)
	v.SetDefault("decoder.channels", 0)
	v.SetDefault("decoder.default_song_length_ms", defaults.Decoder.DefaultSongLengthMs)
	v.SetDefault("decoder.instant_seek", false)
	v.SetDefault("decoder.loop", false)
	v.SetDefault("decoder.widening.enabled", false)
	v.SetDefault("decoder.widening.delay_ms", defaults.Decoder.Widening.DelayMs)
	v.SetDefault("decoder.widening.side_volume", defaults.Decoder.Widening.SideVolume)
	v.SetDefault("decoder.widening.center_volume", defaults.Decoder.Widening.CenterVolume)
	v.SetDefault("decoder.widening.far_volume", defaults.Decoder.Widening.FarVolume)

	v.SetDefault("visualization.samples", 2048)
	v.SetDefault("ui.refresh", "50ms")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
}

// Load reads configuration into a Config. cfgFile overrides the search
// for tuneplay.yaml in ., $HOME/.tuneplay and /etc/tuneplay.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("tuneplay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tuneplay")
		v.AddConfigPath("/etc/tuneplay")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// ToPlayback returns the playback part of the configuration
func (c *Config) ToPlayback() playback.Config {
	return playback.Config{
		Decoder: c.Decoder,
		Audio:   c.Audio,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.ToPlayback().Validate(); err != nil {
		var pbErr *playback.ConfigError
		if errors.As(err, &pbErr) {
			return &ConfigError{Field: pbErr.Field, Message: pbErr.Message}
		}
		return err
	}
	if c.Visualization.Samples < 0 {
		return &ConfigError{Field: "visualization.samples", Message: "must not be negative"}
	}
	if c.UI.Refresh <= 0 {
		return &ConfigError{Field: "ui.refresh", Message: "must be positive"}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("must be text or json, got %q", c.Logging.Format)}
	}
	return nil
}
