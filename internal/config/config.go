// Package config loads and validates the nmconfd configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the complete daemon configuration.
type Config struct {
	Listen  ListenConfig  `yaml:"listen" mapstructure:"listen"`
	Channel ChannelConfig `yaml:"channel" mapstructure:"channel"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ListenConfig represents the socket the daemon serves on.
type ListenConfig struct {
	Network string `yaml:"network" mapstructure:"network"` // "unix" or "tcp"
	Address string `yaml:"address" mapstructure:"address"`
}

// ChannelConfig represents per-session configuration channel sizing.
type ChannelConfig struct {
	SegmentSize     int    `yaml:"segment_size" mapstructure:"segment_size"`
	MaxSegments     int    `yaml:"max_segments" mapstructure:"max_segments"`
	MaxRequestBytes int    `yaml:"max_request_bytes" mapstructure:"max_request_bytes"`
	MaxSessions     int    `yaml:"max_sessions" mapstructure:"max_sessions"`
	Transform       string `yaml:"transform" mapstructure:"transform"` // compact, echo or none
}

// LogConfig represents logging configuration with rotation support.
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`               // Log file path (empty = console only)
	Level      string `yaml:"level" mapstructure:"level"`             // debug, info, warn, error
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // Max size in MB before rotation
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // Max age in days to keep files
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // Max number of old files to keep
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // Compress old log files
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		Listen: ListenConfig{
			Network: "unix",
			Address: "./nmconfd.sock",
		},
		Channel: ChannelConfig{
			SegmentSize:     1024,
			MaxSegments:     4,
			MaxRequestBytes: 1 << 20,
			MaxSessions:     16,
			Transform:       "compact",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 10,
		},
	}
}

// LoadConfig loads configuration from file and merges with defaults.
func LoadConfig(configFile string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if configFile != "" {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil, fmt.Errorf("no configuration file found. Please create config.yaml or use --config flag")
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Listen.Network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("listen network must be unix or tcp, got %q", c.Listen.Network)
	}

	if c.Listen.Address == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	if c.Channel.SegmentSize < 0 {
		return fmt.Errorf("channel segment_size must be non-negative")
	}

	if c.Channel.MaxSegments < 0 {
		return fmt.Errorf("channel max_segments must be non-negative")
	}

	if c.Channel.MaxRequestBytes < 0 {
		return fmt.Errorf("channel max_request_bytes must be non-negative")
	}

	switch c.Channel.Transform {
	case "", "compact", "echo", "none":
	default:
		return fmt.Errorf("channel transform must be compact, echo or none, got %q", c.Channel.Transform)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	return nil
}
