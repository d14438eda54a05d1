package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/gridroom-server/internal/core"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	CORSOrigin        string        `mapstructure:"cors_origin" yaml:"cors_origin"`

	// WebSocket limits.
	MaxMessageBytes   int64   `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MessagesPerSecond float64 `mapstructure:"messages_per_second" yaml:"messages_per_second"`
	MessageBurst      int     `mapstructure:"message_burst" yaml:"message_burst"`
	EventBuffer       int     `mapstructure:"event_buffer" yaml:"event_buffer"`

	// Game rules.
	GracePeriod  time.Duration `mapstructure:"grace_period" yaml:"grace_period"`
	Cooldown     time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
	RoomCapacity int           `mapstructure:"room_capacity" yaml:"room_capacity"`
	GridSize     int           `mapstructure:"grid_size" yaml:"grid_size"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		CORSOrigin:        "*",
		MaxMessageBytes:   1 << 16,
		MessagesPerSecond: 20,
		MessageBurst:      40,
		EventBuffer:       64,
		GracePeriod:       5 * time.Second,
		Cooldown:          60 * time.Second,
		RoomCapacity:      10,
		GridSize:          10,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.CORSOrigin != "" {
		c.CORSOrigin = other.CORSOrigin
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.MessagesPerSecond != 0 {
		c.MessagesPerSecond = other.MessagesPerSecond
	}
	if other.MessageBurst != 0 {
		c.MessageBurst = other.MessageBurst
	}
	if other.EventBuffer != 0 {
		c.EventBuffer = other.EventBuffer
	}
	if other.GracePeriod != 0 {
		c.GracePeriod = other.GracePeriod
	}
	if other.Cooldown != 0 {
		c.Cooldown = other.Cooldown
	}
	if other.RoomCapacity != 0 {
		c.RoomCapacity = other.RoomCapacity
	}
	if other.GridSize != 0 {
		c.GridSize = other.GridSize
	}
}

// HubOptions maps the game rules onto core options.
func (c Config) HubOptions() core.Options {
	opts := core.DefaultOptions()
	opts.GracePeriod = c.GracePeriod
	opts.Room = core.RoomOptions{
		Capacity: c.RoomCapacity,
		GridSize: c.GridSize,
		Cooldown: c.Cooldown,
	}
	return opts
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty")
	case c.GridSize <= 0:
		return fmt.Errorf("grid_size must be positive, got %d", c.GridSize)
	case c.RoomCapacity <= 0:
		return fmt.Errorf("room_capacity must be positive, got %d", c.RoomCapacity)
	case c.Cooldown <= 0:
		return fmt.Errorf("cooldown must be positive, got %s", c.Cooldown)
	case c.GracePeriod <= 0:
		return fmt.Errorf("grace_period must be positive, got %s", c.GracePeriod)
	case c.EventBuffer <= 0:
		return fmt.Errorf("event_buffer must be positive, got %d", c.EventBuffer)
	}
	return nil
}
