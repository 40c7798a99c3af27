package config

import "time"

// Config contains all application settings
type Config struct {
	BindPort    int    `mapstructure:"PORT" yaml:"port"`
	BindHost    string `mapstructure:"HOST" yaml:"host"`
	APIBindPort int    `mapstructure:"API_PORT" yaml:"api_port"`
	LogLevel    string `mapstructure:"LOG_LEVEL" yaml:"log_level"`

	// Single valid credential pair
	UserID   string `mapstructure:"USER_ID" yaml:"user_id"`
	Password string `mapstructure:"PASSWORD" yaml:"password"`

	// Heartbeat monitor
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL" yaml:"sweep_interval"`
	InactiveLimit time.Duration `mapstructure:"INACTIVE_LIMIT" yaml:"inactive_limit"`
	TerminalLimit time.Duration `mapstructure:"TERMINAL_LIMIT" yaml:"terminal_limit"`

	// Garage door bridge
	DeviceURL     string        `mapstructure:"DEVICE_URL" yaml:"device_url"`
	DeviceTimeout time.Duration `mapstructure:"DEVICE_TIMEOUT" yaml:"device_timeout"`
	PollInterval  time.Duration `mapstructure:"POLL_INTERVAL" yaml:"poll_interval"`

	DatabaseURL   string `mapstructure:"DATABASE_URL" yaml:"database_url"`
	NATSServerURL string `mapstructure:"NATS_URL" yaml:"nats_url"`
	EventLogSize  int    `mapstructure:"EVENT_LOG_SIZE" yaml:"event_log_size"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}
