package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the clinic core
type Config struct {
	// Clinic scheduling configuration
	Clinic ClinicConfig `mapstructure:"clinic"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// Session token configuration
	Session SessionConfig `mapstructure:"session"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ClinicConfig holds scheduling-policy configuration
type ClinicConfig struct {
	// Business hours, 24-hour whole hours. Appointments must start and
	// finish inside the window for the appointment's weekday class.
	WeekdayOpenHour   int `mapstructure:"weekday_open_hour"`
	WeekdayCloseHour  int `mapstructure:"weekday_close_hour"`
	SaturdayOpenHour  int `mapstructure:"saturday_open_hour"`
	SaturdayCloseHour int `mapstructure:"saturday_close_hour"`

	// How far into the future a booking may be placed, in days
	BookingWindowDays int `mapstructure:"booking_window_days"`

	// Granularity of the booking grid, in minutes
	SlotMinutes int `mapstructure:"slot_minutes"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	// Directory for the file-backed store; empty selects the in-memory store
	Dir string `mapstructure:"dir"`
}

// SessionConfig holds session token configuration
type SessionConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	TokenTTL  int    `mapstructure:"token_ttl"` // seconds
	Issuer    string `mapstructure:"issuer"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/clinic-core")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the built-in configuration without touching files or
// the environment. Tests and embedders that wire services directly use
// this.
func Default() *Config {
	return &Config{
		Clinic: ClinicConfig{
			WeekdayOpenHour:   8,
			WeekdayCloseHour:  18,
			SaturdayOpenHour:  8,
			SaturdayCloseHour: 16,
			BookingWindowDays: 365,
			SlotMinutes:       30,
		},
		Session: SessionConfig{
			TokenTTL: 3600,
			Issuer:   "clinic-core",
		},
		LogLevel: "info",
	}
}

// setDefaults sets default configuration values
func setDefaults() {
	// Business hours: Mon-Fri 08:00-18:00, Sat 08:00-16:00, closed Sunday
	viper.SetDefault("clinic.weekday_open_hour", 8)
	viper.SetDefault("clinic.weekday_close_hour", 18)
	viper.SetDefault("clinic.saturday_open_hour", 8)
	viper.SetDefault("clinic.saturday_close_hour", 16)
	viper.SetDefault("clinic.booking_window_days", 365)
	viper.SetDefault("clinic.slot_minutes", 30)

	// Storage defaults: in-memory unless a directory is configured
	viper.SetDefault("storage.dir", "")

	// Session defaults
	viper.SetDefault("session.token_ttl", 3600) // 1 hour
	viper.SetDefault("session.issuer", "clinic-core")

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if secret := os.Getenv("SESSION_SECRET_KEY"); secret != "" {
		config.Session.SecretKey = secret
	}

	if dir := os.Getenv("STORAGE_DIR"); dir != "" {
		config.Storage.Dir = dir
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	c := config.Clinic

	if c.WeekdayOpenHour < 0 || c.WeekdayCloseHour > 24 || c.WeekdayOpenHour >= c.WeekdayCloseHour {
		return fmt.Errorf("invalid weekday business hours: %d-%d", c.WeekdayOpenHour, c.WeekdayCloseHour)
	}

	if c.SaturdayOpenHour < 0 || c.SaturdayCloseHour > 24 || c.SaturdayOpenHour >= c.SaturdayCloseHour {
		return fmt.Errorf("invalid saturday business hours: %d-%d", c.SaturdayOpenHour, c.SaturdayCloseHour)
	}

	if c.BookingWindowDays <= 0 {
		return fmt.Errorf("invalid booking window: %d days", c.BookingWindowDays)
	}

	if c.SlotMinutes <= 0 || 60%c.SlotMinutes != 0 {
		return fmt.Errorf("invalid slot granularity: %d minutes", c.SlotMinutes)
	}

	return nil
}
