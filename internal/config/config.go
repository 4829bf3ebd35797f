package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
	Blink   BlinkConfig   `mapstructure:"blink"`
	Capture CaptureConfig `mapstructure:"capture"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Snooze  SnoozeConfig  `mapstructure:"snooze"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type StorageConfig struct {
	CamerasPath   string `mapstructure:"cameras_path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// BlinkConfig contains vendor API session configuration
type BlinkConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	DeviceName      string `mapstructure:"device_name"`
}

// CaptureConfig contains snapshot acquisition tuning. The settle delay and
// duplicate-detection constants are configurable on purpose: the right
// values vary per camera hardware.
type CaptureConfig struct {
	Cameras            []string `mapstructure:"cameras"`
	PollInterval       string   `mapstructure:"poll_interval"`
	SettleDelay        string   `mapstructure:"settle_delay"`
	SnapshotRetries    int      `mapstructure:"snapshot_retries"`
	RetryDelay         string   `mapstructure:"retry_delay"`
	DuplicateCutoff    string   `mapstructure:"duplicate_cutoff"`
	DuplicateThreshold int      `mapstructure:"duplicate_threshold"`
}

type AlertsConfig struct {
	NWSZone   string `mapstructure:"nws_zone"`
	UserAgent string `mapstructure:"user_agent"`
}

type SnoozeConfig struct {
	File string `mapstructure:"file"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("storage.cameras_path", "CAMWATCH_CAMERAS_PATH")
	viper.BindEnv("blink.credentials_file", "CAMWATCH_CREDENTIALS_FILE")
	viper.BindEnv("alerts.nws_zone", "CAMWATCH_NWS_ZONE")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "production")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.path", "./logs")
	viper.SetDefault("logging.retention_days", 5)

	viper.SetDefault("storage.cameras_path", "./cameras")
	viper.SetDefault("storage.retention_days", 7)

	viper.SetDefault("blink.credentials_file", "./blink_token.json")
	viper.SetDefault("blink.device_name", "camwatch")

	viper.SetDefault("capture.poll_interval", "5m")
	viper.SetDefault("capture.settle_delay", "12s")
	viper.SetDefault("capture.snapshot_retries", 2)
	viper.SetDefault("capture.retry_delay", "5s")
	viper.SetDefault("capture.duplicate_cutoff", "60s")
	viper.SetDefault("capture.duplicate_threshold", 3)

	viper.SetDefault("alerts.user_agent", "camwatch/1.0")

	viper.SetDefault("snooze.file", "./alert_snooze.json")
}

// Validate validates the configuration for completeness and correctness
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Storage.CamerasPath == "" {
		errs = append(errs, "storage.cameras_path is required")
	}
	if c.Storage.RetentionDays <= 0 {
		errs = append(errs, "storage.retention_days must be greater than 0")
	}
	if c.Blink.CredentialsFile == "" {
		errs = append(errs, "blink.credentials_file is required")
	}
	if len(c.Capture.Cameras) == 0 {
		errs = append(errs, "capture.cameras must list at least one camera")
	}
	if c.Capture.DuplicateThreshold <= 0 {
		errs = append(errs, "capture.duplicate_threshold must be greater than 0")
	}
	if c.Alerts.NWSZone != "" && !ValidNWSZone(c.Alerts.NWSZone) {
		errs = append(errs, "alerts.nws_zone must be a forecast zone like PAZ021")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidNWSZone reports whether zone has the NWS forecast-zone shape:
// three letters followed by three digits (e.g. PAZ021).
func ValidNWSZone(zone string) bool {
	if len(zone) != 6 {
		return false
	}
	for _, r := range zone[:3] {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	for _, r := range zone[3:] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
