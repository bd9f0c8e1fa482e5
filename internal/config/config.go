// Package config manages configuration for the console CLI.
// It uses Viper for unified configuration management from the config file
// and environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/vedfolnir/console/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the unified configuration for the console.
// Values come from ~/.vedfolnir/config.yaml and VEDFOLNIR_* environment
// variables; environment variables take precedence.
type Config struct {
	APIEndpoint       string `mapstructure:"api_endpoint" yaml:"api_endpoint" validate:"omitempty,url"`
	WebSocketEndpoint string `mapstructure:"websocket_endpoint" yaml:"websocket_endpoint"`
	WebURL            string `mapstructure:"web_url" yaml:"web_url" validate:"omitempty,url"`

	// CSRFTokenSeed optionally seeds the token cache (the analog of the
	// server-rendered page meta tag). Empty means fetch from the server.
	CSRFTokenSeed string        `mapstructure:"csrf_token_seed" yaml:"csrf_token_seed"`
	CSRFTokenTTL  time.Duration `mapstructure:"csrf_token_ttl"`

	LogLevel string `mapstructure:"log_level"`

	// Realtime reconnection tuning. Zero values mean "use the server's
	// client-config response, else built-in defaults".
	ReconnectBaseDelay   time.Duration `mapstructure:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `mapstructure:"reconnect_max_delay"`
	ReconnectMaxAttempts int           `mapstructure:"reconnect_max_attempts" validate:"omitempty,min=1"`
	SlowNetwork          bool          `mapstructure:"slow_network"`

	// Notification tuning.
	MaxActiveNotifications int  `mapstructure:"max_active_notifications" validate:"omitempty,min=1"`
	DesktopNotifications   bool `mapstructure:"desktop_notifications"`

	SessionPollInterval time.Duration `mapstructure:"session_poll_interval"`

	// DebugListenAddr is the bind address for the local debug endpoint.
	DebugListenAddr string `mapstructure:"debug_listen_addr"`
}

var validate = validator.New()

// Load loads the configuration using Viper. A missing config file is
// acceptable; environment variables alone can configure the console.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := loadConfigFile(v); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix("VEDFOLNIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to the user's config directory,
// overwriting any existing file.
func Save(cfg *Config) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configDir := filepath.Join(currentUser.HomeDir, constants.ConfigDirName)
	if err = os.MkdirAll(configDir, constants.ConfigDirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	configFilePath := filepath.Join(configDir, constants.ConfigFileName)

	v := viper.New()
	v.Set("api_endpoint", cfg.APIEndpoint)
	v.Set("websocket_endpoint", cfg.WebSocketEndpoint)
	v.Set("web_url", cfg.WebURL)

	if err = v.WriteConfigAs(configFilePath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	if err = os.Chmod(configFilePath, constants.ConfigFilePermissions); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}
	return filepath.Join(currentUser.HomeDir, constants.ConfigDirName, constants.ConfigFileName), nil
}

// StateDir returns the directory holding the shared session state file,
// creating it if necessary.
func StateDir() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}
	dir := filepath.Join(currentUser.HomeDir, constants.ConfigDirName)
	if err = os.MkdirAll(dir, constants.ConfigDirPermissions); err != nil {
		return "", fmt.Errorf("error creating state directory: %w", err)
	}
	return dir, nil
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "INFO")
	v.SetDefault("csrf_token_ttl", constants.CSRFTokenTTL)
	v.SetDefault("session_poll_interval", constants.SessionPollInterval)
	v.SetDefault("max_active_notifications", constants.MaxActiveNotifications)
	v.SetDefault("desktop_notifications", true)
	v.SetDefault("debug_listen_addr", "127.0.0.1:7077")
}

func loadConfigFile(v *viper.Viper) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configFile := filepath.Join(currentUser.HomeDir, constants.ConfigDirName, constants.ConfigFileName)
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	return v.ReadInConfig()
}

func bindEnvVars(v *viper.Viper) {
	envVars := []string{
		"API_ENDPOINT",
		"CSRF_TOKEN_SEED",
		"CSRF_TOKEN_TTL",
		"DEBUG_LISTEN_ADDR",
		"DESKTOP_NOTIFICATIONS",
		"LOG_LEVEL",
		"MAX_ACTIVE_NOTIFICATIONS",
		"RECONNECT_BASE_DELAY",
		"RECONNECT_MAX_ATTEMPTS",
		"RECONNECT_MAX_DELAY",
		"SESSION_POLL_INTERVAL",
		"SLOW_NETWORK",
		"WEB_URL",
		"WEBSOCKET_ENDPOINT",
	}

	for _, envVar := range envVars {
		configKey := strings.ToLower(envVar)
		_ = v.BindEnv(configKey, "VEDFOLNIR_"+envVar)
	}
}
