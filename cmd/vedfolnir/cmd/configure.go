package cmd

import (
	"context"
	"fmt"

	"github.com/vedfolnir/console/internal/config"
	"github.com/vedfolnir/console/internal/constants"
	"github.com/vedfolnir/console/internal/output"

	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure local environment with server endpoints",
	Long: fmt.Sprintf(`Configure the local environment with your server endpoints.
This creates or updates the configuration file at ~/%s/%s`, constants.ConfigDirName, constants.ConfigFileName),
	Run: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(_ *cobra.Command, _ []string) {
	service := NewConfigureService(
		stdConsole{},
		NewConfigSaver(),
		NewConfigLoader(),
		NewConfigPathGetter(),
	)
	if err := service.Configure(context.Background()); err != nil {
		output.Errorf(err.Error())
	}
}

// ConsoleIO is the prompt and print surface the configure flow uses,
// injectable so tests can script answers.
type ConsoleIO interface {
	Infof(format string, a ...any)
	Successf(format string, a ...any)
	KeyValue(key, value string)
	Prompt(label string) string
}

// stdConsole answers ConsoleIO with the shared output helpers.
type stdConsole struct{}

func (stdConsole) Infof(format string, a ...any)    { output.Infof(format, a...) }
func (stdConsole) Successf(format string, a ...any) { output.Successf(format, a...) }
func (stdConsole) KeyValue(key, value string)       { output.KeyValue(key, value) }
func (stdConsole) Prompt(label string) string       { return output.Prompt(label) }

// ConfigLoader defines an interface for loading configuration
type ConfigLoader interface {
	Load() (*config.Config, error)
}

// ConfigSaver defines an interface for saving configuration
type ConfigSaver interface {
	Save(*config.Config) error
}

// ConfigPathGetter defines an interface for retrieving the configuration path
type ConfigPathGetter interface {
	GetConfigPath() (string, error)
}

// ConfigLoaderFunc adapts a function to the ConfigLoader interface
type ConfigLoaderFunc func() (*config.Config, error)

// Load executes the underlying function to load configuration
func (f ConfigLoaderFunc) Load() (*config.Config, error) {
	return f()
}

// ConfigSaverFunc adapts a function to the ConfigSaver interface
type ConfigSaverFunc func(*config.Config) error

// Save executes the underlying function to persist configuration
func (f ConfigSaverFunc) Save(cfg *config.Config) error {
	return f(cfg)
}

// ConfigPathGetterFunc adapts a function to the ConfigPathGetter interface
type ConfigPathGetterFunc func() (string, error)

// GetConfigPath executes the underlying function to retrieve the config path
func (f ConfigPathGetterFunc) GetConfigPath() (string, error) {
	return f()
}

// NewConfigLoader creates a ConfigLoader using the global config.Load function
func NewConfigLoader() ConfigLoader {
	return ConfigLoaderFunc(config.Load)
}

// NewConfigSaver creates a ConfigSaver using the global config.Save function
func NewConfigSaver() ConfigSaver {
	return ConfigSaverFunc(config.Save)
}

// NewConfigPathGetter creates a ConfigPathGetter using the global config.GetConfigPath function
func NewConfigPathGetter() ConfigPathGetter {
	return ConfigPathGetterFunc(config.GetConfigPath)
}

// ConfigureService handles configuration logic
type ConfigureService struct {
	console          ConsoleIO
	configSaver      ConfigSaver
	configLoader     ConfigLoader
	configPathGetter ConfigPathGetter
}

// NewConfigureService creates a new ConfigureService with the provided dependencies
func NewConfigureService(
	console ConsoleIO,
	configSaver ConfigSaver,
	configLoader ConfigLoader,
	configPathGetter ConfigPathGetter,
) *ConfigureService {
	return &ConfigureService{
		console:          console,
		configSaver:      configSaver,
		configLoader:     configLoader,
		configPathGetter: configPathGetter,
	}
}

// Configure runs the interactive configuration flow
func (s *ConfigureService) Configure(_ context.Context) error {
	existingConfig, err := s.configLoader.Load()
	configExists := err == nil

	if configExists {
		s.console.Successf("Found existing configuration")
	} else {
		existingConfig = &config.Config{}
		s.console.Infof("Creating new configuration")
	}

	endpoint := s.console.Prompt("Enter API endpoint URL")
	if endpoint == "" {
		if configExists && existingConfig.APIEndpoint != "" {
			endpoint = existingConfig.APIEndpoint
			s.console.Infof("Using existing endpoint: %s", endpoint)
		} else {
			return fmt.Errorf("API endpoint is required")
		}
	}

	webURL := s.console.Prompt("Enter web application URL (optional)")
	if webURL == "" && configExists {
		webURL = existingConfig.WebURL
	}

	wsEndpoint := s.console.Prompt("Enter websocket endpoint (optional, derived from API endpoint when empty)")
	if wsEndpoint == "" && configExists {
		wsEndpoint = existingConfig.WebSocketEndpoint
	}

	cfg := &config.Config{
		APIEndpoint:       endpoint,
		WebURL:            webURL,
		WebSocketEndpoint: wsEndpoint,
	}

	if err = s.configSaver.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	configPath, err := s.configPathGetter.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	s.console.Successf("Configuration saved successfully")
	s.console.KeyValue("Configuration path", configPath)
	s.console.Infof("Configuration complete!")
	return nil
}
