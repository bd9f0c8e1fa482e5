package cmd

import (
	"context"
	"fmt"
	"testing"

	"github.com/vedfolnir/console/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConsole answers prompts from a fixed list and records output.
type scriptedConsole struct {
	answers []string
	lines   []string
}

func (c *scriptedConsole) Infof(format string, a ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, a...))
}

func (c *scriptedConsole) Successf(format string, a ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, a...))
}

func (c *scriptedConsole) KeyValue(key, value string) {
	c.lines = append(c.lines, key+": "+value)
}

func (c *scriptedConsole) Prompt(string) string {
	if len(c.answers) == 0 {
		return ""
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer
}

func TestConfigureService(t *testing.T) {
	pathGetter := ConfigPathGetterFunc(func() (string, error) {
		return "/home/user/.vedfolnir/config.yaml", nil
	})

	t.Run("saves prompted endpoints", func(t *testing.T) {
		console := &scriptedConsole{answers: []string{
			"https://api.example.com",
			"https://web.example.com",
			"",
		}}
		var saved *config.Config
		saver := ConfigSaverFunc(func(cfg *config.Config) error {
			saved = cfg
			return nil
		})
		loader := ConfigLoaderFunc(func() (*config.Config, error) {
			return nil, fmt.Errorf("no config file")
		})

		service := NewConfigureService(console, saver, loader, pathGetter)
		require.NoError(t, service.Configure(context.Background()))

		require.NotNil(t, saved)
		assert.Equal(t, "https://api.example.com", saved.APIEndpoint)
		assert.Equal(t, "https://web.example.com", saved.WebURL)
		assert.Empty(t, saved.WebSocketEndpoint)
	})

	t.Run("empty answers keep existing values", func(t *testing.T) {
		console := &scriptedConsole{answers: []string{"", "", ""}}
		var saved *config.Config
		saver := ConfigSaverFunc(func(cfg *config.Config) error {
			saved = cfg
			return nil
		})
		loader := ConfigLoaderFunc(func() (*config.Config, error) {
			return &config.Config{
				APIEndpoint:       "https://api.existing.example",
				WebURL:            "https://web.existing.example",
				WebSocketEndpoint: "wss://ws.existing.example",
			}, nil
		})

		service := NewConfigureService(console, saver, loader, pathGetter)
		require.NoError(t, service.Configure(context.Background()))

		require.NotNil(t, saved)
		assert.Equal(t, "https://api.existing.example", saved.APIEndpoint)
		assert.Equal(t, "https://web.existing.example", saved.WebURL)
		assert.Equal(t, "wss://ws.existing.example", saved.WebSocketEndpoint)
	})

	t.Run("missing endpoint without existing config is an error", func(t *testing.T) {
		console := &scriptedConsole{answers: []string{"", "", ""}}
		saver := ConfigSaverFunc(func(*config.Config) error {
			t.Fatal("nothing should be saved")
			return nil
		})
		loader := ConfigLoaderFunc(func() (*config.Config, error) {
			return nil, fmt.Errorf("no config file")
		})

		service := NewConfigureService(console, saver, loader, pathGetter)
		err := service.Configure(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API endpoint is required")
	})
}
