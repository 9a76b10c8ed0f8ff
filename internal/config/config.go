package config

import (
	"fmt"
	"os"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "deepseek/deepseek-chat-v3-0324:free"
	defaultPort    = "3001"
)

// Config holds the recognized environment options.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Port    string
}

// Load reads configuration from the environment, applying defaults for
// everything except the API key.
func Load() (*Config, error) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
	}

	cfg := &Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		Model:   os.Getenv("DEEPSEEK_MODEL"),
		Port:    os.Getenv("PORT"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
