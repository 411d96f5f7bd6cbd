package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// Secrets are credentials taken from the environment. They take precedence
// over whatever the config file holds, so deployments can keep key material
// out of the file entirely.
type Secrets struct {
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	SearchBaseURL string `env:"SEARCH_API_URL"`
}

// LoadSecrets parses the environment and applies non-empty values onto cfg.
func LoadSecrets(cfg *Config) error {
	s := Secrets{}
	if err := env.Parse(&s); err != nil {
		return fmt.Errorf("parsing env secrets: %w", err)
	}

	if s.OpenAIKey != "" {
		cfg.Provider.APIKey = s.OpenAIKey
	}
	if s.TelegramToken != "" {
		cfg.Relays.Telegram.Token = s.TelegramToken
	}
	if s.SearchBaseURL != "" {
		cfg.Search.BaseURL = s.SearchBaseURL
	}
	return nil
}
