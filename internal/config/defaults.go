package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:              "info",
			ScratchDir:            "~/.ragroom/scratch",
			ProfilesPath:          "~/.ragroom/profiles.yaml",
			MaxConcurrentMessages: 5,
		},
		Relays: RelaysConfig{
			WebSocket: WebSocketConfig{
				Enabled: true,
				Host:    "0.0.0.0",
				Port:    8081,
				Path:    "/ws",
			},
			Telegram: TelegramConfig{
				Enabled: false,
			},
		},
		Provider: ProviderConfig{
			APIKey:         "${OPENAI_API_KEY}",
			Model:          "gpt-4",
			MaxTokens:      256,
			TimeoutSeconds: 120,
		},
		Vision: VisionConfig{
			Model:          "gpt-4-vision-preview",
			TimeoutSeconds: 60,
		},
		Search: SearchConfig{
			BaseURL:        "http://localhost:8000/search",
			TimeoutSeconds: 10,
		},
		Memory: MemoryConfig{
			WindowSize:  5,
			ArchivePath: "~/.ragroom/archive.db",
		},
	}
}
