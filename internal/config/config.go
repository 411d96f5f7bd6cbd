package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for ragroom.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Relays   RelaysConfig   `json:"relays"`
	Provider ProviderConfig `json:"provider"`
	Vision   VisionConfig   `json:"vision"`
	Search   SearchConfig   `json:"search"`
	Memory   MemoryConfig   `json:"memory"`
}

type GeneralConfig struct {
	LogLevel              string `json:"logLevel"`
	ScratchDir            string `json:"scratchDir"`
	ProfilesPath          string `json:"profilesPath"`
	MaxConcurrentMessages int    `json:"maxConcurrentMessages"`
}

type RelaysConfig struct {
	WebSocket WebSocketConfig `json:"websocket"`
	Telegram  TelegramConfig  `json:"telegram"`
}

type WebSocketConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
}

// ProviderConfig configures the language-model collaborator.
type ProviderConfig struct {
	APIKey         string `json:"apiKey"`
	APIBase        string `json:"apiBase,omitempty"`
	Model          string `json:"model"`
	MaxTokens      int    `json:"maxTokens"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// VisionConfig configures the image-captioning collaborator.
type VisionConfig struct {
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// SearchConfig configures the external search index collaborator.
type SearchConfig struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type MemoryConfig struct {
	WindowSize  int    `json:"windowSize"`
	ArchivePath string `json:"archivePath,omitempty"` // empty disables the transcript archive
}

func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragroom"
	}
	return filepath.Join(home, ".ragroom")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	ExpandPaths(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Memory.WindowSize < 1 || cfg.Memory.WindowSize > 100 {
		errs = append(errs, "memory.windowSize must be between 1 and 100")
	}
	if cfg.General.MaxConcurrentMessages < 1 || cfg.General.MaxConcurrentMessages > 100 {
		errs = append(errs, "general.maxConcurrentMessages must be between 1 and 100")
	}
	if p := cfg.Relays.WebSocket.Port; p < 0 || p > 65535 {
		errs = append(errs, "relays.websocket.port must be between 0 and 65535")
	}
	if cfg.Relays.Telegram.Enabled && cfg.Relays.Telegram.Token == "" {
		errs = append(errs, "relays.telegram.token is required when the telegram relay is enabled")
	}
	if cfg.Search.BaseURL == "" {
		errs = append(errs, "search.baseUrl must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// ExpandPaths resolves "~/" prefixes in all path-valued fields. Load
// applies it automatically; callers falling back to Defaults() should
// apply it themselves.
func ExpandPaths(cfg *Config) {
	cfg.General.ScratchDir = expandPath(cfg.General.ScratchDir)
	cfg.General.ProfilesPath = expandPath(cfg.General.ProfilesPath)
	cfg.Memory.ArchivePath = expandPath(cfg.Memory.ArchivePath)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
