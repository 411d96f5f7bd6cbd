package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is one named search-index preset.
type Profile struct {
	Index string `yaml:"index"`
	Lang  string `yaml:"lang"`
	Limit int    `yaml:"limit"`
}

// Profiles maps rooms to search-index presets. Rooms without an explicit
// entry use the default profile.
type Profiles struct {
	Default  string             `yaml:"default"`
	Profiles map[string]Profile `yaml:"profiles"`
	Rooms    map[string]string  `yaml:"rooms"`
}

// DefaultProfiles returns the built-in preset table.
func DefaultProfiles() *Profiles {
	return &Profiles{
		Default: "demo-graz",
		Profiles: map[string]Profile{
			"demo-graz": {Index: "demo-graz", Lang: "en", Limit: 100},
		},
	}
}

// LoadProfiles reads the YAML preset file. A missing file is not an error:
// the built-in defaults are used.
func LoadProfiles(path string, logger *slog.Logger) (*Profiles, error) {
	path = expandPath(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug("profiles file does not exist, using defaults", "path", path)
		return DefaultProfiles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	p := DefaultProfiles()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profiles file %s: %w", path, err)
	}

	if _, ok := p.Profiles[p.Default]; !ok {
		return nil, fmt.Errorf("profiles file %s: default profile %q is not defined", path, p.Default)
	}

	logger.Info("loaded index profiles", "path", path, "profiles", len(p.Profiles), "rooms", len(p.Rooms))
	return p, nil
}

// SaveProfiles writes the preset table as YAML.
func SaveProfiles(path string, p *Profiles) error {
	path = expandPath(path)
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// For returns the profile for a room, falling back to the default preset.
func (p *Profiles) For(roomID string) Profile {
	if name, ok := p.Rooms[roomID]; ok {
		if prof, ok := p.Profiles[name]; ok {
			return prof
		}
	}
	return p.Profiles[p.Default]
}
