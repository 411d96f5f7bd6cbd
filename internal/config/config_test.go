package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_WindowSize_TooLow(t *testing.T) {
	cfg := Defaults()
	cfg.Memory.WindowSize = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for windowSize=0")
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Defaults()
	cfg.Relays.WebSocket.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for port > 65535")
	}
}

func TestValidate_TelegramEnabledWithoutToken(t *testing.T) {
	cfg := Defaults()
	cfg.Relays.Telegram.Enabled = true
	cfg.Relays.Telegram.Token = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled telegram relay without token")
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars_Set(t *testing.T) {
	t.Setenv("RAGROOM_TEST_VAR", "hello")
	got := ExpandEnvVars("value is ${RAGROOM_TEST_VAR}")
	if got != "value is hello" {
		t.Fatalf("expected expansion, got %q", got)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	os.Unsetenv("RAGROOM_UNSET_VAR")
	got := ExpandEnvVars("${RAGROOM_UNSET_VAR:-fallback}")
	if got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestExpandEnvVars_UnsetWithoutDefault(t *testing.T) {
	os.Unsetenv("RAGROOM_UNSET_VAR")
	got := ExpandEnvVars("${RAGROOM_UNSET_VAR}")
	if got != "${RAGROOM_UNSET_VAR}" {
		t.Fatalf("expected placeholder kept, got %q", got)
	}
}

// --- Load / Save round trip ---

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Defaults()
	cfg.Relays.WebSocket.Port = 9999
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Relays.WebSocket.Port != 9999 {
		t.Fatalf("expected port 9999, got %d", loaded.Relays.WebSocket.Port)
	}
}

// --- Profiles ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestProfiles_ForFallsBackToDefault(t *testing.T) {
	p := DefaultProfiles()
	prof := p.For("unknown-room")
	if prof.Index != "demo-graz" || prof.Lang != "en" || prof.Limit != 100 {
		t.Fatalf("unexpected default profile: %+v", prof)
	}
}

func TestProfiles_RoomMapping(t *testing.T) {
	p := &Profiles{
		Default: "en",
		Profiles: map[string]Profile{
			"en": {Index: "demo-graz", Lang: "en", Limit: 100},
			"de": {Index: "demo-wien", Lang: "de", Limit: 50},
		},
		Rooms: map[string]string{"wien": "de"},
	}
	if got := p.For("wien").Index; got != "demo-wien" {
		t.Fatalf("expected demo-wien, got %q", got)
	}
	if got := p.For("other").Index; got != "demo-graz" {
		t.Fatalf("expected demo-graz fallback, got %q", got)
	}
}

func TestLoadProfiles_MissingFileUsesDefaults(t *testing.T) {
	p, err := LoadProfiles(filepath.Join(t.TempDir(), "nope.yaml"), testLogger())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if p.Default != "demo-graz" {
		t.Fatalf("expected built-in defaults, got %+v", p)
	}
}

func TestLoadProfiles_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")

	p := &Profiles{
		Default:  "en",
		Profiles: map[string]Profile{"en": {Index: "idx", Lang: "en", Limit: 10}},
		Rooms:    map[string]string{"lobby": "en"},
	}
	if err := SaveProfiles(path, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadProfiles(path, testLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.For("lobby").Index != "idx" {
		t.Fatalf("unexpected profile: %+v", loaded.For("lobby"))
	}
}

func TestLoadProfiles_UndefinedDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	if err := os.WriteFile(path, []byte("default: ghost\nprofiles:\n  en:\n    index: idx\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfiles(path, testLogger()); err == nil {
		t.Fatal("expected error for undefined default profile")
	}
}
