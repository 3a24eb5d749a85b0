package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to be valid, got %v", err)
	}
	if cfg.GetTick() != 50*time.Millisecond {
		t.Errorf("Expected tick 50ms, got %v", cfg.GetTick())
	}
	if cfg.GetDebounce() != 300*time.Millisecond {
		t.Errorf("Expected debounce 300ms, got %v", cfg.GetDebounce())
	}
	if cfg.GetPollInterval() != 250*time.Millisecond {
		t.Errorf("Expected poll interval 250ms, got %v", cfg.GetPollInterval())
	}

	ban, pick, planning, finalization, def := cfg.Ceilings()
	if ban != 30*time.Second || pick != 30*time.Second || planning != 30*time.Second {
		t.Errorf("Expected 30s ban/pick/planning ceilings, got %v/%v/%v", ban, pick, planning)
	}
	if finalization != 60*time.Second || def != 90*time.Second {
		t.Errorf("Expected 60s finalization and 90s default, got %v/%v", finalization, def)
	}

	if cfg.Advisory.URL != "" {
		t.Errorf("Expected advisory disabled by default, got %q", cfg.Advisory.URL)
	}
	if cfg.Roles.AutoAssign != "none" {
		t.Errorf("Expected auto_assign none, got %q", cfg.Roles.AutoAssign)
	}
}

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.API.Port)
	}
}

func TestLoadFile_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[advisory]
url = "http://localhost:8000"
top_k = 3

[timer]
ban_ceiling = "27s"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Advisory.URL != "http://localhost:8000" || cfg.Advisory.TopK != 3 {
		t.Errorf("Expected advisory settings from file, got %+v", cfg.Advisory)
	}
	if ban, _, _, _, _ := cfg.Ceilings(); ban != 27*time.Second {
		t.Errorf("Expected ban ceiling 27s, got %v", ban)
	}
	if cfg.Advisory.Debounce != "300ms" {
		t.Errorf("Expected default debounce to survive, got %q", cfg.Advisory.Debounce)
	}
	if len(cfg.Supervisor.DraftPhases) != 1 || cfg.Supervisor.DraftPhases[0] != "ChampSelect" {
		t.Errorf("Expected default draft phases, got %v", cfg.Supervisor.DraftPhases)
	}
}

func TestLoadFile_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LOLC_API_PORT", "9191")
	t.Setenv("LOLC_ADVISORY_URL", "http://advice.local")
	t.Setenv("LOLC_SUPERVISOR_DRAFT_PHASES", "ChampSelect,Lobby")
	t.Setenv("LOLC_APP_DEBUG_MODE", "true")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nport = 7000\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.API.Port != 9191 {
		t.Errorf("Expected environment to win over file, got port %d", cfg.API.Port)
	}
	if cfg.Advisory.URL != "http://advice.local" {
		t.Errorf("Expected advisory url from environment, got %q", cfg.Advisory.URL)
	}
	if len(cfg.Supervisor.DraftPhases) != 2 || cfg.Supervisor.DraftPhases[1] != "Lobby" {
		t.Errorf("Expected two draft phases, got %v", cfg.Supervisor.DraftPhases)
	}
	if !cfg.App.DebugMode {
		t.Error("Expected debug mode from environment")
	}
}

func TestLoadFile_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\nport ="), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Roles.AutoAssign = "first_available"
	cfg.Champions.DBPath = "/tmp/champions.db"
	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Roles.AutoAssign != "first_available" {
		t.Errorf("Expected auto_assign first_available, got %q", loaded.Roles.AutoAssign)
	}
	dbPath, err := loaded.ChampionDBPath()
	if err != nil {
		t.Fatalf("Failed to resolve db path: %v", err)
	}
	if dbPath != "/tmp/champions.db" {
		t.Errorf("Expected explicit db path, got %q", dbPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad log level", func(c *Config) { c.App.LogLevel = "loud" }},
		{"bad duration", func(c *Config) { c.LCU.PollInterval = "soon" }},
		{"zero duration", func(c *Config) { c.Timer.Tick = "0s" }},
		{"negative ceiling", func(c *Config) { c.Timer.BanCeiling = "-1s" }},
		{"no rate", func(c *Config) { c.LCU.RequestsPerSecond = 0 }},
		{"no draft phases", func(c *Config) { c.Supervisor.DraftPhases = nil }},
		{"zero top k", func(c *Config) { c.Advisory.TopK = 0 }},
		{"unknown policy", func(c *Config) { c.Roles.AutoAssign = "random" }},
		{"port out of range", func(c *Config) { c.API.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}
