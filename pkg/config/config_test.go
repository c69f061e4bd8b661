package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig_MemoryCap verifies the per-chat retention cap default
func TestDefaultConfig_MemoryCap(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Memory.MaxMessagesPerChat != 30 {
		t.Errorf("MaxMessagesPerChat = %d, want 30", cfg.Memory.MaxMessagesPerChat)
	}
	if cfg.Memory.ContextWindow != 25 {
		t.Errorf("ContextWindow = %d, want 25", cfg.Memory.ContextWindow)
	}
	if cfg.Memory.RetentionDays != 0 {
		t.Errorf("RetentionDays should be disabled by default, got %d", cfg.Memory.RetentionDays)
	}
}

// TestDefaultConfig_Generation verifies the sampling parameters the persona
// layer relies on
func TestDefaultConfig_Generation(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Generation.Model == "" {
		t.Error("Model should not be empty")
	}
	if cfg.Generation.MaxTokens != 150 {
		t.Errorf("MaxTokens = %d, want 150", cfg.Generation.MaxTokens)
	}
	if cfg.Generation.Temperature != 0.85 {
		t.Errorf("Temperature = %v, want 0.85", cfg.Generation.Temperature)
	}
	if cfg.Generation.TimeoutSeconds != 25 {
		t.Errorf("TimeoutSeconds = %d, want 25", cfg.Generation.TimeoutSeconds)
	}
}

func TestDefaultConfig_PersonaNameTokens(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Persona.NameTokens) != 2 {
		t.Fatalf("expected cyrillic and latin name tokens, got %v", cfg.Persona.NameTokens)
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Memory.MaxMessagesPerChat != 30 {
		t.Fatalf("expected defaults on missing file, got %#v", cfg.Memory)
	}
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"memory": {"context_window": 20}, "channels": {"discord": {"allow_from": ["123", 456]}}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("DEMIDBOT_GENERATION_MODEL", "llama-3.3-70b-versatile")
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Memory.ContextWindow != 20 {
		t.Errorf("ContextWindow = %d, want 20 from file", cfg.Memory.ContextWindow)
	}
	if cfg.Generation.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Model = %q, want env override", cfg.Generation.Model)
	}
	if cfg.Providers.Groq.APIKey != "gsk-test" {
		t.Errorf("Groq APIKey = %q, want env value", cfg.Providers.Groq.APIKey)
	}
	if len(cfg.Channels.Discord.AllowFrom) != 2 || cfg.Channels.Discord.AllowFrom[1] != "456" {
		t.Errorf("AllowFrom = %v, want mixed string/number slice normalized", cfg.Channels.Discord.AllowFrom)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Persona.Name = "Демид"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if loaded.Persona.Name != "Демид" {
		t.Fatalf("Persona.Name = %q after round trip", loaded.Persona.Name)
	}
}
