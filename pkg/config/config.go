package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Persona    PersonaConfig    `json:"persona"`
	Channels   ChannelsConfig   `json:"channels"`
	Providers  ProvidersConfig  `json:"providers"`
	Generation GenerationConfig `json:"generation"`
	Memory     MemoryConfig     `json:"memory"`
	Log        LogConfig        `json:"log"`
	mu         sync.RWMutex
}

// PersonaConfig names the character the bot plays. NameTokens are the
// lowercased prefixes that address the bot by name in group chats.
type PersonaConfig struct {
	Name        string              `json:"name" env:"DEMIDBOT_PERSONA_NAME"`
	BotUsername string              `json:"bot_username" env:"DEMIDBOT_PERSONA_BOT_USERNAME"`
	NameTokens  FlexibleStringSlice `json:"name_tokens" env:"DEMIDBOT_PERSONA_NAME_TOKENS"`
}

type ChannelsConfig struct {
	Discord DiscordConfig `json:"discord"`
	Console ConsoleConfig `json:"console"`
}

type DiscordConfig struct {
	Token     string              `json:"token" env:"DEMIDBOT_CHANNELS_DISCORD_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"DEMIDBOT_CHANNELS_DISCORD_ALLOW_FROM"`
}

// ConsoleConfig enables a local readline chat for poking the persona
// without a platform token.
type ConsoleConfig struct {
	Enabled bool `json:"enabled" env:"DEMIDBOT_CHANNELS_CONSOLE_ENABLED"`
}

type ProvidersConfig struct {
	Groq   ProviderConfig `json:"groq"`
	OpenAI ProviderConfig `json:"openai"`
	Active string         `json:"active" env:"DEMIDBOT_PROVIDERS_ACTIVE"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	APIBase string `json:"api_base"`
	Proxy   string `json:"proxy,omitempty"`
}

type GenerationConfig struct {
	Model          string  `json:"model" env:"DEMIDBOT_GENERATION_MODEL"`
	MaxTokens      int     `json:"max_tokens" env:"DEMIDBOT_GENERATION_MAX_TOKENS"`
	Temperature    float64 `json:"temperature" env:"DEMIDBOT_GENERATION_TEMPERATURE"`
	TopP           float64 `json:"top_p" env:"DEMIDBOT_GENERATION_TOP_P"`
	TimeoutSeconds int     `json:"timeout_seconds" env:"DEMIDBOT_GENERATION_TIMEOUT_SECONDS"`
}

type MemoryConfig struct {
	DBPath             string `json:"db_path" env:"DEMIDBOT_MEMORY_DB_PATH"`
	MaxMessagesPerChat int    `json:"max_messages_per_chat" env:"DEMIDBOT_MEMORY_MAX_MESSAGES_PER_CHAT"`
	ContextWindow      int    `json:"context_window" env:"DEMIDBOT_MEMORY_CONTEXT_WINDOW"`
	RetentionDays      int    `json:"retention_days" env:"DEMIDBOT_MEMORY_RETENTION_DAYS"`
	PruneSchedule      string `json:"prune_schedule" env:"DEMIDBOT_MEMORY_PRUNE_SCHEDULE"`
}

type LogConfig struct {
	Level  string `json:"level" env:"DEMIDBOT_LOG_LEVEL"`
	Format string `json:"format" env:"DEMIDBOT_LOG_FORMAT"`
}

func DefaultConfig() *Config {
	return &Config{
		Persona: PersonaConfig{
			Name:        "Демид",
			BotUsername: "demid_bot",
			NameTokens:  FlexibleStringSlice{"демид", "demid"},
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
			Console: ConsoleConfig{
				Enabled: false,
			},
		},
		Providers: ProvidersConfig{
			Groq:   ProviderConfig{},
			OpenAI: ProviderConfig{},
			Active: "groq",
		},
		Generation: GenerationConfig{
			Model:          "llama-3.2-3b-instruct",
			MaxTokens:      150,
			Temperature:    0.85,
			TopP:           0.95,
			TimeoutSeconds: 25,
		},
		Memory: MemoryConfig{
			DBPath:             "~/.demidbot/demid_memory.db",
			MaxMessagesPerChat: 30,
			ContextWindow:      25,
			RetentionDays:      0,  // time-based retention off unless configured
			PruneSchedule:      "", // cron expression, e.g. "0 * * * *"
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Provider API keys are flat env names to match how deployments
	// usually export them.
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.Providers.Groq.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Providers.OpenAI.APIKey == "" {
		cfg.Providers.OpenAI.APIKey = v
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) MemoryDBPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Memory.DBPath)
}

func (c *Config) ActiveProvider() ProviderConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Providers.Active == "openai" {
		return c.Providers.OpenAI
	}
	return c.Providers.Groq
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
