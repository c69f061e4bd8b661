package providers

import (
	"fmt"
	"strings"

	"github.com/demidbot/demidbot/pkg/config"
)

const (
	defaultGroqAPIBase = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.2-3b-instruct"
)

func init() {
	RegisterFactory(ProviderGroq, newGroqProviderFromConfig, validateGroqConfig)
}

func validateGroqConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if strings.TrimSpace(cfg.Providers.Groq.APIKey) == "" {
		return fmt.Errorf("Groq API key is required (set providers.groq.api_key or GROQ_API_KEY)")
	}
	return nil
}

func newGroqProviderFromConfig(cfg *config.Config) (LLMProvider, error) {
	if err := validateGroqConfig(cfg); err != nil {
		return nil, err
	}

	apiBase := strings.TrimSpace(cfg.Providers.Groq.APIBase)
	if apiBase == "" {
		apiBase = defaultGroqAPIBase
	}
	auth := NewAPIKeyAuth(NewStaticTokenSource(cfg.Providers.Groq.APIKey, "providers.groq.api_key"))
	return newChatCompletionsProvider(
		ProviderGroq,
		apiBase,
		defaultGroqModel,
		strings.TrimSpace(cfg.Providers.Groq.Proxy),
		auth,
	)
}
