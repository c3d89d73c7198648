package llm

import (
	"fmt"

	"GTMMonitor/internal/config"
	"GTMMonitor/internal/ports"
)

// Provider endpoints and default models. The provider choice happens here,
// once; downstream code only sees ports.Oracle.
var providerDefaults = map[string]struct {
	endpoint string
	model    string
}{
	"openai":     {"https://api.openai.com/v1", "gpt-4o-mini"},
	"openrouter": {"https://openrouter.ai/api/v1", "google/gemini-pro-1.5:free"},
	"groq":       {"https://api.groq.com/openai/v1", "llama-3.1-8b-instant"},
	"together":   {"https://api.together.xyz/v1", "meta-llama/Llama-3-8b-chat-hf"},
	"gemini":     {"https://generativelanguage.googleapis.com", "gemini-2.5-flash"},
}

// New builds the oracle for the configured provider. Endpoint and model from
// the config override the provider defaults.
func New(cfg config.AIConfig) (ports.Oracle, error) {
	defaults, ok := providerDefaults[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaults.endpoint
	}

	model := cfg.Model
	if model == "" {
		model = defaults.model
	}

	if cfg.Provider == "gemini" {
		return NewGeminiClient(endpoint, model, cfg.APIKey), nil
	}

	return NewOpenAIClient(endpoint, model, cfg.APIKey), nil
}
