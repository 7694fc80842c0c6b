package providers

import (
	"fmt"
	"strings"

	"docchat/internal/config"
)

// NewEmbeddingProvider builds the single embedding provider named by the
// configuration. Selection happens once at composition time; callers never
// branch on provider identity per call.
func NewEmbeddingProvider(cfg config.Config) (EmbeddingProvider, error) {
	switch providerName(cfg.EmbedProvider) {
	case "mock":
		return NewMockProvider(cfg.EmbedDim), nil
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			EmbedModel: cfg.OpenAIEmbedModel,
			LLMModel:   cfg.OpenAILLMModel,
		}), nil
	case "google":
		return NewGoogleProvider(GoogleConfig{
			APIKey:     cfg.GoogleAPIKey,
			BaseURL:    cfg.GoogleBaseURL,
			EmbedModel: cfg.GoogleEmbedModel,
			LLMModel:   cfg.GoogleLLMModel,
		}), nil
	case "ollama":
		return NewOllamaProvider(OllamaConfig{
			BaseURL:    cfg.OllamaBaseURL,
			EmbedModel: cfg.OllamaEmbedModel,
			LLMModel:   cfg.OllamaLLMModel,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbedProvider)
	}
}

// NewLLMProvider builds the single LLM provider named by the configuration.
func NewLLMProvider(cfg config.Config) (LLMProvider, error) {
	switch providerName(cfg.LLMProvider) {
	case "mock":
		return NewMockProvider(cfg.EmbedDim), nil
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			EmbedModel: cfg.OpenAIEmbedModel,
			LLMModel:   cfg.OpenAILLMModel,
		}), nil
	case "google":
		return NewGoogleProvider(GoogleConfig{
			APIKey:     cfg.GoogleAPIKey,
			BaseURL:    cfg.GoogleBaseURL,
			EmbedModel: cfg.GoogleEmbedModel,
			LLMModel:   cfg.GoogleLLMModel,
		}), nil
	case "ollama":
		return NewOllamaProvider(OllamaConfig{
			BaseURL:    cfg.OllamaBaseURL,
			EmbedModel: cfg.OllamaEmbedModel,
			LLMModel:   cfg.OllamaLLMModel,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLMProvider)
	}
}

func providerName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
