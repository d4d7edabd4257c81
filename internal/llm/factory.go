package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/dontsign/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, model.NewError(model.KindConfiguration, "no LLM provider configured (supported: openai, anthropic, ollama)")

	default:
		return nil, model.NewError(model.KindConfiguration,
			fmt.Sprintf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider))
	}
}

// NewService composes the resilient completion stack: retries around a
// circuit breaker around the provider. Each attempt is seen by the breaker.
func NewService(provider CompletionService, retry RetryConfig, breaker *CircuitBreaker, logger *zap.Logger) CompletionService {
	var svc CompletionService = provider
	if breaker != nil {
		svc = breaker.Wrap(svc)
	}
	return NewRetryingService(svc, retry, logger)
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:   modelConfig.Provider,
		Model:      modelConfig.Model,
		APIKey:     modelConfig.APIKey,
		BaseURL:    modelConfig.BaseURL,
		Timeout:    modelConfig.Timeout,
		HTTPProxy:  modelConfig.HTTPProxy,
		HTTPSProxy: modelConfig.HTTPSProxy,
		NoProxy:    modelConfig.NoProxy,
	}
}
