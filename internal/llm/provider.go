package llm

import (
	"context"

	"github.com/ppiankov/dontsign/internal/model"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionService is the opaque AI completion service the analyzers talk to
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Provider is a CompletionService backed by a concrete vendor API
type Provider interface {
	CompletionService

	// Name returns the provider name
	Name() string

	// Ping checks that the provider is configured and reachable
	Ping(ctx context.Context) error
}

// Message is one chat message in a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params are the per-request generation parameters
type Params struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	ResponseFormat model.ResponseFormat
}

// CompletionRequest contains the input for a single completion
type CompletionRequest struct {
	Messages []Message
	Params   Params
}

// Completion contains the provider's output
type Completion struct {
	// Text is the raw completion text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific), used when a request names none
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens used when a request sets none
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   60,
		MaxTokens: 1000,
	}
}

// splitSystem separates system messages from the conversation
func splitSystem(messages []Message) (system string, rest []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

func (c Config) modelFor(p Params, fallback string) string {
	if p.Model != "" {
		return p.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokensFor(p Params) int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}
