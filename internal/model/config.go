package model

// ResponseFormat selects how the completion service should shape its output
type ResponseFormat string

const (
	ResponseFormatJSON ResponseFormat = "json_object"
	ResponseFormatText ResponseFormat = "text"
)

// Analysis types understood by the configuration provider
const (
	AnalysisTypeAnalysis     = "analysis"
	AnalysisTypeSummary      = "summary"
	AnalysisTypeDocumentType = "documentType"
)

// Config holds all DontSign configuration
type Config struct {
	LLM         LLMConfig              `yaml:"llm" mapstructure:"llm"`
	Analysis    AnalysisConfig         `yaml:"analysis" mapstructure:"analysis"`
	Models      map[string]ModelParams `yaml:"models" mapstructure:"models"`
	Prompts     map[string]string      `yaml:"prompts,omitempty" mapstructure:"prompts"`           // Template overrides by name
	PromptsFile string                 `yaml:"prompts_file,omitempty" mapstructure:"prompts_file"` // YAML file of template overrides
	Retry       RetryConfig            `yaml:"retry" mapstructure:"retry"`
	Breaker     BreakerConfig          `yaml:"breaker" mapstructure:"breaker"`
	RateLimit   RateLimitConfig        `yaml:"rate_limit" mapstructure:"rate_limit"`
	Server      ServerConfig           `yaml:"server" mapstructure:"server"`
	HTTP        HTTPConfig             `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig            `yaml:"cache" mapstructure:"cache"`
	Sentry      SentryConfig           `yaml:"sentry" mapstructure:"sentry"`
	Output      OutputConfig           `yaml:"output" mapstructure:"output"`
	Batch       BatchConfig            `yaml:"batch" mapstructure:"batch"`
}

// LLMConfig contains completion service settings
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model      string `yaml:"model" mapstructure:"model"`       // Default model when a type has none
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// AnalysisConfig tunes chunking and summarization
type AnalysisConfig struct {
	MaxChunkSize   int  `yaml:"max_chunk_size" mapstructure:"max_chunk_size"`   // token equivalents
	Overlap        int  `yaml:"overlap" mapstructure:"overlap"`                 // characters
	SummaryExcerpt int  `yaml:"summary_excerpt" mapstructure:"summary_excerpt"` // characters sent to the summarizer
	DetectType     bool `yaml:"detect_type" mapstructure:"detect_type"`         // classify document type
}

// ModelParams are the completion parameters for one analysis type
type ModelParams struct {
	Model          string         `yaml:"model,omitempty" mapstructure:"model"`
	Temperature    float64        `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens      int            `yaml:"max_tokens" mapstructure:"max_tokens"`
	ResponseFormat ResponseFormat `yaml:"response_format" mapstructure:"response_format"`
}

// RetryConfig controls backoff for transient completion failures
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs int     `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs  int     `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	Multiplier  float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// BreakerConfig controls the completion circuit breaker
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	Cooldown         int `yaml:"cooldown" mapstructure:"cooldown"`         // seconds
	MaxCooldown      int `yaml:"max_cooldown" mapstructure:"max_cooldown"` // seconds
}

// RateLimitConfig limits work per caller
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // HTTP requests per client
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	ChunksPerWindow   int     `yaml:"chunks_per_window" mapstructure:"chunks_per_window"` // 0 disables the chunk window
	Window            int     `yaml:"window" mapstructure:"window"`                       // seconds
	Policy            string  `yaml:"policy" mapstructure:"policy"`                       // block or reject
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string   `yaml:"addr" mapstructure:"addr"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ShutdownTimeout int      `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"` // seconds
	CORSOrigins     []string `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
}

// HTTPConfig contains settings for fetching remote documents
type HTTPConfig struct {
	Timeout       int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
	MaxRetries    int    `yaml:"max_retries" mapstructure:"max_retries"`
	HTTPProxy     string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the analysis result cache
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
	TTL     int    `yaml:"ttl" mapstructure:"ttl"` // hours
}

// SentryConfig configures error reporting
type SentryConfig struct {
	DSN         string  `yaml:"dsn,omitempty" mapstructure:"dsn"`
	Environment string  `yaml:"environment" mapstructure:"environment"`
	SampleRate  float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // json or markdown
	Dir    string `yaml:"dir,omitempty" mapstructure:"dir"`
}

// BatchConfig controls batch analysis
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  60,
		},
		Analysis: AnalysisConfig{
			MaxChunkSize:   4000,
			Overlap:        200,
			SummaryExcerpt: 6000,
		},
		Models: map[string]ModelParams{
			AnalysisTypeAnalysis: {
				Temperature:    0.2,
				MaxTokens:      2000,
				ResponseFormat: ResponseFormatJSON,
			},
			AnalysisTypeSummary: {
				Temperature:    0.3,
				MaxTokens:      500,
				ResponseFormat: ResponseFormatText,
			},
			AnalysisTypeDocumentType: {
				Temperature:    0,
				MaxTokens:      50,
				ResponseFormat: ResponseFormatText,
			},
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelayMs: 1000,
			MaxDelayMs:  10000,
			Multiplier:  2.0,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			Cooldown:         30,
			MaxCooldown:      300,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             5,
			ChunksPerWindow:   60,
			Window:            60,
			Policy:            "block",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    2 << 20,
			ShutdownTimeout: 30,
		},
		HTTP: HTTPConfig{
			Timeout:       15,
			UserAgent:     "DontSign/0.1 (+https://github.com/ppiankov/dontsign)",
			MaxBodyBytes:  10 << 20,
			RespectRobots: true,
			MaxRetries:    3,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "~/.dontsign/cache",
			TTL:     24,
		},
		Sentry: SentryConfig{
			Environment: "development",
			SampleRate:  1.0,
		},
		Output: OutputConfig{
			Format: "json",
		},
		Batch: BatchConfig{
			Concurrency: 3,
		},
	}
}
