package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/dontsign/internal/analyze"
	"github.com/ppiankov/dontsign/internal/cache"
	"github.com/ppiankov/dontsign/internal/chunker"
	"github.com/ppiankov/dontsign/internal/llm"
	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/pipeline"
	"github.com/ppiankov/dontsign/internal/progress"
	"github.com/ppiankov/dontsign/internal/prompt"
	"github.com/ppiankov/dontsign/internal/worker"
)

// appRuntime holds the components shared by every command: one prompt
// provider, one breaker and one chunk limiter per process.
type appRuntime struct {
	cfg          *model.Config
	logger       *zap.Logger
	prompts      *prompt.Provider
	provider     llm.Provider
	orchestrator *pipeline.Orchestrator
	fetcher      *pipeline.Fetcher
	gate         *worker.WindowLimiter
}

type runtimeOptions struct {
	noCache bool
	noGate  bool
}

func newRuntime(cfg *model.Config, logger *zap.Logger, opts runtimeOptions) (*appRuntime, error) {
	if err := mergePromptsFile(cfg); err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, err
	}

	prompts := prompt.NewProvider(cfg)
	analysisParams, err := prompts.ModelConfig(prompt.TypeAnalysis)
	if err != nil {
		return nil, err
	}

	breaker := llm.NewCircuitBreaker(llm.BreakerConfigFromModel(cfg.Breaker), logger)
	completions := llm.NewService(provider, llm.RetryConfigFromModel(cfg.Retry), breaker, logger)

	orchOpts := pipeline.Options{
		Chunker:      chunker.OptionsFromConfig(cfg.Analysis),
		ModelVersion: analysisParams.Model,
		Fingerprint:  prompts.Fingerprint(),
		Logger:       logger,
	}

	var gate *worker.WindowLimiter
	if !opts.noGate && cfg.RateLimit.ChunksPerWindow > 0 {
		gate, err = worker.NewWindowLimiterFromConfig(cfg.RateLimit)
		if err != nil {
			return nil, err
		}
		orchOpts.Gate = gate
	}
	if cfg.Analysis.DetectType {
		orchOpts.Detector = analyze.NewTypeDetector(completions, prompts)
	}
	if cfg.Cache.Enabled && !opts.noCache {
		ttl := time.Duration(cfg.Cache.TTL) * time.Hour
		backend := cache.NewLayeredCache(time.Hour, expandHome(cfg.Cache.Dir), ttl)
		orchOpts.Cache = cache.NewResultCache(backend, ttl)
	}

	orchestrator := pipeline.NewOrchestrator(
		analyze.NewSummarizer(completions, prompts, cfg.Analysis.SummaryExcerpt, logger),
		analyze.NewSectionAnalyzer(completions, prompts, logger),
		orchOpts,
	)

	return &appRuntime{
		cfg:          cfg,
		logger:       logger,
		prompts:      prompts,
		provider:     provider,
		orchestrator: orchestrator,
		fetcher:      pipeline.NewFetcherFromConfig(cfg.HTTP),
		gate:         gate,
	}, nil
}

// analyzeSource loads and analyzes one path, URL or "-"
func (rt *appRuntime) analyzeSource(ctx context.Context, source string, sink progress.Sink) (*model.AnalysisResult, error) {
	doc, err := pipeline.LoadDocument(ctx, source, rt.fetcher)
	if err != nil {
		return nil, err
	}
	return rt.orchestrator.ProcessDocument(ctx, *doc, sink)
}

// mergePromptsFile loads cfg.PromptsFile into cfg.Prompts. Inline prompts
// take precedence over the file.
func mergePromptsFile(cfg *model.Config) error {
	if cfg.PromptsFile == "" {
		return nil
	}
	overrides, err := prompt.LoadTemplates(expandHome(cfg.PromptsFile))
	if err != nil {
		return err
	}
	if cfg.Prompts == nil {
		cfg.Prompts = make(map[string]string, len(overrides))
	}
	for name, body := range overrides {
		if _, set := cfg.Prompts[name]; !set {
			cfg.Prompts[name] = body
		}
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
