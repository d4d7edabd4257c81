package analyze

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/dontsign/internal/llm"
	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/prompt"
)

// SectionAnalyzer extracts risks, clauses and recommendations from one chunk
type SectionAnalyzer struct {
	completions llm.CompletionService
	prompts     PromptProvider
	logger      *zap.Logger
	now         func() time.Time
}

// NewSectionAnalyzer creates a SectionAnalyzer
func NewSectionAnalyzer(completions llm.CompletionService, prompts PromptProvider, logger *zap.Logger) *SectionAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionAnalyzer{
		completions: completions,
		prompts:     prompts,
		logger:      logger,
		now:         time.Now,
	}
}

// AnalyzeSection analyzes chunk, the index-th (1-based) of total sections.
// Responses with the wrong structure fail with API_ERROR and are not retried.
func (a *SectionAnalyzer) AnalyzeSection(ctx context.Context, chunk string, index, total int) (*model.SectionResult, error) {
	params, err := a.prompts.ModelConfig(prompt.TypeAnalysis)
	if err != nil {
		return nil, err
	}

	system, err := a.prompts.Render(prompt.TemplateSectionSystem, nil)
	if err != nil {
		return nil, err
	}
	user, err := a.prompts.Render(prompt.TemplateSectionUser, map[string]string{
		"text":        chunk,
		"chunkIndex":  strconv.Itoa(index),
		"totalChunks": strconv.Itoa(total),
	})
	if err != nil {
		return nil, err
	}

	resp, err := a.completions.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Params: params,
	})
	if err != nil {
		return nil, model.EnsureKind(err, model.KindAPI, "section analysis failed")
	}

	validation, err := ParseSectionResponse(resp.Text)
	if err != nil {
		return nil, err
	}
	if !validation.OK() {
		a.logger.Warn("invalid analysis result structure",
			zap.Int("chunk", index),
			zap.String("errors", validation.Error()),
		)
		return nil, model.NewError(model.KindAPI, "invalid analysis result structure")
	}

	result := validation.Result
	result.Metadata = model.SectionMetadata{
		ChunkIndex:  index,
		TotalChunks: total,
		GeneratedAt: a.now().UTC(),
		Model:       resp.Model,
	}
	a.logger.Debug("section analyzed",
		zap.Int("chunk", index),
		zap.Int("total", total),
		zap.Int("tokens", resp.TokensUsed),
	)
	return result, nil
}
