package analyze

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/dontsign/internal/llm"
	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/prompt"
)

// DefaultExcerptChars is how much of the document the summarizer sees
const DefaultExcerptChars = 6000

// Summarizer produces a short plain-language summary of a document
type Summarizer struct {
	completions  llm.CompletionService
	prompts      PromptProvider
	excerptChars int
	logger       *zap.Logger
}

// NewSummarizer creates a Summarizer. excerptChars <= 0 uses DefaultExcerptChars.
func NewSummarizer(completions llm.CompletionService, prompts PromptProvider, excerptChars int, logger *zap.Logger) *Summarizer {
	if excerptChars <= 0 {
		excerptChars = DefaultExcerptChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{
		completions:  completions,
		prompts:      prompts,
		excerptChars: excerptChars,
		logger:       logger,
	}
}

// Summarize returns the trimmed summary of the leading excerpt of text
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	params, err := s.prompts.ModelConfig(prompt.TypeSummary)
	if err != nil {
		return "", err
	}

	msg, err := s.prompts.Render(prompt.TemplateSummary, map[string]string{
		"text": excerpt(text, s.excerptChars),
	})
	if err != nil {
		return "", err
	}

	resp, err := s.completions.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: msg}},
		Params:   params,
	})
	if err != nil {
		return "", model.EnsureKind(err, model.KindAPI, "summary generation failed")
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", model.NewError(model.KindAPI, "empty summary response")
	}
	return summary, nil
}

// excerpt returns at most n leading runes of text
func excerpt(text string, n int) string {
	runes := 0
	for i := range text {
		if runes == n {
			return text[:i]
		}
		runes++
	}
	return text
}
