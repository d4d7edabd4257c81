package analyze

import (
	"context"
	"strings"

	"github.com/ppiankov/dontsign/internal/llm"
	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/prompt"
)

const detectExcerptChars = 2000

// TypeDetector classifies a document (lease, NDA, terms of service, ...)
type TypeDetector struct {
	completions llm.CompletionService
	prompts     PromptProvider
}

// NewTypeDetector creates a TypeDetector
func NewTypeDetector(completions llm.CompletionService, prompts PromptProvider) *TypeDetector {
	return &TypeDetector{completions: completions, prompts: prompts}
}

// DetectType returns a short lower-case label for the document
func (d *TypeDetector) DetectType(ctx context.Context, text string) (string, error) {
	params, err := d.prompts.ModelConfig(prompt.TypeDocumentType)
	if err != nil {
		return "", err
	}
	msg, err := d.prompts.Render(prompt.TemplateDocumentType, map[string]string{
		"text": excerpt(text, detectExcerptChars),
	})
	if err != nil {
		return "", err
	}

	resp, err := d.completions.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: msg}},
		Params:   params,
	})
	if err != nil {
		return "", model.EnsureKind(err, model.KindAPI, "document type detection failed")
	}

	label := strings.ToLower(strings.Trim(strings.TrimSpace(resp.Text), `"'.`))
	if label == "" {
		return "", model.NewError(model.KindAPI, "empty document type response")
	}
	return label, nil
}
