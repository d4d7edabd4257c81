// Package analyze turns contract text into structured findings by calling
// the completion service with rendered prompts.
package analyze

import (
	"github.com/ppiankov/dontsign/internal/llm"
	"github.com/ppiankov/dontsign/internal/prompt"
)

// PromptProvider supplies model parameters and rendered prompt templates
type PromptProvider interface {
	ModelConfig(t prompt.AnalysisType) (llm.Params, error)
	Render(name string, vars map[string]string) (string, error)
}
