// Package prompt resolves per-analysis model parameters and renders prompt
// templates with {{var}} placeholders.
package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/dontsign/internal/cache"
	"github.com/ppiankov/dontsign/internal/llm"
	"github.com/ppiankov/dontsign/internal/model"
)

// AnalysisType selects a set of model parameters
type AnalysisType string

const (
	TypeAnalysis     AnalysisType = model.AnalysisTypeAnalysis
	TypeSummary      AnalysisType = model.AnalysisTypeSummary
	TypeDocumentType AnalysisType = model.AnalysisTypeDocumentType
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// maxCachedRender bounds the renders kept in the cache. Prompts that embed
// document text are rendered once per section and not worth keeping.
const maxCachedRender = 4 << 10

// Provider is the configuration provider: created once per process and
// shared by the analyzers.
type Provider struct {
	defaultModel string
	models       map[string]model.ModelParams
	templates    map[string]string
	rendered     *cache.MemoryCache
}

// NewProvider builds a Provider from configuration. Template overrides in
// cfg.Prompts replace the built-in templates of the same name.
func NewProvider(cfg *model.Config) *Provider {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	templates := DefaultTemplates()
	for name, body := range cfg.Prompts {
		if strings.TrimSpace(body) != "" {
			templates[name] = body
		}
	}

	models := make(map[string]model.ModelParams, len(cfg.Models))
	for k, v := range cfg.Models {
		models[k] = v
	}

	return &Provider{
		defaultModel: cfg.LLM.Model,
		models:       models,
		templates:    templates,
		rendered:     cache.NewMemoryCache(30*time.Minute, 10*time.Minute),
	}
}

// ModelConfig returns completion parameters for an analysis type. The
// configured default model fills in when the type names none.
func (p *Provider) ModelConfig(t AnalysisType) (llm.Params, error) {
	params, ok := p.models[string(t)]
	if !ok {
		return llm.Params{}, model.NewError(model.KindConfiguration,
			fmt.Sprintf("no model configuration for analysis type %q", t))
	}

	modelName := params.Model
	if modelName == "" {
		modelName = p.defaultModel
	}
	if modelName == "" {
		return llm.Params{}, model.NewError(model.KindConfiguration,
			fmt.Sprintf("no model configured for analysis type %q", t))
	}

	format := params.ResponseFormat
	switch format {
	case "":
		format = model.ResponseFormatText
	case model.ResponseFormatJSON, model.ResponseFormatText:
	default:
		return llm.Params{}, model.NewError(model.KindConfiguration,
			fmt.Sprintf("invalid response format %q for analysis type %q", format, t))
	}

	return llm.Params{
		Model:          modelName,
		Temperature:    params.Temperature,
		MaxTokens:      params.MaxTokens,
		ResponseFormat: format,
	}, nil
}

// Render substitutes {{var}} placeholders in the named template. Placeholders
// without a matching variable are left verbatim.
func (p *Provider) Render(name string, vars map[string]string) (string, error) {
	tmpl, ok := p.templates[name]
	if !ok {
		return "", model.NewError(model.KindConfiguration, fmt.Sprintf("unknown prompt template %q", name))
	}

	key := cache.TemplateKey(name, vars)
	if cached, ok := p.rendered.Get(key); ok {
		return string(cached), nil
	}

	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		varName := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := vars[varName]; ok {
			return v
		}
		return match
	})

	if len(out) <= maxCachedRender {
		_ = p.rendered.Set(key, []byte(out), 0)
	}
	return out, nil
}

// Fingerprint identifies the templates and model parameters in effect.
// Results produced under a different fingerprint are not interchangeable.
func (p *Provider) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(p.defaultModel))
	for _, name := range p.Templates() {
		fmt.Fprintf(h, "\x00tmpl:%s=%s", name, p.templates[name])
	}

	types := make([]string, 0, len(p.models))
	for t := range p.models {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		m := p.models[t]
		fmt.Fprintf(h, "\x00model:%s=%s/%g/%d/%s", t, m.Model, m.Temperature, m.MaxTokens, m.ResponseFormat)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Templates returns the names of all known templates, sorted
func (p *Provider) Templates() []string {
	names := make([]string, 0, len(p.templates))
	for name := range p.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear empties the rendered prompt cache
func (p *Provider) Clear() {
	_ = p.rendered.Clear()
}

// LoadTemplates reads template overrides from a YAML file mapping names to bodies
func LoadTemplates(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapError(model.KindConfiguration, "read prompt templates", err)
	}

	var templates map[string]string
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, model.WrapError(model.KindConfiguration, "parse prompt templates", err)
	}
	return templates, nil
}
