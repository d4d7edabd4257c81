package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/dontsign/internal/model"
)

// Output formats accepted by Render
const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// Render writes result in the named format
func Render(w io.Writer, result *model.AnalysisResult, format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return RenderJSON(w, result)
	case FormatMarkdown, "markdown":
		return RenderMarkdown(w, result)
	default:
		return model.NewError(model.KindConfiguration, fmt.Sprintf("unknown output format %q", format))
	}
}

// RenderJSON writes result as indented JSON
func RenderJSON(w io.Writer, result *model.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report
func RenderMarkdown(w io.Writer, result *model.AnalysisResult) error {
	var b strings.Builder

	title := result.Metadata.DocumentName
	if title == "" {
		title = "Document"
	}
	fmt.Fprintf(&b, "# Contract analysis: %s\n\n", title)

	meta := []string{fmt.Sprintf("Analyzed %s", result.Metadata.AnalyzedAt.Format("2006-01-02 15:04 MST"))}
	if result.Metadata.DocumentType != "" {
		meta = append(meta, "type "+result.Metadata.DocumentType)
	}
	if result.Metadata.ModelVersion != "" {
		meta = append(meta, "model "+result.Metadata.ModelVersion)
	}
	meta = append(meta, fmt.Sprintf("%d section(s)", result.Metadata.TotalChunks))
	fmt.Fprintf(&b, "_%s_\n\n", strings.Join(meta, " · "))

	b.WriteString("## Summary\n\n")
	if strings.TrimSpace(result.Summary) == "" {
		b.WriteString("_No summary._\n\n")
	} else {
		b.WriteString(strings.TrimSpace(result.Summary))
		b.WriteString("\n\n")
	}

	writeList(&b, "Potential risks", result.PotentialRisks)
	writeList(&b, "Important clauses", result.ImportantClauses)
	writeList(&b, "Recommendations", result.Recommendations)

	b.WriteString("---\n_Automated analysis, not legal advice._\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, heading string, items []string) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	if len(items) == 0 {
		b.WriteString("_None found._\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
