package prompt

// Template names known to the analyzers
const (
	TemplateSectionSystem = "section_system"
	TemplateSectionUser   = "section_user"
	TemplateSummary       = "summary"
	TemplateDocumentType  = "document_type"
)

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultTemplates = map[string]string{
	TemplateSectionSystem: `You are a legal risk analyst reviewing contracts on behalf of the person asked to sign them.
For the contract section you are given, identify:
- potentialRisks: obligations, penalties, liabilities, waivers or one-sided terms that could harm the signer
- importantClauses: clauses the signer must understand before signing (term, termination, payment, renewal, jurisdiction)
- recommendations: concrete actions the signer should take, such as questions to ask or changes to negotiate

Respond with a JSON object of the form:
{"potentialRisks": ["..."], "importantClauses": ["..."], "recommendations": ["..."]}
Use short, self-contained sentences. Use empty arrays when nothing applies. Do not invent content that is not in the section.`,

	TemplateSectionUser: `Analyze section {{chunkIndex}} of {{totalChunks}} of the contract:

{{text}}`,

	TemplateSummary: `Summarize the following contract in 3-4 plain-language sentences for someone about to sign it.
Say what kind of agreement it is, who the parties are and what the signer commits to.

{{text}}`,

	TemplateDocumentType: `Classify the following document with a short label such as "employment agreement", "residential lease", "terms of service", "non-disclosure agreement" or "other".
Return only the label.

{{text}}`,
}

// DefaultTemplates returns a copy of the built-in templates
func DefaultTemplates() map[string]string {
	out := make(map[string]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		out[k] = v
	}
	return out
}
