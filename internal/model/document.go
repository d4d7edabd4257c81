package model

import "unicode/utf8"

// Document is the raw contract text submitted for analysis
type Document struct {
	Name string `json:"name"` // Display name (file name, URL subject)
	Text string `json:"text"` // Plain text content
}

// Chunk is one bounded, 1-indexed section of a Document
type Chunk struct {
	Index           int    `json:"index"`           // 1-based position in the document
	Text            string `json:"text"`            // Trimmed section text, never empty
	EstimatedTokens int    `json:"estimatedTokens"` // ceil(chars / 4)
}

// EstimateTokens approximates the token count of text as ceil(chars / 4)
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
