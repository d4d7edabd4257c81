package model

import "time"

// SectionResult is the analysis of a single chunk
type SectionResult struct {
	PotentialRisks   []string        `json:"potentialRisks"`
	ImportantClauses []string        `json:"importantClauses"`
	Recommendations  []string        `json:"recommendations"`
	Metadata         SectionMetadata `json:"metadata"`
}

// SectionMetadata describes where a SectionResult came from
type SectionMetadata struct {
	ChunkIndex  int       `json:"chunkIndex"`
	TotalChunks int       `json:"totalChunks"`
	GeneratedAt time.Time `json:"generatedAt"`
	Model       string    `json:"model,omitempty"`
}

// AnalysisResult is the merged, deduplicated outcome of one analysis run
type AnalysisResult struct {
	Summary          string           `json:"summary"`
	PotentialRisks   []string         `json:"potentialRisks"`
	ImportantClauses []string         `json:"importantClauses"`
	Recommendations  []string         `json:"recommendations"`
	Metadata         AnalysisMetadata `json:"metadata"`
}

// AnalysisMetadata describes the run that produced an AnalysisResult
type AnalysisMetadata struct {
	AnalyzedAt   time.Time `json:"analyzedAt"`
	DocumentName string    `json:"documentName"`
	DocumentType string    `json:"documentType,omitempty"` // Only set when type detection is enabled
	ModelVersion string    `json:"modelVersion"`
	TotalChunks  int       `json:"totalChunks"`
}
