package model

// Stage is the coarse phase of an analysis run reported to callers
type Stage string

const (
	StagePreprocessing Stage = "preprocessing"
	StageAnalyzing     Stage = "analyzing"
	StageComplete      Stage = "complete"
)

// EventType tags the variant carried by a ProgressEvent
type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// ProgressEvent is one message on a run's progress stream.
// Exactly one of the complete/error variants terminates a run.
type ProgressEvent struct {
	Type EventType `json:"type"`

	// progress
	Stage        Stage  `json:"stage,omitempty"`
	Progress     int    `json:"progress"`         // Percent, 0-100
	CurrentChunk int    `json:"currentChunk,omitempty"`
	TotalChunks  int    `json:"totalChunks,omitempty"`
	Description  string `json:"description,omitempty"`

	// complete
	Result *AnalysisResult `json:"result,omitempty"`

	// error
	Error string    `json:"error,omitempty"`
	Kind  ErrorKind `json:"kind,omitempty"`
}

// NewProgressEvent creates a progress event without chunk position
func NewProgressEvent(stage Stage, percent int, description string) ProgressEvent {
	return ProgressEvent{
		Type:        EventProgress,
		Stage:       stage,
		Progress:    percent,
		Description: description,
	}
}

// NewChunkProgressEvent creates a progress event for a specific section
func NewChunkProgressEvent(percent, current, total int, description string) ProgressEvent {
	return ProgressEvent{
		Type:         EventProgress,
		Stage:        StageAnalyzing,
		Progress:     percent,
		CurrentChunk: current,
		TotalChunks:  total,
		Description:  description,
	}
}

// NewCompleteEvent creates the terminal success event
func NewCompleteEvent(result *AnalysisResult) ProgressEvent {
	return ProgressEvent{Type: EventComplete, Result: result}
}

// NewErrorEvent creates the terminal failure event
func NewErrorEvent(err error) ProgressEvent {
	return ProgressEvent{Type: EventError, Error: err.Error(), Kind: KindOf(err)}
}

// IsTerminal reports whether the event ends a run
func (e ProgressEvent) IsTerminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
