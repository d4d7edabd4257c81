package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/pipeline"
	"github.com/ppiankov/dontsign/internal/progress"
	"github.com/ppiankov/dontsign/internal/telemetry"
)

// DocumentAnalyzer runs one analysis, streaming progress to sink
type DocumentAnalyzer interface {
	ProcessDocument(ctx context.Context, doc model.Document, sink progress.Sink, opts ...pipeline.RunOption) (*model.AnalysisResult, error)
}

// AnalyzeRequest is the body of the analyze endpoints. Exactly one of Text
// and URL is expected; Text wins when both are set.
type AnalyzeRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// Handler serves the analysis API
type Handler struct {
	analyzer DocumentAnalyzer
	fetcher  *pipeline.Fetcher
	logger   *zap.Logger
}

// NewHandler creates a Handler. fetcher may be nil, which disables URL requests.
func NewHandler(analyzer DocumentAnalyzer, fetcher *pipeline.Fetcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{analyzer: analyzer, fetcher: fetcher, logger: logger}
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Analyze streams progress events over SSE, ending with exactly one
// complete or error event. Request errors found before the stream starts
// get a plain JSON error response.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	doc, err := h.document(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	progress.WriteHeaders(w)
	w.WriteHeader(http.StatusOK)
	sink := progress.Multi(progress.NewSSEWriter(w), h.eventLog(r))

	_, err = h.analyzer.ProcessDocument(r.Context(), *doc, sink, h.runOptions(r)...)
	if err != nil {
		h.reportFailure(r, err)
	}
}

// AnalyzeSync runs the analysis and answers with the final result as JSON
func (h *Handler) AnalyzeSync(w http.ResponseWriter, r *http.Request) {
	doc, err := h.document(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	result, err := h.analyzer.ProcessDocument(r.Context(), *doc, nil, h.runOptions(r)...)
	if err != nil {
		h.reportFailure(r, err)
		HandleError(w, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

func (h *Handler) document(r *http.Request) (*model.Document, error) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, model.WrapError(model.KindInvalidInput, "request body too large", err)
		}
		return nil, model.WrapError(model.KindInvalidInput, "invalid request body", err)
	}

	name := strings.TrimSpace(req.Name)
	switch {
	case strings.TrimSpace(req.Text) != "":
		if name == "" {
			name = "document"
		}
		return &model.Document{Name: name, Text: req.Text}, nil
	case req.URL != "":
		if !pipeline.IsURL(req.URL) {
			return nil, model.NewError(model.KindInvalidInput, "url must be http or https")
		}
		if h.fetcher == nil {
			return nil, model.NewError(model.KindInvalidInput, "url analysis is disabled")
		}
		doc, err := pipeline.LoadDocument(r.Context(), req.URL, h.fetcher)
		if err != nil {
			return nil, err
		}
		if name != "" {
			doc.Name = name
		}
		return doc, nil
	default:
		return nil, model.NewError(model.KindInvalidInput, "text is required")
	}
}

func (h *Handler) runOptions(r *http.Request) []pipeline.RunOption {
	opts := []pipeline.RunOption{pipeline.WithCallerKey(clientIP(r))}
	if id := GetRequestID(r.Context()); id != "" {
		opts = append(opts, pipeline.WithRunID(id))
	}
	return opts
}

// eventLog logs each streamed event at debug level
func (h *Handler) eventLog(r *http.Request) progress.Sink {
	requestID := GetRequestID(r.Context())
	return progress.SinkFunc(func(_ context.Context, ev model.ProgressEvent) error {
		h.logger.Debug("analysis event",
			zap.String("request_id", requestID),
			zap.String("type", string(ev.Type)),
			zap.String("stage", string(ev.Stage)),
			zap.Int("progress", ev.Progress),
		)
		return nil
	})
}

func (h *Handler) reportFailure(r *http.Request, err error) {
	if StatusForError(err) >= http.StatusInternalServerError {
		telemetry.CaptureError(r.Context(), err)
	}
	h.logger.Debug("analysis request failed",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.Error(err),
	)
}
