package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/dontsign/internal/model"
	"github.com/ppiankov/dontsign/internal/progress"
)

// Client runs analyses against a remote dontsign API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for baseURL. A nil httpClient gets a client
// without an overall timeout, since the event stream lasts as long as the run.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 2 * time.Minute,
		}}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Analyze posts req to the streaming endpoint and forwards every event to
// sink. It returns the result of the complete event, or the error carried
// by the error event.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest, sink progress.Sink) (*model.AnalysisResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, model.WrapError(model.KindConfiguration, "invalid server url", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, model.WrapError(model.KindUnknown, "analysis canceled", ctx.Err())
		}
		return nil, model.WrapError(model.KindAPI, "analysis server unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	reader := progress.NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil, model.NewError(model.KindAPI, "event stream ended without a result")
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, model.WrapError(model.KindUnknown, "analysis canceled", ctx.Err())
			}
			return nil, model.WrapError(model.KindAPI, "read event stream", err)
		}

		if sink != nil {
			if err := sink.Emit(ctx, ev); err != nil {
				sink = nil
			}
		}

		switch ev.Type {
		case model.EventComplete:
			if ev.Result == nil {
				return nil, model.NewError(model.KindAPI, "complete event without a result")
			}
			return ev.Result, nil
		case model.EventError:
			kind := ev.Kind
			if kind == "" {
				kind = model.KindUnknown
			}
			return nil, model.NewError(kind, ev.Error)
		}
	}
}

// responseError converts a JSON error response into an AnalysisError
func responseError(resp *http.Response) error {
	var er ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &er); err != nil || er.Error == "" {
		return model.NewError(model.KindAPI, fmt.Sprintf("unexpected status: %s", resp.Status))
	}

	kind := model.ErrorKind(er.Kind)
	switch kind {
	case model.KindInvalidInput, model.KindTextProcessing, model.KindAPI, model.KindConfiguration, model.KindUnknown:
	default:
		kind = model.KindAPI
	}
	return model.NewError(kind, fmt.Sprintf("%s (status %d)", er.Error, resp.StatusCode))
}
