package progress

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/ppiankov/dontsign/internal/model"
)

// maxFrameBytes bounds a single SSE line when reading; complete events carry
// the full result
const maxFrameBytes = 4 << 20

// WriteHeaders sets the response headers for an event stream
func WriteHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// SSEWriter frames events as "data: <json>\n\n" and flushes after each one
type SSEWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSSEWriter creates an SSEWriter on w
func NewSSEWriter(w io.Writer) *SSEWriter {
	return &SSEWriter{w: w}
}

// Emit writes one frame
func (s *SSEWriter) Emit(ctx context.Context, ev model.ProgressEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// Reader decodes an event stream produced by SSEWriter
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader creates a Reader on r
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)
	return &Reader{scanner: scanner}
}

// Next returns the next event, or io.EOF at the end of the stream.
// Comment lines and fields other than data are ignored.
func (r *Reader) Next() (model.ProgressEvent, error) {
	var data bytes.Buffer
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if data.Len() == 0 {
				continue
			}
			return decodeFrame(data.Bytes())
		}
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(payload, " "))
		}
	}
	if err := r.scanner.Err(); err != nil {
		return model.ProgressEvent{}, fmt.Errorf("read event stream: %w", err)
	}
	if data.Len() > 0 {
		return decodeFrame(data.Bytes())
	}
	return model.ProgressEvent{}, io.EOF
}

func decodeFrame(data []byte) (model.ProgressEvent, error) {
	var ev model.ProgressEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return model.ProgressEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
