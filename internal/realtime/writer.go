package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

// ErrStreamClosed is returned by emits after the terminal event went out.
var ErrStreamClosed = errors.New("stream already closed")

type writerState int

const (
	stateInit writerState = iota
	stateStreaming
	stateDone
	stateError
)

// Writer owns one request's server→client event channel. Single producer;
// every event is flushed immediately; exactly one of done/error terminates
// the stream and nothing is written after it.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	log     *logger.Logger
	state   writerState
}

func NewWriter(w io.Writer, log *logger.Logger) *Writer {
	out := &Writer{
		w:     w,
		log:   log.With("component", "StreamWriter"),
		state: stateInit,
	}
	if f, ok := w.(http.Flusher); ok {
		out.flusher = f
	}
	return out
}

// SetStreamHeaders prepares an HTTP response for event streaming.
func SetStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func (s *Writer) Status(message string) error {
	return s.emit(StatusEvent(message))
}

func (s *Writer) Content(chunk string) error {
	return s.emit(ContentEvent(chunk))
}

func (s *Writer) ToolCall(iteration int, toolName string, args map[string]any) error {
	return s.emit(ToolCallEvent(iteration, toolName, args))
}

func (s *Writer) ToolResult(iteration int, result string) error {
	return s.emit(ToolResultEvent(iteration, result))
}

func (s *Writer) References(docs []ContextDocument) error {
	return s.emit(ReferencesEvent(docs))
}

// Done terminates the stream. Idempotence is not offered: a second terminal
// emit is a bug and returns ErrStreamClosed.
func (s *Writer) Done() error {
	return s.emit(DoneEvent())
}

func (s *Writer) Error(message string) error {
	return s.emit(ErrorEvent(message))
}

// Closed reports whether a terminal event was emitted.
func (s *Writer) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateDone || s.state == stateError
}

func (s *Writer) emit(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateDone || s.state == stateError {
		return ErrStreamClosed
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", raw); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}

	switch ev.Type {
	case EventDone:
		s.state = stateDone
	case EventError:
		s.state = stateError
	default:
		s.state = stateStreaming
	}
	return nil
}
