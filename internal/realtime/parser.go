package realtime

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

var frameDelim = []byte("\n\n")

// Parser reassembles events from an arbitrarily chunked byte stream.
// Partial frames stay buffered until the closing blank line arrives;
// malformed frames are logged and skipped without aborting the stream.
type Parser struct {
	log *logger.Logger
	buf bytes.Buffer
}

func NewParser(log *logger.Logger) *Parser {
	return &Parser{log: log.With("component", "StreamParser")}
}

// Feed appends a chunk and returns every event completed by it.
func (p *Parser) Feed(chunk []byte) []Event {
	p.buf.Write(chunk)

	var out []Event
	for {
		raw := p.buf.Bytes()
		idx := bytes.Index(raw, frameDelim)
		if idx < 0 {
			return out
		}
		frame := string(raw[:idx])
		p.buf.Next(idx + len(frameDelim))

		if ev, ok := p.parseFrame(frame); ok {
			out = append(out, ev)
		}
	}
}

// Close attempts one final parse of whatever is left in the buffer. An
// invalid trailing fragment is discarded silently.
func (p *Parser) Close() []Event {
	frame := strings.TrimSpace(p.buf.String())
	p.buf.Reset()
	if frame == "" {
		return nil
	}
	if ev, ok := p.parseFrame(frame); ok {
		return []Event{ev}
	}
	return nil
}

func (p *Parser) parseFrame(frame string) (Event, bool) {
	var dataLines []string
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if len(dataLines) == 0 {
		return Event{}, false
	}
	payload := strings.Join(dataLines, "\n")

	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		if p.log != nil {
			p.log.Warn("Skipping malformed stream frame", "error", err)
		}
		return Event{}, false
	}
	return ev, true
}
