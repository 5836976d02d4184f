package realtime

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func frameBytes(t *testing.T, ev Event) []byte {
	t.Helper()
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return []byte(fmt.Sprintf("data: %s\n\n", raw))
}

func sampleStream(t *testing.T) ([]byte, []Event) {
	t.Helper()
	events := []Event{
		StatusEvent("Szukam kontekstu…"),
		ContentEvent("Cze"),
		ContentEvent("ść"),
		ToolCallEvent(1, "search_prints", map[string]any{"query": "podatki"}),
		ToolResultEvent(1, `[{"title":"Druk 123"}]`),
		ReferencesEvent([]ContextDocument{{Type: "Print", Title: "Druk 123", Content: "o podatkach", Score: 0.12, ID: "123"}}),
		DoneEvent(),
	}
	var stream []byte
	for _, ev := range events {
		stream = append(stream, frameBytes(t, ev)...)
	}
	return stream, events
}

func TestParserWholeStream(t *testing.T) {
	stream, want := sampleStream(t)

	p := NewParser(testLogger(t))
	got := p.Feed(stream)
	got = append(got, p.Close()...)

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parsed events differ:\n got %+v\nwant %+v", got, want)
	}
}

// Splitting the byte stream at every possible chunk size must reconstruct
// the identical event sequence, including splits inside multi-byte runes.
func TestParserArbitraryChunking(t *testing.T) {
	stream, want := sampleStream(t)

	for chunkSize := 1; chunkSize <= len(stream); chunkSize++ {
		p := NewParser(testLogger(t))
		var got []Event
		for off := 0; off < len(stream); off += chunkSize {
			end := off + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, p.Feed(stream[off:end])...)
		}
		got = append(got, p.Close()...)

		if !reflect.DeepEqual(got, want) {
			t.Fatalf("chunk size %d: parsed events differ", chunkSize)
		}
	}
}

func TestParserSkipsMalformedFrame(t *testing.T) {
	p := NewParser(testLogger(t))

	var stream []byte
	stream = append(stream, frameBytes(t, StatusEvent("ok"))...)
	stream = append(stream, []byte("data: {not json}\n\n")...)
	stream = append(stream, frameBytes(t, DoneEvent())...)

	got := p.Feed(stream)
	if len(got) != 2 {
		t.Fatalf("expected 2 events around the malformed frame, got %d", len(got))
	}
	if got[0].Type != EventStatus || got[1].Type != EventDone {
		t.Fatalf("unexpected event types: %v, %v", got[0].Type, got[1].Type)
	}
}

func TestParserCloseFlushesTrailingFrame(t *testing.T) {
	p := NewParser(testLogger(t))

	raw, _ := json.Marshal(ContentEvent("ogon"))
	// No closing blank line: the frame must stay pending until Close.
	if got := p.Feed([]byte("data: " + string(raw))); len(got) != 0 {
		t.Fatalf("incomplete frame parsed early: %+v", got)
	}
	got := p.Close()
	if len(got) != 1 || got[0].Type != EventContent || got[0].Content.Data != "ogon" {
		t.Fatalf("trailing frame not recovered: %+v", got)
	}
}

func TestParserCloseDiscardsGarbage(t *testing.T) {
	p := NewParser(testLogger(t))
	p.Feed([]byte("data: {\"type\":"))
	if got := p.Close(); got != nil {
		t.Fatalf("garbage tail should be discarded, got %+v", got)
	}
}
