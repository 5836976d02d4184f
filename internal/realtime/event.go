package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventStatus     EventType = "status"
	EventContent    EventType = "content"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventReferences EventType = "references"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// ContextDocument is one retrieved candidate (print, topic, organization)
// with its relevance score. Lower score = closer match; ordering within a
// list is the rank and is preserved end-to-end.
type ContextDocument struct {
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	URL        string     `json:"url,omitempty"`
	Score      float64    `json:"score"`
	ID         string     `json:"id,omitempty"`
	ChangeDate *time.Time `json:"changeDate,omitempty"`
}

type StatusPayload struct {
	Message string `json:"message"`
}

type ContentPayload struct {
	Data string `json:"data"`
}

type ToolCallPayload struct {
	Iteration int            `json:"iteration"`
	ToolName  string         `json:"toolName"`
	Arguments map[string]any `json:"arguments"`
}

type ToolResultPayload struct {
	Iteration int    `json:"iteration"`
	Result    string `json:"result"`
}

type ReferencesPayload struct {
	References []ContextDocument `json:"references"`
}

type DonePayload struct {
	Success bool `json:"success"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Event is the tagged union carried on the stream. Exactly one payload field
// is non-nil, matching Type.
type Event struct {
	Type EventType

	Status     *StatusPayload
	Content    *ContentPayload
	ToolCall   *ToolCallPayload
	ToolResult *ToolResultPayload
	References *ReferencesPayload
	Done       *DonePayload
	Err        *ErrorPayload
}

type wireEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Type {
	case EventStatus:
		payload = e.Status
	case EventContent:
		payload = e.Content
	case EventToolCall:
		payload = e.ToolCall
	case EventToolResult:
		payload = e.ToolResult
	case EventReferences:
		payload = e.References
	case EventDone:
		payload = e.Done
	case EventError:
		payload = e.Err
	default:
		return nil, fmt.Errorf("realtime: unknown event type %q", e.Type)
	}
	if payload == nil {
		return nil, fmt.Errorf("realtime: event %q has no payload", e.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{Type: e.Type, Data: raw})
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = Event{Type: w.Type}
	switch w.Type {
	case EventStatus:
		e.Status = &StatusPayload{}
		return json.Unmarshal(w.Data, e.Status)
	case EventContent:
		e.Content = &ContentPayload{}
		return json.Unmarshal(w.Data, e.Content)
	case EventToolCall:
		e.ToolCall = &ToolCallPayload{}
		return json.Unmarshal(w.Data, e.ToolCall)
	case EventToolResult:
		e.ToolResult = &ToolResultPayload{}
		return json.Unmarshal(w.Data, e.ToolResult)
	case EventReferences:
		e.References = &ReferencesPayload{}
		return json.Unmarshal(w.Data, e.References)
	case EventDone:
		e.Done = &DonePayload{}
		return json.Unmarshal(w.Data, e.Done)
	case EventError:
		e.Err = &ErrorPayload{}
		return json.Unmarshal(w.Data, e.Err)
	default:
		return fmt.Errorf("realtime: unknown event type %q", w.Type)
	}
}

func StatusEvent(message string) Event {
	return Event{Type: EventStatus, Status: &StatusPayload{Message: message}}
}

func ContentEvent(chunk string) Event {
	return Event{Type: EventContent, Content: &ContentPayload{Data: chunk}}
}

func ToolCallEvent(iteration int, toolName string, args map[string]any) Event {
	return Event{Type: EventToolCall, ToolCall: &ToolCallPayload{
		Iteration: iteration,
		ToolName:  toolName,
		Arguments: args,
	}}
}

func ToolResultEvent(iteration int, result string) Event {
	return Event{Type: EventToolResult, ToolResult: &ToolResultPayload{
		Iteration: iteration,
		Result:    result,
	}}
}

func ReferencesEvent(docs []ContextDocument) Event {
	return Event{Type: EventReferences, References: &ReferencesPayload{References: docs}}
}

func DoneEvent() Event {
	return Event{Type: EventDone, Done: &DonePayload{Success: true}}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Err: &ErrorPayload{Message: message}}
}
