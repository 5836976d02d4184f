package realtime

import "time"

// ToolCallRecord mirrors one agent tool invocation as the client sees it.
// Result stays empty until the matching tool_result event arrives.
type ToolCallRecord struct {
	Iteration int            `json:"iteration"`
	ToolName  string         `json:"toolName"`
	Arguments map[string]any `json:"arguments"`
	Result    string         `json:"result,omitempty"`
}

type MessageStatus string

const (
	MessageStreaming MessageStatus = "streaming"
	MessageDone      MessageStatus = "done"
	MessageError     MessageStatus = "error"
)

// Message is the client-side view of one assistant turn, rebuilt
// incrementally from stream events.
type Message struct {
	ID         string
	Role       string
	Content    string
	Timestamp  time.Time
	References []ContextDocument
	ToolCalls  []ToolCallRecord
	Status     MessageStatus
	ErrMessage string
	LastStatus string
}

// Assembler applies stream events to one assistant message placeholder.
// Once a terminal event has been observed the message is frozen: further
// events are ignored.
type Assembler struct {
	msg      Message
	terminal bool
}

func NewAssembler(messageID string) *Assembler {
	return &Assembler{
		msg: Message{
			ID:        messageID,
			Role:      "assistant",
			Timestamp: time.Now(),
			Status:    MessageStreaming,
		},
	}
}

func (a *Assembler) Apply(ev Event) {
	if a.terminal {
		return
	}
	switch ev.Type {
	case EventStatus:
		if ev.Status != nil {
			a.msg.LastStatus = ev.Status.Message
		}
	case EventContent:
		if ev.Content != nil {
			a.msg.Content += ev.Content.Data
		}
	case EventToolCall:
		if ev.ToolCall != nil {
			a.msg.ToolCalls = append(a.msg.ToolCalls, ToolCallRecord{
				Iteration: ev.ToolCall.Iteration,
				ToolName:  ev.ToolCall.ToolName,
				Arguments: ev.ToolCall.Arguments,
			})
		}
	case EventToolResult:
		if ev.ToolResult != nil {
			for i := range a.msg.ToolCalls {
				if a.msg.ToolCalls[i].Iteration == ev.ToolResult.Iteration {
					a.msg.ToolCalls[i].Result = ev.ToolResult.Result
					break
				}
			}
		}
	case EventReferences:
		if ev.References != nil {
			a.msg.References = append([]ContextDocument(nil), ev.References.References...)
		}
	case EventDone:
		a.msg.Status = MessageDone
		a.terminal = true
	case EventError:
		a.msg.Status = MessageError
		if ev.Err != nil {
			a.msg.ErrMessage = ev.Err.Message
		}
		a.terminal = true
	}
}

// Terminal reports whether done or error has been observed. Consumers that
// never see a terminal event own their own timeout.
func (a *Assembler) Terminal() bool { return a.terminal }

// Message returns a copy of the current view.
func (a *Assembler) Message() Message {
	out := a.msg
	out.References = append([]ContextDocument(nil), a.msg.References...)
	out.ToolCalls = append([]ToolCallRecord(nil), a.msg.ToolCalls...)
	return out
}
