package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/modules/chat/steps"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

const (
	statusSearching  = "Szukam kontekstu w dokumentach Sejmu…"
	statusGenerating = "Generuję odpowiedź…"
	statusAnalyzing  = "Analizuję pytanie…"

	errMessageGeneric = "Coś poszło nie tak podczas generowania odpowiedzi. Spróbuj ponownie."
)

// InboundMessage is one entry of the client-supplied transcript.
type InboundMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type RespondInput struct {
	UserID         uuid.UUID
	ConversationID *uuid.UUID
	Messages       []InboundMessage
}

// turnMetadata is what gets persisted alongside an assistant turn.
type turnMetadata struct {
	References []realtime.ContextDocument `json:"references,omitempty"`
	ToolCalls  []realtime.ToolCallRecord  `json:"tool_calls,omitempty"`
}

// RespondDirect drives one plain RAG turn over an already-open stream.
// Everything after the stream opens is reported through stream events; the
// returned error is for the request log only.
func (u *Usecases) RespondDirect(ctx context.Context, w *realtime.Writer, in RespondInput) error {
	question, history, err := splitTranscript(in.Messages)
	if err != nil {
		_ = w.Error(errMessageGeneric)
		return err
	}

	sctx, end := u.deps.Trace.Span(ctx, "chat.respond.direct")
	defer func() { end(err) }()

	conv, err := u.ensureConversation(sctx, in, question)
	if err != nil {
		_ = w.Error(errMessageGeneric)
		return err
	}
	u.persistTurn(sctx, conv, in.UserID, types.RoleUser, question, nil)

	_ = w.Status(statusSearching)
	retrieved, err := steps.Retrieve(sctx, u.retrieveDeps(), steps.RetrieveInput{
		Query:       question,
		VectorK:     u.deps.Cfg.VectorK,
		RelationalK: u.deps.Cfg.RelationalK,
	})
	if err != nil {
		if isCanceled(err) {
			return err
		}
		_ = w.Error(errMessageGeneric)
		return err
	}
	merged := steps.Merge(
		[][]realtime.ContextDocument{retrieved.Graph, retrieved.Relational},
		u.deps.Cfg.ContextLimit,
		u.deps.Cfg.MergeNormalize,
	)

	system := steps.BuildDirectPrompt(time.Now(), merged, u.deps.Cfg.ContentCharBudget)
	transcript := steps.BuildTranscript(history, question)

	_ = w.Status(statusGenerating)
	full, err := u.deps.AI.StreamText(sctx, system, transcript, func(delta string) {
		_ = w.Content(delta)
	})
	if err != nil {
		if isCanceled(err) {
			return err
		}
		u.deps.Log.Error("model stream failed", "error", err)
		_ = w.Error(errMessageGeneric)
		return err
	}

	_ = w.References(merged)
	_ = w.Done()

	u.persistTurn(sctx, conv, in.UserID, types.RoleAssistant, full, &turnMetadata{References: merged})
	return nil
}

// RespondAgentic drives one tool-augmented turn.
func (u *Usecases) RespondAgentic(ctx context.Context, w *realtime.Writer, in RespondInput) error {
	question, history, err := splitTranscript(in.Messages)
	if err != nil {
		_ = w.Error(errMessageGeneric)
		return err
	}

	sctx, end := u.deps.Trace.Span(ctx, "chat.respond.agentic")
	defer func() { end(err) }()

	conv, err := u.ensureConversation(sctx, in, question)
	if err != nil {
		_ = w.Error(errMessageGeneric)
		return err
	}
	u.persistTurn(sctx, conv, in.UserID, types.RoleUser, question, nil)

	_ = w.Status(statusAnalyzing)

	tools := steps.NewToolRegistry(steps.ToolDeps{
		Retrieve: u.retrieveDeps(),
		Prints:   u.deps.Prints,
		VectorK:  u.deps.Cfg.VectorK,
		Log:      u.deps.Log,
	})

	out, err := steps.RunAgent(sctx, steps.AgentDeps{
		AI:    u.deps.AI,
		Tools: tools,
		Log:   u.deps.Log,
		Trace: u.deps.Trace,
	}, steps.AgentInput{
		System:        steps.BuildAgentPrompt(time.Now(), tools),
		Transcript:    steps.BuildTranscript(history, question),
		MaxIterations: u.deps.Cfg.MaxIterations,
		Hooks: steps.AgentHooks{
			OnToolCall: func(iteration int, toolName string, arguments map[string]any) {
				_ = w.ToolCall(iteration, toolName, arguments)
			},
			OnToolResult: func(iteration int, result string) {
				_ = w.ToolResult(iteration, result)
			},
		},
	})
	if err != nil {
		if isCanceled(err) {
			return err
		}
		u.deps.Log.Error("agent loop failed", "error", err)
		_ = w.Error(errMessageGeneric)
		return err
	}

	_ = w.Content(out.FinalText)
	if len(out.References) > 0 {
		_ = w.References(out.References)
	}
	_ = w.Done()

	u.persistTurn(sctx, conv, in.UserID, types.RoleAssistant, out.FinalText, &turnMetadata{
		References: out.References,
		ToolCalls:  out.ToolCalls,
	})
	return nil
}

func splitTranscript(messages []InboundMessage) (string, []*types.ConversationMessage, error) {
	if len(messages) == 0 {
		return "", nil, fmt.Errorf("chat respond: empty messages")
	}
	question := strings.TrimSpace(messages[len(messages)-1].Content)
	if question == "" {
		return "", nil, fmt.Errorf("chat respond: empty question")
	}
	history := make([]*types.ConversationMessage, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		history = append(history, &types.ConversationMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return question, history, nil
}

// ensureConversation loads and ownership-checks the target conversation, or
// creates one titled after the question when the client did not name one.
func (u *Usecases) ensureConversation(ctx context.Context, in RespondInput, question string) (*types.Conversation, error) {
	dbc := dbctx.Context{Ctx: ctx}

	if in.ConversationID != nil && *in.ConversationID != uuid.Nil {
		conv, err := u.deps.Conversations.GetByID(dbc, *in.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv == nil || conv.UserID != in.UserID {
			return nil, fmt.Errorf("conversation not found")
		}
		return conv, nil
	}

	title := question
	if runes := []rune(title); len(runes) > 80 {
		title = string(runes[:80]) + "…"
	}
	rows, err := u.deps.Conversations.Create(dbc, []*types.Conversation{{
		UserID: in.UserID,
		Title:  title,
	}})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

// persistTurn appends one message row. Persistence failures are logged and
// swallowed: the answer already reached the client, losing the copy is the
// lesser failure. Canceled requests skip the write entirely.
func (u *Usecases) persistTurn(ctx context.Context, conv *types.Conversation, userID uuid.UUID, role, content string, meta *turnMetadata) {
	if ctx.Err() != nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}

	maxSeq, err := u.deps.Messages.GetMaxSeq(dbc, conv.ID)
	if err != nil {
		u.deps.Log.Error("persisting turn failed at seq lookup", "conversation_id", conv.ID, "error", err)
		return
	}

	row := &types.ConversationMessage{
		ConversationID: conv.ID,
		UserID:         userID,
		Seq:            maxSeq + 1,
		Role:           role,
		Content:        content,
		Metadata:       datatypes.JSON([]byte(`{}`)),
	}
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			row.Metadata = datatypes.JSON(raw)
		}
	}
	if _, err := u.deps.Messages.Create(dbc, []*types.ConversationMessage{row}); err != nil {
		u.deps.Log.Error("persisting turn failed", "conversation_id", conv.ID, "role", role, "error", err)
		return
	}
	if err := u.deps.Conversations.Touch(dbc, conv.ID, time.Now().UTC()); err != nil {
		u.deps.Log.Warn("touching conversation failed", "conversation_id", conv.ID, "error", err)
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
