package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sejmwatch/sejmwatch-backend/internal/config"
	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

type fakeAI struct {
	embed        func(ctx context.Context, inputs []string) ([][]float32, error)
	generateJSON func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
	generateText func(ctx context.Context, system, user string) (string, error)
	streamText   func(ctx context.Context, system, user string, onDelta func(string)) (string, error)
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if f.embed == nil {
		out := make([][]float32, len(inputs))
		for i := range inputs {
			out[i] = []float32{0.1, 0.2}
		}
		return out, nil
	}
	return f.embed(ctx, inputs)
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	return f.generateJSON(ctx, system, user, schemaName, schema)
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	return f.generateText(ctx, system, user)
}

func (f *fakeAI) StreamText(ctx context.Context, system, user string, onDelta func(string)) (string, error) {
	return f.streamText(ctx, system, user, onDelta)
}

type fakeGraphSearch struct {
	docs []realtime.ContextDocument
	err  error
}

func (f *fakeGraphSearch) SearchByEmbedding(context.Context, []float32, int, []string) ([]realtime.ContextDocument, error) {
	return f.docs, f.err
}

type fakeRelSearch struct {
	docs []realtime.ContextDocument
	err  error
}

func (f *fakeRelSearch) Search(context.Context, string, int) ([]realtime.ContextDocument, error) {
	return f.docs, f.err
}

type memConversationRepo struct {
	rows map[uuid.UUID]*types.Conversation
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{rows: map[uuid.UUID]*types.Conversation{}}
}

func (m *memConversationRepo) Create(_ dbctx.Context, rows []*types.Conversation) ([]*types.Conversation, error) {
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		m.rows[row.ID] = row
	}
	return rows, nil
}

func (m *memConversationRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	return m.rows[id], nil
}

func (m *memConversationRepo) ListByUser(_ dbctx.Context, userID uuid.UUID, _ int) ([]*types.Conversation, error) {
	var out []*types.Conversation
	for _, row := range m.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memConversationRepo) UpdateTitle(_ dbctx.Context, id uuid.UUID, title string) error {
	if row := m.rows[id]; row != nil {
		row.Title = title
	}
	return nil
}

func (m *memConversationRepo) Touch(_ dbctx.Context, id uuid.UUID, at time.Time) error {
	if row := m.rows[id]; row != nil {
		row.UpdatedAt = at
	}
	return nil
}

func (m *memConversationRepo) Delete(_ dbctx.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

type memMessageRepo struct {
	rows []*types.ConversationMessage
}

func (m *memMessageRepo) Create(_ dbctx.Context, rows []*types.ConversationMessage) ([]*types.ConversationMessage, error) {
	m.rows = append(m.rows, rows...)
	return rows, nil
}

func (m *memMessageRepo) GetMaxSeq(_ dbctx.Context, conversationID uuid.UUID) (int64, error) {
	var max int64
	for _, row := range m.rows {
		if row.ConversationID == conversationID && row.Seq > max {
			max = row.Seq
		}
	}
	return max, nil
}

func (m *memMessageRepo) ListRecent(_ dbctx.Context, conversationID uuid.UUID, _ int) ([]*types.ConversationMessage, error) {
	return m.ListByConversation(dbctx.Context{}, conversationID, 0)
}

func (m *memMessageRepo) ListByConversation(_ dbctx.Context, conversationID uuid.UUID, _ int) ([]*types.ConversationMessage, error) {
	var out []*types.ConversationMessage
	for _, row := range m.rows {
		if row.ConversationID == conversationID {
			out = append(out, row)
		}
	}
	return out, nil
}

type respondFixture struct {
	uc     *Usecases
	convs  *memConversationRepo
	msgs   *memMessageRepo
	buf    *bytes.Buffer
	writer *realtime.Writer
	log    *logger.Logger
}

func newRespondFixture(t *testing.T, ai *fakeAI, gr *fakeGraphSearch, rel *fakeRelSearch) *respondFixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	convs := newMemConversationRepo()
	msgs := &memMessageRepo{}
	uc, err := NewUsecases(UsecasesDeps{
		Log:           log,
		AI:            ai,
		Graph:         gr,
		Rel:           rel,
		Conversations: convs,
		Messages:      msgs,
		Cfg: config.ChatConfig{
			ContextLimit:      5,
			VectorK:           5,
			RelationalK:       5,
			MaxIterations:     5,
			ContentCharBudget: 500,
		},
	})
	if err != nil {
		t.Fatalf("new usecases: %v", err)
	}

	buf := &bytes.Buffer{}
	return &respondFixture{
		uc:     uc,
		convs:  convs,
		msgs:   msgs,
		buf:    buf,
		writer: realtime.NewWriter(buf, log),
		log:    log,
	}
}

func (f *respondFixture) events(t *testing.T) []realtime.Event {
	t.Helper()
	p := realtime.NewParser(f.log)
	events := p.Feed(f.buf.Bytes())
	return append(events, p.Close()...)
}

func eventTypes(events []realtime.Event) []realtime.EventType {
	out := make([]realtime.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func TestRespondDirectStreamsFullTurn(t *testing.T) {
	ai := &fakeAI{
		streamText: func(_ context.Context, system, _ string, onDelta func(string)) (string, error) {
			if system == "" {
				t.Fatal("empty system prompt")
			}
			onDelta("Cze")
			onDelta("ść")
			return "Cześć", nil
		},
	}
	gr := &fakeGraphSearch{docs: []realtime.ContextDocument{
		{Type: "Topic", ID: "t-1", Title: "Powitania", Content: "…", Score: 0.2},
	}}
	rel := &fakeRelSearch{docs: []realtime.ContextDocument{
		{Type: "Print", ID: "101", Title: "Druk 101", Content: "…", Score: 0.1},
	}}
	f := newRespondFixture(t, ai, gr, rel)
	userID := uuid.New()

	err := f.uc.RespondDirect(context.Background(), f.writer, RespondInput{
		UserID:   userID,
		Messages: []InboundMessage{{Role: types.RoleUser, Content: "cześć"}},
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}

	events := f.events(t)
	a := realtime.NewAssembler("m")
	for _, ev := range events {
		a.Apply(ev)
	}
	msg := a.Message()
	if msg.Content != "Cześć" {
		t.Fatalf("content = %q", msg.Content)
	}
	if msg.Status != realtime.MessageDone {
		t.Fatalf("status = %q", msg.Status)
	}
	if len(msg.References) != 2 || msg.References[0].ID != "101" {
		t.Fatalf("references = %+v", msg.References)
	}
	if events[len(events)-1].Type != realtime.EventDone {
		t.Fatalf("stream must end with done: %v", eventTypes(events))
	}

	// Both turns persisted with contiguous seq and the references attached.
	if len(f.msgs.rows) != 2 {
		t.Fatalf("persisted %d rows, want 2", len(f.msgs.rows))
	}
	if f.msgs.rows[0].Role != types.RoleUser || f.msgs.rows[0].Seq != 1 {
		t.Fatalf("user row = %+v", f.msgs.rows[0])
	}
	if f.msgs.rows[1].Role != types.RoleAssistant || f.msgs.rows[1].Seq != 2 {
		t.Fatalf("assistant row = %+v", f.msgs.rows[1])
	}
	var meta turnMetadata
	if err := json.Unmarshal(f.msgs.rows[1].Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if len(meta.References) != 2 {
		t.Fatalf("persisted references = %+v", meta.References)
	}

	// A conversation was created and titled after the question.
	if len(f.convs.rows) != 1 {
		t.Fatalf("conversations = %d, want 1", len(f.convs.rows))
	}
	for _, conv := range f.convs.rows {
		if conv.Title != "cześć" || conv.UserID != userID {
			t.Fatalf("conversation = %+v", conv)
		}
	}
}

func TestRespondDirectModelFailureEmitsErrorEvent(t *testing.T) {
	ai := &fakeAI{
		streamText: func(context.Context, string, string, func(string)) (string, error) {
			return "", fmt.Errorf("upstream 500")
		},
	}
	f := newRespondFixture(t, ai, &fakeGraphSearch{}, &fakeRelSearch{})

	err := f.uc.RespondDirect(context.Background(), f.writer, RespondInput{
		UserID:   uuid.New(),
		Messages: []InboundMessage{{Role: types.RoleUser, Content: "cześć"}},
	})
	if err == nil {
		t.Fatal("model failure must surface to the request log")
	}

	events := f.events(t)
	last := events[len(events)-1]
	if last.Type != realtime.EventError {
		t.Fatalf("stream must end with error: %v", eventTypes(events))
	}
	if last.Err.Message == "" {
		t.Fatal("error event without message")
	}

	// Only the user turn was persisted.
	if len(f.msgs.rows) != 1 || f.msgs.rows[0].Role != types.RoleUser {
		t.Fatalf("persisted rows = %+v", f.msgs.rows)
	}
}

func TestRespondDirectRejectsForeignConversation(t *testing.T) {
	f := newRespondFixture(t, &fakeAI{}, &fakeGraphSearch{}, &fakeRelSearch{})

	other, _ := f.convs.Create(dbctx.Context{}, []*types.Conversation{{UserID: uuid.New()}})
	foreignID := other[0].ID

	err := f.uc.RespondDirect(context.Background(), f.writer, RespondInput{
		UserID:         uuid.New(),
		ConversationID: &foreignID,
		Messages:       []InboundMessage{{Role: types.RoleUser, Content: "cześć"}},
	})
	if err == nil {
		t.Fatal("foreign conversation must be rejected")
	}

	events := f.events(t)
	if len(events) != 1 || events[0].Type != realtime.EventError {
		t.Fatalf("events = %v", eventTypes(events))
	}
	if len(f.msgs.rows) != 0 {
		t.Fatalf("nothing may be persisted: %+v", f.msgs.rows)
	}
}

func TestRespondAgenticStreamsToolEvents(t *testing.T) {
	step := 0
	ai := &fakeAI{
		generateJSON: func(_ context.Context, _, _, _ string, _ map[string]any) (map[string]any, error) {
			step++
			if step == 1 {
				return map[string]any{
					"action":  "tool",
					"content": "",
					"tool_calls": []any{
						map[string]any{"tool_name": "search_prints", "arguments": map[string]any{"query": "budżet"}},
					},
				}, nil
			}
			return map[string]any{"action": "final", "content": "Najnowszy jest druk 101 [1].", "tool_calls": []any{}}, nil
		},
	}
	gr := &fakeGraphSearch{docs: []realtime.ContextDocument{
		{Type: "Print", ID: "101", Title: "Druk 101", Content: "…", Score: 0.12},
	}}
	f := newRespondFixture(t, ai, gr, &fakeRelSearch{})

	err := f.uc.RespondAgentic(context.Background(), f.writer, RespondInput{
		UserID:   uuid.New(),
		Messages: []InboundMessage{{Role: types.RoleUser, Content: "co z budżetem?"}},
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}

	events := f.events(t)
	a := realtime.NewAssembler("m")
	for _, ev := range events {
		a.Apply(ev)
	}
	msg := a.Message()
	if msg.Content != "Najnowszy jest druk 101 [1]." {
		t.Fatalf("content = %q", msg.Content)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].ToolName != "search_prints" {
		t.Fatalf("tool calls = %+v", msg.ToolCalls)
	}
	if msg.ToolCalls[0].Result == "" {
		t.Fatal("tool result event not paired")
	}
	if len(msg.References) != 1 || msg.References[0].ID != "101" {
		t.Fatalf("references = %+v", msg.References)
	}

	var meta turnMetadata
	if err := json.Unmarshal(f.msgs.rows[1].Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if len(meta.ToolCalls) != 1 {
		t.Fatalf("persisted tool calls = %+v", meta.ToolCalls)
	}
}
