package realtime

import "testing"

func TestAssemblerAccumulatesContent(t *testing.T) {
	a := NewAssembler("msg-1")
	a.Apply(StatusEvent("Szukam kontekstu…"))
	a.Apply(ContentEvent("Cze"))
	a.Apply(ContentEvent("ść"))
	a.Apply(ReferencesEvent([]ContextDocument{{Type: "Topic", Title: "Powitania", Score: 0.2}}))
	a.Apply(DoneEvent())

	msg := a.Message()
	if msg.Content != "Cześć" {
		t.Fatalf("content = %q, want %q", msg.Content, "Cześć")
	}
	if msg.Status != MessageDone {
		t.Fatalf("status = %q, want done", msg.Status)
	}
	if msg.LastStatus != "Szukam kontekstu…" {
		t.Fatalf("last status = %q", msg.LastStatus)
	}
	if len(msg.References) != 1 || msg.References[0].Title != "Powitania" {
		t.Fatalf("references = %+v", msg.References)
	}
	if !a.Terminal() {
		t.Fatal("assembler not terminal after done")
	}
}

func TestAssemblerPairsToolResultsByIteration(t *testing.T) {
	a := NewAssembler("msg-1")
	a.Apply(ToolCallEvent(1, "search_prints", map[string]any{"query": "budżet"}))
	a.Apply(ToolCallEvent(2, "get_print", map[string]any{"number": "123"}))
	a.Apply(ToolResultEvent(2, "Druk 123"))
	a.Apply(ToolResultEvent(1, "[]"))
	a.Apply(DoneEvent())

	msg := a.Message()
	if len(msg.ToolCalls) != 2 {
		t.Fatalf("tool calls = %d, want 2", len(msg.ToolCalls))
	}
	if msg.ToolCalls[0].Result != "[]" || msg.ToolCalls[1].Result != "Druk 123" {
		t.Fatalf("results mismatched: %+v", msg.ToolCalls)
	}
}

func TestAssemblerFreezesAfterTerminal(t *testing.T) {
	a := NewAssembler("msg-1")
	a.Apply(ContentEvent("gotowe"))
	a.Apply(DoneEvent())

	a.Apply(ContentEvent(" i więcej"))
	a.Apply(ErrorEvent("za późno"))

	msg := a.Message()
	if msg.Content != "gotowe" {
		t.Fatalf("content mutated after terminal: %q", msg.Content)
	}
	if msg.Status != MessageDone || msg.ErrMessage != "" {
		t.Fatalf("terminal state mutated: %+v", msg)
	}
}

func TestAssemblerErrorState(t *testing.T) {
	a := NewAssembler("msg-1")
	a.Apply(ErrorEvent("Przepraszam, coś poszło nie tak."))

	msg := a.Message()
	if msg.Status != MessageError {
		t.Fatalf("status = %q, want error", msg.Status)
	}
	if msg.ErrMessage == "" {
		t.Fatal("error message not captured")
	}
}

func TestAssemblerMessageReturnsCopy(t *testing.T) {
	a := NewAssembler("msg-1")
	a.Apply(ToolCallEvent(1, "search_topics", map[string]any{"query": "zdrowie"}))

	first := a.Message()
	first.ToolCalls[0].Result = "zmienione"

	if got := a.Message().ToolCalls[0].Result; got != "" {
		t.Fatalf("internal state leaked through copy: %q", got)
	}
}
