package steps

import (
	"strings"
	"testing"
	"time"

	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

func TestPolishDate(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), "30 sierpnia 2026"},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "1 stycznia 2025"},
		{time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC), "24 grudnia 2024"},
	}
	for _, c := range cases {
		if got := PolishDate(c.in); got != c.want {
			t.Fatalf("PolishDate(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBuildDirectPromptNumbersContext(t *testing.T) {
	today := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	change := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	docs := []realtime.ContextDocument{
		{Type: "Print", Title: "Ustawa budżetowa", Content: "Projekt ustawy budżetowej na rok 2027.", URL: "/prints/101", ChangeDate: &change},
		{Type: "Topic", Title: "Finanse publiczne", Content: "Dyskusje o stanie finansów."},
	}

	prompt := BuildDirectPrompt(today, docs, 500)

	for _, want := range []string{
		"30 sierpnia 2026",
		"[1] Print: Ustawa budżetowa",
		"(zmiana: 2026-07-15)",
		"[2] Topic: Finanse publiczne",
		"Link: /prints/101",
		"SejmWatch",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildDirectPromptTruncatesContentByRunes(t *testing.T) {
	long := strings.Repeat("ż", 600)
	docs := []realtime.ContextDocument{{Type: "Print", Title: "Długi", Content: long}}

	prompt := BuildDirectPrompt(time.Now(), docs, 100)
	if strings.Contains(prompt, strings.Repeat("ż", 101)) {
		t.Fatal("content not truncated to the rune budget")
	}
	if !strings.Contains(prompt, strings.Repeat("ż", 100)+"…") {
		t.Fatal("truncation marker missing")
	}
}

func TestBuildDirectPromptNoContextFallback(t *testing.T) {
	prompt := BuildDirectPrompt(time.Now(), nil, 500)
	if !strings.Contains(prompt, "Nie znaleziono kontekstu") {
		t.Fatalf("no-context instruction missing:\n%s", prompt)
	}
	if strings.Contains(prompt, "[1]") {
		t.Fatal("empty context must not emit citation blocks")
	}
}

func TestBuildAgentPromptListsToolsAndTemporalPolicy(t *testing.T) {
	tools := NewToolRegistry(ToolDeps{})
	prompt := BuildAgentPrompt(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), tools)

	for _, name := range []string{ToolSearchTopics, ToolSearchPrints, ToolSearchOrganizations, ToolGetPrint} {
		if !strings.Contains(prompt, name) {
			t.Fatalf("prompt missing tool %q", name)
		}
	}
	if !strings.Contains(prompt, "wyłącznie czasowe") {
		t.Fatal("temporal-only policy missing from agent prompt")
	}
}

func TestBuildTranscript(t *testing.T) {
	history := []*types.ConversationMessage{
		{Role: types.RoleUser, Content: "Co z budżetem?"},
		{Role: types.RoleAssistant, Content: "Trwają prace nad drukiem 101."},
		{Role: "system", Content: "pomijane"},
		nil,
		{Role: types.RoleUser, Content: "   "},
	}

	got := BuildTranscript(history, "A kiedy głosowanie?")
	want := "Użytkownik: Co z budżetem?\nAsystent: Trwają prace nad drukiem 101.\nUżytkownik: A kiedy głosowanie?"
	if got != want {
		t.Fatalf("transcript:\n got %q\nwant %q", got, want)
	}
}
