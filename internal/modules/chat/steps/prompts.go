package steps

import (
	"fmt"
	"strings"
	"time"

	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

const DefaultContentCharBudget = 500

var polishMonths = [...]string{
	"stycznia", "lutego", "marca", "kwietnia", "maja", "czerwca",
	"lipca", "sierpnia", "września", "października", "listopada", "grudnia",
}

// PolishDate renders a date the way the site shows it, e.g. "30 sierpnia 2026".
func PolishDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), polishMonths[t.Month()-1], t.Year())
}

const personaPrompt = `Jesteś asystentem serwisu SejmWatch, który pomaga obywatelom rozumieć prace Sejmu RP.
Odpowiadasz po polsku, rzeczowo i neutralnie politycznie. Nie zgadujesz: jeśli czegoś nie ma w dostępnym kontekście, mówisz to wprost.
Linki do encji zapisujesz jako ścieżki względne: druk sejmowy /prints/<numer>, proces legislacyjny /processes/<id>, poseł /envoys/<id>, posiedzenie /proceedings/<id>.`

// BuildDirectPrompt assembles the system prompt for the plain RAG path:
// persona, current date and the retrieved context inlined as numbered
// blocks the model cites with [n] markers.
func BuildDirectPrompt(today time.Time, docs []realtime.ContextDocument, charBudget int) string {
	if charBudget <= 0 {
		charBudget = DefaultContentCharBudget
	}

	var b strings.Builder
	b.WriteString(personaPrompt)
	b.WriteString("\n\nDzisiejsza data: ")
	b.WriteString(PolishDate(today))
	b.WriteString(".\n")

	if len(docs) == 0 {
		b.WriteString("\nNie znaleziono kontekstu dla tego pytania. Powiedz użytkownikowi, że nie masz danych na ten temat, i zaproponuj doprecyzowanie pytania.\n")
		return b.String()
	}

	b.WriteString("\nKontekst (cytuj numerem w nawiasie kwadratowym, np. [1]):\n")
	for i, doc := range docs {
		b.WriteString(fmt.Sprintf("\n[%d] %s: %s", i+1, doc.Type, strings.TrimSpace(doc.Title)))
		if doc.ChangeDate != nil {
			b.WriteString(fmt.Sprintf(" (zmiana: %s)", doc.ChangeDate.Format("2006-01-02")))
		}
		b.WriteString("\n")
		b.WriteString(truncateRunes(strings.TrimSpace(doc.Content), charBudget))
		b.WriteString("\n")
		if doc.URL != "" {
			b.WriteString("Link: " + doc.URL + "\n")
		}
	}
	b.WriteString("\nOdpowiadaj wyłącznie na podstawie kontekstu. Każde twierdzenie oparte na dokumencie oznacz znacznikiem [n] zgodnym z numeracją powyżej.\n")
	return b.String()
}

// BuildAgentPrompt assembles the system prompt for the tool-calling path.
// Context is not inlined; the model is told what tools exist and when a
// query is too vague to use them.
func BuildAgentPrompt(today time.Time, tools []ToolSpec) string {
	var b strings.Builder
	b.WriteString(personaPrompt)
	b.WriteString("\n\nDzisiejsza data: ")
	b.WriteString(PolishDate(today))
	b.WriteString(".\n\nDostępne narzędzia:\n")
	for _, t := range tools {
		b.WriteString(fmt.Sprintf("- %s(%s): %s\n", t.Name, strings.Join(t.Required, ", "), t.Description))
	}
	b.WriteString(`
Zasady korzystania z narzędzi:
- Narzędzia wyszukujące wymagają tematu (np. "podatki", "ochrona zdrowia"). Nie wolno podawać jako tematu samych określeń czasu ("ostatnie", "najnowsze", "wczoraj").
- Jeśli pytanie jest wyłącznie czasowe i nie zawiera tematu, nie wywołuj żadnego narzędzia: poproś użytkownika o wskazanie obszaru tematycznego.
- Po zebraniu wyników odpowiedz po polsku i podlinkuj encje zgodnie z szablonami ścieżek.
`)
	return b.String()
}

// BuildTranscript folds prior turns and the current question into the user
// message for a single-prompt model call.
func BuildTranscript(history []*types.ConversationMessage, question string) string {
	var b strings.Builder
	for _, msg := range history {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case types.RoleUser:
			b.WriteString("Użytkownik: ")
		case types.RoleAssistant:
			b.WriteString("Asystent: ")
		default:
			continue
		}
		b.WriteString(strings.TrimSpace(msg.Content))
		b.WriteString("\n")
	}
	b.WriteString("Użytkownik: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}

func truncateRunes(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget]) + "…"
}
