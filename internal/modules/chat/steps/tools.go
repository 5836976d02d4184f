package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sejmwatch/sejmwatch-backend/internal/data/graph"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

const (
	ToolSearchTopics        = "search_topics"
	ToolSearchPrints        = "search_prints"
	ToolSearchOrganizations = "search_organizations"
	ToolGetPrint            = "get_print"
)

// ToolResult is what a tool hands back to the agent loop: the text fed into
// the model transcript plus any documents worth surfacing as references.
type ToolResult struct {
	Text string
	Docs []realtime.ContextDocument
}

type ToolFunc func(ctx context.Context, args map[string]any) (ToolResult, error)

type ToolSpec struct {
	Name        string
	Description string
	Required    []string
	Run         ToolFunc
}

type ToolDeps struct {
	Retrieve RetrieveDeps
	Prints   repos.PrintRepo
	VectorK  int
	Log      *logger.Logger
}

// NewToolRegistry builds the tool set exposed to the agent, in the order
// they are documented in the system prompt.
func NewToolRegistry(deps ToolDeps) []ToolSpec {
	return []ToolSpec{
		{
			Name:        ToolSearchTopics,
			Description: "wyszukuje tematy sejmowe powiązane z podanym zagadnieniem",
			Required:    []string{"query"},
			Run:         vectorSearchTool(deps, graph.NodeTypeTopic),
		},
		{
			Name:        ToolSearchPrints,
			Description: "wyszukuje druki sejmowe dotyczące podanego zagadnienia",
			Required:    []string{"query"},
			Run:         printSearchTool(deps),
		},
		{
			Name:        ToolSearchOrganizations,
			Description: "wyszukuje organizacje i instytucje powiązane z podanym zagadnieniem",
			Required:    []string{"query"},
			Run:         vectorSearchTool(deps, graph.NodeTypeOrganization),
		},
		{
			Name:        ToolGetPrint,
			Description: "pobiera szczegóły druku sejmowego o podanym numerze",
			Required:    []string{"number"},
			Run:         getPrintTool(deps),
		},
	}
}

func FindTool(tools []ToolSpec, name string) (ToolSpec, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolSpec{}, false
}

func requiredString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return strings.TrimSpace(s), nil
}

func vectorSearchTool(deps ToolDeps, nodeType string) ToolFunc {
	return func(ctx context.Context, args map[string]any) (ToolResult, error) {
		query, err := requiredString(args, "query")
		if err != nil {
			return ToolResult{}, err
		}
		embedding, err := embedQuery(ctx, deps.Retrieve, query)
		if err != nil {
			return ToolResult{}, err
		}
		docs, err := deps.Retrieve.Graph.SearchByEmbedding(ctx, embedding, deps.VectorK, []string{nodeType})
		if err != nil {
			return ToolResult{}, err
		}
		return ToolResult{Text: renderToolDocs(docs), Docs: docs}, nil
	}
}

func printSearchTool(deps ToolDeps) ToolFunc {
	return func(ctx context.Context, args map[string]any) (ToolResult, error) {
		query, err := requiredString(args, "query")
		if err != nil {
			return ToolResult{}, err
		}

		var lists [][]realtime.ContextDocument
		if embedding, err := embedQuery(ctx, deps.Retrieve, query); err == nil {
			if docs, err := deps.Retrieve.Graph.SearchByEmbedding(ctx, embedding, deps.VectorK, []string{graph.NodeTypePrint}); err == nil {
				lists = append(lists, docs)
			} else {
				deps.Log.Warn("print vector search degraded inside tool", "error", err)
			}
		} else {
			deps.Log.Warn("embedding degraded inside tool, full-text only", "error", err)
		}
		relDocs, relErr := deps.Retrieve.Rel.Search(ctx, query, deps.VectorK)
		if relErr != nil {
			if len(lists) == 0 {
				return ToolResult{}, relErr
			}
			deps.Log.Warn("print full-text search degraded inside tool", "error", relErr)
		} else {
			lists = append(lists, relDocs)
		}

		docs := Merge(lists, deps.VectorK, false)
		return ToolResult{Text: renderToolDocs(docs), Docs: docs}, nil
	}
}

func getPrintTool(deps ToolDeps) ToolFunc {
	return func(ctx context.Context, args map[string]any) (ToolResult, error) {
		number, err := requiredString(args, "number")
		if err != nil {
			return ToolResult{}, err
		}
		row, err := deps.Prints.GetByNumber(dbctx.Context{Ctx: ctx}, number)
		if err != nil {
			return ToolResult{}, err
		}
		if row == nil {
			return ToolResult{Text: fmt.Sprintf("Nie znaleziono druku nr %s.", number)}, nil
		}
		doc := realtime.ContextDocument{
			Type:       "Print",
			ID:         row.Number,
			Title:      row.Title,
			Content:    row.Summary,
			URL:        "/prints/" + row.Number,
			ChangeDate: row.ChangeDate,
		}
		return ToolResult{Text: renderToolDocs([]realtime.ContextDocument{doc}), Docs: []realtime.ContextDocument{doc}}, nil
	}
}

type toolDocView struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	URL        string `json:"url,omitempty"`
	ChangeDate string `json:"change_date,omitempty"`
}

func renderToolDocs(docs []realtime.ContextDocument) string {
	if len(docs) == 0 {
		return "Brak wyników."
	}
	views := make([]toolDocView, 0, len(docs))
	for _, doc := range docs {
		v := toolDocView{
			Type:    doc.Type,
			Title:   doc.Title,
			Summary: truncateRunes(doc.Content, DefaultContentCharBudget),
			URL:     doc.URL,
		}
		if doc.ChangeDate != nil {
			v.ChangeDate = doc.ChangeDate.Format("2006-01-02")
		}
		views = append(views, v)
	}
	raw, err := json.Marshal(views)
	if err != nil {
		return "Brak wyników."
	}
	return string(raw)
}
