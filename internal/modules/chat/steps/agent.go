package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/openai"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/tracing"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

const DefaultMaxIterations = 5

type AgentDeps struct {
	AI    openai.Client
	Tools []ToolSpec
	Log   *logger.Logger
	Trace *tracing.Sink
}

// AgentHooks surface loop progress to the streaming layer. Either hook may
// be nil.
type AgentHooks struct {
	OnToolCall   func(iteration int, toolName string, arguments map[string]any)
	OnToolResult func(iteration int, result string)
}

type AgentInput struct {
	System        string
	Transcript    string
	MaxIterations int
	Hooks         AgentHooks
}

type AgentOutput struct {
	FinalText  string
	ToolCalls  []realtime.ToolCallRecord
	References []realtime.ContextDocument
}

type agentDecision struct {
	Action    string `json:"action"`
	Content   string `json:"content"`
	ToolCalls []struct {
		ToolName  string         `json:"tool_name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"tool_calls"`
}

// RunAgent drives the bounded tool loop. Each iteration asks the model for
// one decision: invoke a tool or answer. Tool failures are fed back into
// the transcript as results so the model can adjust; only a failing model
// call aborts the turn. The iteration ceiling is enforced by the loop
// counter itself, never by trusting the model to stop.
func RunAgent(ctx context.Context, deps AgentDeps, in AgentInput) (AgentOutput, error) {
	out := AgentOutput{}
	if deps.AI == nil || deps.Log == nil {
		return out, fmt.Errorf("chat agent: missing deps")
	}

	maxIterations := in.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	transcript := strings.TrimSpace(in.Transcript)
	schema := agentDecisionSchema(deps.Tools)

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		dctx, end := deps.Trace.Span(ctx, "chat.agent.decide", attribute.Int("iteration", iteration))
		obj, err := deps.AI.GenerateJSON(dctx, in.System, transcript, "agent_decision_v1", schema)
		end(err)
		if err != nil {
			return out, fmt.Errorf("chat agent: model call failed: %w", err)
		}

		var decision agentDecision
		if b, mErr := json.Marshal(obj); mErr == nil {
			_ = json.Unmarshal(b, &decision)
		}

		if strings.TrimSpace(strings.ToLower(decision.Action)) != "tool" || len(decision.ToolCalls) == 0 {
			out.FinalText = strings.TrimSpace(decision.Content)
			if out.FinalText == "" {
				return out, fmt.Errorf("chat agent: model produced empty final answer")
			}
			return out, nil
		}

		// Multiple requested calls in one step execute only the first:
		// keeps iteration numbers and tool_result pairing 1:1.
		call := decision.ToolCalls[0]
		if len(decision.ToolCalls) > 1 {
			deps.Log.Debug("model requested multiple tool calls, executing first only",
				"requested", len(decision.ToolCalls), "iteration", iteration)
		}
		if call.Arguments == nil {
			call.Arguments = map[string]any{}
		}

		record := realtime.ToolCallRecord{
			Iteration: iteration,
			ToolName:  call.ToolName,
			Arguments: call.Arguments,
		}
		if in.Hooks.OnToolCall != nil {
			in.Hooks.OnToolCall(iteration, call.ToolName, call.Arguments)
		}

		resultText := runTool(ctx, deps, call.ToolName, call.Arguments, &out)
		record.Result = resultText
		out.ToolCalls = append(out.ToolCalls, record)
		if in.Hooks.OnToolResult != nil {
			in.Hooks.OnToolResult(iteration, resultText)
		}

		transcript = transcript + fmt.Sprintf(
			"\n\n[Narzędzie %s, iteracja %d]\nArgumenty: %s\nWynik: %s",
			call.ToolName, iteration, compactJSON(call.Arguments), resultText)
	}

	// Ceiling reached: one plain-text call turns whatever was gathered into
	// a best-effort answer. This is normal termination, not an error.
	final, err := deps.AI.GenerateText(ctx,
		in.System+"\n\nLimit kroków narzędziowych został osiągnięty. Udziel teraz ostatecznej odpowiedzi na podstawie zebranych wyników.",
		transcript)
	if err != nil {
		return out, fmt.Errorf("chat agent: final model call failed: %w", err)
	}
	out.FinalText = strings.TrimSpace(final)
	return out, nil
}

func runTool(ctx context.Context, deps AgentDeps, name string, args map[string]any, out *AgentOutput) string {
	tool, ok := FindTool(deps.Tools, name)
	if !ok {
		err := &ToolInvocationError{ToolName: name, Err: fmt.Errorf("unknown tool")}
		deps.Log.Warn("agent requested unknown tool", "tool", name)
		return "Błąd: " + err.Error()
	}

	tctx, end := deps.Trace.Span(ctx, "chat.agent.tool", attribute.String("tool", name))
	res, err := tool.Run(tctx, args)
	end(err)
	if err != nil {
		invErr := &ToolInvocationError{ToolName: name, Err: err}
		deps.Log.Warn("tool invocation failed, feeding error back to model",
			"tool", name, "error", err)
		return "Błąd: " + invErr.Error()
	}

	out.References = Merge([][]realtime.ContextDocument{out.References, res.Docs}, len(out.References)+len(res.Docs), false)
	return res.Text
}

func agentDecisionSchema(tools []ToolSpec) map[string]any {
	names := make([]any, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"action": map[string]any{
				"type": "string",
				"enum": []any{"tool", "final"},
			},
			"content": map[string]any{"type": "string"},
			"tool_calls": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"tool_name": map[string]any{"type": "string", "enum": names},
						"arguments": map[string]any{"type": "object"},
					},
					"required": []any{"tool_name", "arguments"},
				},
			},
		},
		"required": []any{"action", "content", "tool_calls"},
	}
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
