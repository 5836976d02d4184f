package steps

import "fmt"

const (
	RetrievalStageEmbedding  = "embedding"
	RetrievalStageGraph      = "graph"
	RetrievalStageRelational = "relational"
)

// RetrievalError marks a failure in one retrieval stage. Callers recover by
// treating that source as empty; it is fatal only when every source failed.
type RetrievalError struct {
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// ToolInvocationError marks a single failed tool call inside the agent loop.
// The loop feeds the message back to the model instead of aborting.
type ToolInvocationError struct {
	ToolName string
	Err      error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.ToolName, e.Err)
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }
