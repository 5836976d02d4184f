package steps

import (
	"context"
	"fmt"
	"testing"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// fakeAI scripts each model surface independently. Unscripted calls fail the
// test instead of returning zero values silently.
type fakeAI struct {
	t *testing.T

	embed        func(ctx context.Context, inputs []string) ([][]float32, error)
	generateJSON func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
	generateText func(ctx context.Context, system, user string) (string, error)
	streamText   func(ctx context.Context, system, user string, onDelta func(string)) (string, error)

	embedCalls int
	jsonCalls  int
	textCalls  int
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.embedCalls++
	if f.embed == nil {
		f.t.Fatal("unexpected Embed call")
	}
	return f.embed(ctx, inputs)
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.jsonCalls++
	if f.generateJSON == nil {
		f.t.Fatal("unexpected GenerateJSON call")
	}
	return f.generateJSON(ctx, system, user, schemaName, schema)
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.textCalls++
	if f.generateText == nil {
		f.t.Fatal("unexpected GenerateText call")
	}
	return f.generateText(ctx, system, user)
}

func (f *fakeAI) StreamText(ctx context.Context, system, user string, onDelta func(string)) (string, error) {
	if f.streamText == nil {
		f.t.Fatal("unexpected StreamText call")
	}
	return f.streamText(ctx, system, user, onDelta)
}

type fakeVectorSearcher struct {
	docs []realtime.ContextDocument
	err  error

	calls     int
	lastK     int
	lastTypes []string
}

func (f *fakeVectorSearcher) SearchByEmbedding(_ context.Context, _ []float32, k int, nodeTypes []string) ([]realtime.ContextDocument, error) {
	f.calls++
	f.lastK = k
	f.lastTypes = nodeTypes
	return f.docs, f.err
}

type fakePrintSearcher struct {
	docs []realtime.ContextDocument
	err  error

	calls     int
	lastQuery string
}

func (f *fakePrintSearcher) Search(_ context.Context, query string, _ int) ([]realtime.ContextDocument, error) {
	f.calls++
	f.lastQuery = query
	return f.docs, f.err
}

type fakeEmbeddingCache struct {
	vec  []float32
	hits map[string][]float32

	gets int
	sets int
}

func (f *fakeEmbeddingCache) Get(_ context.Context, text string) ([]float32, bool, error) {
	f.gets++
	if f.hits != nil {
		if v, ok := f.hits[text]; ok {
			return v, true, nil
		}
		return nil, false, nil
	}
	if f.vec != nil {
		return f.vec, true, nil
	}
	return nil, false, nil
}

func (f *fakeEmbeddingCache) Set(_ context.Context, text string, embedding []float32) error {
	f.sets++
	if f.hits != nil {
		f.hits[text] = embedding
	}
	return nil
}

func (f *fakeEmbeddingCache) Close() error { return nil }

func embedOK(vec []float32) func(context.Context, []string) ([][]float32, error) {
	return func(_ context.Context, inputs []string) ([][]float32, error) {
		out := make([][]float32, len(inputs))
		for i := range inputs {
			out[i] = vec
		}
		return out, nil
	}
}

func embedFail(msg string) func(context.Context, []string) ([][]float32, error) {
	return func(context.Context, []string) ([][]float32, error) {
		return nil, fmt.Errorf("%s", msg)
	}
}
