package steps

import (
	"context"
	"testing"

	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

func TestRetrieveQueriesBothSources(t *testing.T) {
	ai := &fakeAI{t: t, embed: embedOK([]float32{0.1, 0.2, 0.3})}
	gr := &fakeVectorSearcher{docs: []realtime.ContextDocument{
		{Type: "Topic", ID: "t-1", Title: "Budżet", Score: 0.12},
	}}
	rel := &fakePrintSearcher{docs: []realtime.ContextDocument{
		{Type: "Print", ID: "101", Title: "Ustawa budżetowa", Score: 0.30},
	}}

	out, err := Retrieve(context.Background(), RetrieveDeps{
		AI: ai, Graph: gr, Rel: rel, Log: testLogger(t),
	}, RetrieveInput{Query: "budżet państwa", VectorK: 5, RelationalK: 5})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	if len(out.Graph) != 1 || len(out.Relational) != 1 {
		t.Fatalf("graph=%d relational=%d, want 1 and 1", len(out.Graph), len(out.Relational))
	}
	if len(out.Degraded) != 0 {
		t.Fatalf("unexpected degraded stages: %v", out.Degraded)
	}
	if gr.lastK != 5 {
		t.Fatalf("vector k = %d, want 5", gr.lastK)
	}
	if rel.lastQuery != "budżet państwa" {
		t.Fatalf("relational query = %q", rel.lastQuery)
	}
	if len(out.Embedding) != 3 {
		t.Fatalf("embedding not surfaced: %v", out.Embedding)
	}
}

func TestRetrieveEmbeddingFailureFallsBackToRelational(t *testing.T) {
	ai := &fakeAI{t: t, embed: embedFail("model unavailable")}
	gr := &fakeVectorSearcher{docs: []realtime.ContextDocument{{Type: "Topic", ID: "t-1"}}}
	rel := &fakePrintSearcher{docs: []realtime.ContextDocument{
		{Type: "Print", ID: "101", Title: "Ustawa budżetowa", Score: 0.30},
	}}

	out, err := Retrieve(context.Background(), RetrieveDeps{
		AI: ai, Graph: gr, Rel: rel, Log: testLogger(t),
	}, RetrieveInput{Query: "budżet", VectorK: 5, RelationalK: 5})
	if err != nil {
		t.Fatalf("retrieve must degrade, not fail: %v", err)
	}

	if gr.calls != 0 {
		t.Fatal("vector search ran without an embedding")
	}
	if len(out.Graph) != 0 {
		t.Fatalf("graph docs without embedding: %+v", out.Graph)
	}
	if len(out.Relational) != 1 {
		t.Fatalf("relational results lost: %+v", out.Relational)
	}
	if len(out.Degraded) != 1 || out.Degraded[0] != RetrievalStageEmbedding {
		t.Fatalf("degraded = %v, want [%s]", out.Degraded, RetrievalStageEmbedding)
	}
}

func TestRetrieveGraphFailureDegrades(t *testing.T) {
	ai := &fakeAI{t: t, embed: embedOK([]float32{0.5})}
	gr := &fakeVectorSearcher{err: context.DeadlineExceeded}
	rel := &fakePrintSearcher{docs: []realtime.ContextDocument{{Type: "Print", ID: "101"}}}

	out, err := Retrieve(context.Background(), RetrieveDeps{
		AI: ai, Graph: gr, Rel: rel, Log: testLogger(t),
	}, RetrieveInput{Query: "zdrowie", VectorK: 5, RelationalK: 5})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(out.Relational) != 1 {
		t.Fatalf("relational results lost: %+v", out.Relational)
	}
	if len(out.Degraded) != 1 || out.Degraded[0] != RetrievalStageGraph {
		t.Fatalf("degraded = %v", out.Degraded)
	}
}

func TestRetrieveBothSourcesDownIsNotFatal(t *testing.T) {
	ai := &fakeAI{t: t, embed: embedOK([]float32{0.5})}
	gr := &fakeVectorSearcher{err: context.DeadlineExceeded}
	rel := &fakePrintSearcher{err: context.DeadlineExceeded}

	out, err := Retrieve(context.Background(), RetrieveDeps{
		AI: ai, Graph: gr, Rel: rel, Log: testLogger(t),
	}, RetrieveInput{Query: "zdrowie", VectorK: 5, RelationalK: 5})
	if err != nil {
		t.Fatalf("both sources down must still not fail the turn: %v", err)
	}
	if len(out.Graph) != 0 || len(out.Relational) != 0 {
		t.Fatalf("unexpected docs: %+v", out)
	}
	if len(out.Degraded) != 2 {
		t.Fatalf("degraded = %v, want graph and relational", out.Degraded)
	}
}

func TestRetrieveUsesEmbeddingCache(t *testing.T) {
	ai := &fakeAI{t: t, embed: embedOK([]float32{0.9})}
	cache := &fakeEmbeddingCache{vec: []float32{0.1, 0.2}}
	gr := &fakeVectorSearcher{}
	rel := &fakePrintSearcher{}

	out, err := Retrieve(context.Background(), RetrieveDeps{
		AI: ai, Cache: cache, Graph: gr, Rel: rel, Log: testLogger(t),
	}, RetrieveInput{Query: "emerytury", VectorK: 5, RelationalK: 5})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if ai.embedCalls != 0 {
		t.Fatal("cache hit must skip the embedding call")
	}
	if len(out.Embedding) != 2 {
		t.Fatalf("cached embedding not used: %v", out.Embedding)
	}

	// Miss populates the cache.
	missCache := &fakeEmbeddingCache{hits: map[string][]float32{}}
	_, err = Retrieve(context.Background(), RetrieveDeps{
		AI: ai, Cache: missCache, Graph: gr, Rel: rel, Log: testLogger(t),
	}, RetrieveInput{Query: "emerytury", VectorK: 5, RelationalK: 5})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if ai.embedCalls != 1 || missCache.sets != 1 {
		t.Fatalf("miss path: embedCalls=%d sets=%d, want 1 and 1", ai.embedCalls, missCache.sets)
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	ai := &fakeAI{t: t}
	_, err := Retrieve(context.Background(), RetrieveDeps{AI: ai, Log: testLogger(t)},
		RetrieveInput{Query: "   "})
	if err == nil {
		t.Fatal("empty query must error")
	}
}
