package steps

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	redisclient "github.com/sejmwatch/sejmwatch-backend/internal/clients/redis"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/graph"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/relational"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/openai"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

type RetrieveDeps struct {
	AI    openai.Client
	Cache redisclient.EmbeddingCache
	Graph graph.VectorSearcher
	Rel   relational.PrintSearcher
	Log   *logger.Logger
}

type RetrieveInput struct {
	Query       string
	VectorK     int
	RelationalK int
}

type RetrieveOutput struct {
	Graph      []realtime.ContextDocument
	Relational []realtime.ContextDocument

	// Embedding is kept so the agent path can reuse it without a second
	// model call. Nil when embedding was skipped or failed.
	Embedding []float32

	// Degraded lists the stages that failed and were recovered by
	// continuing without their results.
	Degraded []string
}

// Retrieve runs graph and relational retrieval concurrently. Either source
// failing degrades to an empty list for that source; the error return is
// non-nil only when every source failed or the context was canceled.
func Retrieve(ctx context.Context, deps RetrieveDeps, in RetrieveInput) (RetrieveOutput, error) {
	out := RetrieveOutput{}
	if deps.AI == nil || deps.Log == nil {
		return out, fmt.Errorf("chat retrieve: missing deps")
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return out, fmt.Errorf("chat retrieve: empty query")
	}

	embedding, embedErr := embedQuery(ctx, deps, query)
	if embedErr != nil {
		deps.Log.Warn("embedding failed, continuing with relational retrieval only",
			"error", embedErr)
		out.Degraded = append(out.Degraded, RetrievalStageEmbedding)
	}
	out.Embedding = embedding

	var graphErr, relErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(embedding) == 0 || deps.Graph == nil {
			return nil
		}
		docs, err := deps.Graph.SearchByEmbedding(gctx, embedding, in.VectorK, nil)
		if err != nil {
			graphErr = &RetrievalError{Stage: RetrievalStageGraph, Err: err}
			return nil
		}
		out.Graph = docs
		return nil
	})
	g.Go(func() error {
		if deps.Rel == nil {
			return nil
		}
		docs, err := deps.Rel.Search(gctx, query, in.RelationalK)
		if err != nil {
			relErr = &RetrievalError{Stage: RetrievalStageRelational, Err: err}
			return nil
		}
		out.Relational = docs
		return nil
	})
	if err := g.Wait(); err != nil {
		return out, err
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	if graphErr != nil {
		deps.Log.Warn("graph retrieval degraded", "error", graphErr)
		out.Degraded = append(out.Degraded, RetrievalStageGraph)
	}
	if relErr != nil {
		deps.Log.Warn("relational retrieval degraded", "error", relErr)
		out.Degraded = append(out.Degraded, RetrievalStageRelational)
	}

	// Both stores down is still not fatal for the turn: the caller answers
	// without grounding context, and Degraded tells it what happened.
	return out, nil
}

func embedQuery(ctx context.Context, deps RetrieveDeps, query string) ([]float32, error) {
	if deps.Cache != nil {
		if vec, ok, err := deps.Cache.Get(ctx, query); err != nil {
			deps.Log.Warn("embedding cache read failed", "error", err)
		} else if ok {
			return vec, nil
		}
	}

	vecs, err := deps.AI.Embed(ctx, []string{query})
	if err != nil {
		return nil, &RetrievalError{Stage: RetrievalStageEmbedding, Err: err}
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, &RetrievalError{Stage: RetrievalStageEmbedding, Err: fmt.Errorf("empty embedding")}
	}

	if deps.Cache != nil {
		if err := deps.Cache.Set(ctx, query, vecs[0]); err != nil {
			deps.Log.Warn("embedding cache write failed", "error", err)
		}
	}
	return vecs[0], nil
}
