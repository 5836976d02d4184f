package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/neo4jdb"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

const (
	NodeTypeTopic        = "Topic"
	NodeTypePrint        = "Print"
	NodeTypeOrganization = "Organization"
)

// vectorIndexByType maps a node label to its vector index name. Indexes are
// created by the ingestion pipeline, not by this service.
var vectorIndexByType = map[string]string{
	NodeTypeTopic:        "topic_embedding_idx",
	NodeTypePrint:        "print_embedding_idx",
	NodeTypeOrganization: "organization_embedding_idx",
}

// VectorSearcher runs nearest-neighbor queries against the graph store's
// per-label vector indexes.
type VectorSearcher interface {
	SearchByEmbedding(ctx context.Context, embedding []float32, k int, nodeTypes []string) ([]realtime.ContextDocument, error)
}

type vectorSearcher struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewVectorSearcher(client *neo4jdb.Client, log *logger.Logger) VectorSearcher {
	return &vectorSearcher{client: client, log: log.With("service", "VectorSearcher")}
}

// SearchByEmbedding queries each requested node type's index independently.
// A failing index is logged and yields no hits for that type; the error is
// returned only when every requested index failed.
func (s *vectorSearcher) SearchByEmbedding(ctx context.Context, embedding []float32, k int, nodeTypes []string) ([]realtime.ContextDocument, error) {
	if s.client == nil || s.client.Driver == nil {
		return nil, fmt.Errorf("graph: client not configured")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("graph: empty embedding")
	}
	if k <= 0 {
		k = 5
	}
	if len(nodeTypes) == 0 {
		nodeTypes = []string{NodeTypeTopic, NodeTypePrint, NodeTypeOrganization}
	}

	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.client.Database,
	})
	defer session.Close(ctx)

	params := make([]any, len(embedding))
	for i, v := range embedding {
		params[i] = float64(v)
	}

	var out []realtime.ContextDocument
	failed := 0
	for _, nodeType := range nodeTypes {
		indexName, ok := vectorIndexByType[nodeType]
		if !ok {
			s.log.Warn("unknown vector node type, skipping", "node_type", nodeType)
			continue
		}
		docs, err := s.queryIndex(ctx, session, indexName, nodeType, params, k)
		if err != nil {
			failed++
			s.log.Warn("vector index query failed, degrading to empty list",
				"index", indexName, "error", err)
			continue
		}
		out = append(out, docs...)
	}
	if failed == len(nodeTypes) && failed > 0 {
		return nil, fmt.Errorf("graph: all vector indexes unavailable")
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out, nil
}

func (s *vectorSearcher) queryIndex(ctx context.Context, session neo4j.SessionWithContext, indexName, nodeType string, embedding []any, k int) ([]realtime.ContextDocument, error) {
	res, err := session.Run(ctx, `
CALL db.index.vector.queryNodes($index, $k, $embedding)
YIELD node, score
RETURN node.id AS id,
       node.title AS title,
       node.summary AS summary,
       node.url AS url,
       node.change_date AS change_date,
       score
ORDER BY score DESC
`, map[string]any{
		"index":     indexName,
		"k":         k,
		"embedding": embedding,
	})
	if err != nil {
		return nil, err
	}

	var docs []realtime.ContextDocument
	for res.Next(ctx) {
		rec := res.Record()
		title := stringValue(rec, "title")
		summary := stringValue(rec, "summary")
		if strings.TrimSpace(title) == "" || strings.TrimSpace(summary) == "" {
			// Partial nodes make useless context; drop them.
			continue
		}
		doc := realtime.ContextDocument{
			Type:    nodeType,
			ID:      stringValue(rec, "id"),
			Title:   title,
			Content: summary,
			URL:     stringValue(rec, "url"),
		}
		if sc, ok := rec.Get("score"); ok {
			if f, ok := sc.(float64); ok {
				// The index reports cosine similarity (higher = closer);
				// everything downstream ranks by distance.
				doc.Score = 1 - f
			}
		}
		if cd, ok := rec.Get("change_date"); ok && cd != nil {
			doc.ChangeDate = parseNeo4jDate(cd)
		}
		docs = append(docs, doc)
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
