package steps

import (
	"sort"
	"strings"

	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

const DefaultMergeLimit = 5

// Merge fuses ranked candidate lists into one list ordered ascending by
// score (lower = closer). Duplicate (type, id-or-title) keys keep the
// occurrence with the better score. When normalize is set, each source
// list's scores are min-max rescaled to [0,1] before blending, so distance
// scores from the vector store and rank scores from full-text search
// compete on one scale.
func Merge(lists [][]realtime.ContextDocument, limit int, normalize bool) []realtime.ContextDocument {
	if limit <= 0 {
		limit = DefaultMergeLimit
	}

	var candidates []realtime.ContextDocument
	for _, list := range lists {
		if normalize {
			list = normalizeScores(list)
		}
		candidates = append(candidates, list...)
	}

	seen := make(map[string]int, len(candidates))
	merged := make([]realtime.ContextDocument, 0, len(candidates))
	for _, doc := range candidates {
		key := mergeKey(doc)
		if idx, ok := seen[key]; ok {
			if doc.Score < merged[idx].Score {
				merged[idx] = doc
			}
			continue
		}
		seen[key] = len(merged)
		merged = append(merged, doc)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score < merged[j].Score })

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func mergeKey(doc realtime.ContextDocument) string {
	id := strings.TrimSpace(doc.ID)
	if id == "" {
		id = strings.ToLower(strings.TrimSpace(doc.Title))
	}
	return doc.Type + "\x00" + id
}

func normalizeScores(list []realtime.ContextDocument) []realtime.ContextDocument {
	if len(list) == 0 {
		return list
	}
	lo, hi := list[0].Score, list[0].Score
	for _, doc := range list[1:] {
		if doc.Score < lo {
			lo = doc.Score
		}
		if doc.Score > hi {
			hi = doc.Score
		}
	}
	out := make([]realtime.ContextDocument, len(list))
	copy(out, list)
	if hi == lo {
		for i := range out {
			out[i].Score = 0
		}
		return out
	}
	for i := range out {
		out[i].Score = (out[i].Score - lo) / (hi - lo)
	}
	return out
}
