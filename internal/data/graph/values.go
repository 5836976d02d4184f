package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// parseNeo4jDate copes with the three shapes a date property can come back
// as, depending on how the ingestion pipeline wrote it.
func parseNeo4jDate(v any) *time.Time {
	switch d := v.(type) {
	case dbtype.Date:
		t := d.Time()
		return &t
	case time.Time:
		return &d
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, d); err == nil {
				return &t
			}
		}
	}
	return nil
}
