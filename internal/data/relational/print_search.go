package relational

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

// PrintSearcher runs full-text search over the relational print mirror. It
// covers content the graph store does not model (fresh prints that have not
// been embedded yet).
type PrintSearcher interface {
	Search(ctx context.Context, query string, k int) ([]realtime.ContextDocument, error)
}

type printSearcher struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPrintSearcher(db *gorm.DB, log *logger.Logger) PrintSearcher {
	return &printSearcher{db: db, log: log.With("service", "PrintSearcher")}
}

type printSearchRow struct {
	Number     string     `gorm:"column:number"`
	Title      string     `gorm:"column:title"`
	Summary    string     `gorm:"column:summary"`
	ChangeDate *time.Time `gorm:"column:change_date"`
	Rank       float64    `gorm:"column:rank"`
}

func (s *printSearcher) Search(ctx context.Context, query string, k int) ([]realtime.ContextDocument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("relational: empty query")
	}
	if k <= 0 {
		k = 5
	}

	// The 'simple' configuration avoids language-specific stemming; print
	// titles mix Polish legalese with proper nouns that stemmers mangle.
	var rows []printSearchRow
	if err := s.db.WithContext(ctx).Raw(`
SELECT number, title, summary, change_date,
       ts_rank(to_tsvector('simple', title || ' ' || summary),
               plainto_tsquery('simple', ?)) AS rank
FROM print
WHERE to_tsvector('simple', title || ' ' || summary) @@ plainto_tsquery('simple', ?)
ORDER BY rank DESC, number ASC
LIMIT ?
`, query, query, k).Scan(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]realtime.ContextDocument, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Title) == "" || strings.TrimSpace(row.Summary) == "" {
			continue
		}
		docs = append(docs, realtime.ContextDocument{
			Type:    "Print",
			ID:      row.Number,
			Title:   row.Title,
			Content: row.Summary,
			URL:     "/prints/" + row.Number,
			// ts_rank grows with relevance; fold it into the ascending
			// distance convention the merger sorts by.
			Score:      1.0 / (1.0 + row.Rank),
			ChangeDate: row.ChangeDate,
		})
	}
	return docs, nil
}
