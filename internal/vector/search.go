// Package vector runs similarity queries against the pgvector-backed chunks
// table. Scores are cosine similarity (1 - cosine distance): higher means
// closer, and the threshold below is a similarity floor, not a distance cap.
package vector

import (
	"context"
	"fmt"
	"strings"

	"docchat/internal/models"

	"github.com/jackc/pgx/v5"
)

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Searcher struct {
	q Queryer
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// Search returns at most topK chunks whose similarity to queryVec is at
// least threshold, best first. Equal scores are ordered by lowest
// chunk_index so results are deterministic.
func (s *Searcher) Search(ctx context.Context, queryVec []float32, topK int, threshold float64) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}
	query := `
SELECT c.id::text,
       c.document_id::text,
       d.filename,
       c.chunk_index,
       c.content,
       c.page_number,
       1 - (c.embedding <=> $1::vector) AS score
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE 1 - (c.embedding <=> $1::vector) >= $2
ORDER BY c.embedding <=> $1::vector ASC, c.chunk_index ASC
LIMIT $3`

	rows, err := s.q.Query(ctx, query, ToLiteral(queryVec), threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.SearchResult, 0, topK)
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Filename, &r.ChunkIndex, &r.Content, &r.PageNumber, &r.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

// ToLiteral renders a vector in pgvector's input syntax.
func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
