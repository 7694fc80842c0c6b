package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"docchat/internal/models"
	"docchat/internal/vector"

	"github.com/jackc/pgx/v5"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// FindByContentHash returns the stored document with the given hash, or nil
// when no such document exists.
func (r *DocumentRepo) FindByContentHash(ctx context.Context, contentHash string) (*models.Document, error) {
	var d models.Document
	err := r.db.Pool.QueryRow(ctx, `
SELECT id::text, filename, content_hash, total_chunks, page_count, COALESCE(file_size, 0), created_at
FROM documents
WHERE content_hash = $1`, contentHash).
		Scan(&d.ID, &d.Filename, &d.ContentHash, &d.TotalChunks, &d.PageCount, &d.FileSize, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by hash: %w", err)
	}
	return &d, nil
}

// SaveDocumentWithChunks writes the document row and all of its chunks in a
// single transaction: after commit every chunk is searchable, before commit
// none are.
func (r *DocumentRepo) SaveDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx save document: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
INSERT INTO documents (id, filename, content_hash, total_chunks, page_count, file_size)
VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Filename, doc.ContentHash, doc.TotalChunks, doc.PageCount, doc.FileSize,
	)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.Filename, err)
	}

	for _, c := range chunks {
		var metadata *string
		if len(c.Metadata) > 0 {
			b, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("marshal chunk metadata: %w", err)
			}
			s := string(b)
			metadata = &s
		}
		_, err := tx.Exec(ctx, `
INSERT INTO chunks (id, document_id, chunk_index, content, content_hash, embedding, metadata, page_number)
VALUES ($1, $2, $3, $4, $5, $6::vector, $7::jsonb, $8)`,
			c.ID, doc.ID, c.ChunkIndex, c.Content, c.ContentHash, vector.ToLiteral(c.Embedding), metadata, c.PageNumber,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d of %s: %w", c.ChunkIndex, doc.Filename, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit document tx: %w", err)
	}
	return nil
}

func (r *DocumentRepo) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id::text, filename, content_hash, total_chunks, page_count, COALESCE(file_size, 0), created_at
FROM documents
ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.ContentHash, &d.TotalChunks, &d.PageCount, &d.FileSize, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// Counts reports the stored document and chunk totals, used by the status
// command.
func (r *DocumentRepo) Counts(ctx context.Context) (documents, chunks int64, err error) {
	err = r.db.Pool.QueryRow(ctx, `
SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM chunks)`).
		Scan(&documents, &chunks)
	if err != nil {
		return 0, 0, fmt.Errorf("count documents: %w", err)
	}
	return documents, chunks, nil
}
