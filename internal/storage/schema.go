package storage

import (
	"context"
	"fmt"
)

// InitSchema creates the pgvector extension, tables and indexes. The
// embedding column dimensionality is fixed at creation time; changing the
// embedding model later requires a fresh schema.
func InitSchema(ctx context.Context, db *DB, embedDim int) error {
	if embedDim <= 0 {
		return fmt.Errorf("invalid embedding dimension: %d", embedDim)
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			content_hash VARCHAR(64) UNIQUE NOT NULL,
			total_chunks INTEGER NOT NULL DEFAULT 0,
			page_count INTEGER NOT NULL DEFAULT 0,
			file_size BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			content_hash VARCHAR(64) NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB,
			page_number INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (document_id, chunk_index)
		)`, embedDim),
		`CREATE TABLE IF NOT EXISTS llm_calls (
			id UUID PRIMARY KEY,
			operation TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT,
			status TEXT NOT NULL,
			error_type TEXT,
			duration_ms BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_embedding
			ON chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
