package models

import "time"

// Document is one ingested source file. Immutable after ingestion except
// TotalChunks, which is finalized when the last chunk is stored.
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	TotalChunks int       `json:"total_chunks"`
	PageCount   int       `json:"page_count"`
	FileSize    int64     `json:"file_size,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chunk is one contiguous, possibly-overlapping span of document text.
// ChunkIndex values are contiguous starting at 0 within a document.
type Chunk struct {
	ID          string            `json:"id"`
	DocumentID  string            `json:"document_id"`
	ChunkIndex  int               `json:"chunk_index"`
	Content     string            `json:"content"`
	ContentHash string            `json:"content_hash"`
	PageNumber  *int              `json:"page_number,omitempty"`
	Embedding   []float32         `json:"-"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// SearchResult pairs a stored chunk with its cosine similarity to a query
// vector. Score is similarity, not distance: higher means more relevant.
// Results are transient and never persisted.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	PageNumber *int    `json:"page_number,omitempty"`
	Score      float64 `json:"score"`
}
