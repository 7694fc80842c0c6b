// Package rag wires the pipeline stages together: load, chunk, embed, store
// on the way in; embed, search, generate on the way out. All orchestration
// is synchronous and every failure carries a Kind telling the caller which
// stage broke and whether anything was persisted.
package rag

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/models"
	"docchat/internal/pdfload"
	"docchat/internal/providers"
	"docchat/internal/util"
)

// SourceLoader reads a document from disk. Satisfied by *pdfload.Loader.
type SourceLoader interface {
	Load(path string) (pdfload.Document, error)
}

// DocumentStore persists documents and their chunks atomically. Satisfied by
// *storage.DocumentRepo.
type DocumentStore interface {
	FindByContentHash(ctx context.Context, contentHash string) (*models.Document, error)
	SaveDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) error
}

// IngestResult reports what one Ingest call did. Reused is true when the
// file's content hash matched an already stored document and nothing new
// was written.
type IngestResult struct {
	Document models.Document        `json:"document"`
	Reused   bool                   `json:"reused"`
	Provider providers.ProviderInfo `json:"provider"`
	Duration time.Duration          `json:"duration_ns"`
}

type Ingestor struct {
	cfg      config.Config
	loader   SourceLoader
	splitter *chunker.Splitter
	embedder providers.EmbeddingProvider
	store    DocumentStore
}

func NewIngestor(cfg config.Config, loader SourceLoader, splitter *chunker.Splitter, embedder providers.EmbeddingProvider, store DocumentStore) *Ingestor {
	return &Ingestor{cfg: cfg, loader: loader, splitter: splitter, embedder: embedder, store: store}
}

// Ingest runs the full write path for one PDF. Persistence is all-or-nothing:
// on any error before commit, the store is untouched. Re-ingesting a file
// whose bytes are already stored is a no-op that returns the existing
// document.
func (in *Ingestor) Ingest(ctx context.Context, path string) (IngestResult, error) {
	start := time.Now()

	if err := in.cfg.Validate(); err != nil {
		return IngestResult{}, newError(KindConfiguration, "invalid configuration", err)
	}

	src, err := in.loader.Load(path)
	if err != nil {
		return IngestResult{}, newError(KindSource, fmt.Sprintf("load %s", path), err)
	}

	existing, err := in.store.FindByContentHash(ctx, src.ContentHash)
	if err != nil {
		return IngestResult{}, newError(KindStorage, "deduplication lookup", err)
	}
	if existing != nil {
		log.Printf("ingest: %s already stored as document %s, skipping", src.Filename, existing.ID)
		return IngestResult{Document: *existing, Reused: true, Duration: time.Since(start)}, nil
	}

	chunks := in.chunkPages(src)
	if len(chunks) == 0 {
		return IngestResult{}, newError(KindSource, fmt.Sprintf("load %s", path), pdfload.ErrNoExtractableText)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, info, err := in.embedder.Embed(ctx, providers.EmbedRequest{Operation: "ingest", Inputs: texts})
	if err != nil {
		return IngestResult{}, newError(KindEmbedding, fmt.Sprintf("embed %d chunks", len(chunks)), err)
	}
	if len(vectors) != len(chunks) {
		return IngestResult{}, newError(KindEmbedding,
			fmt.Sprintf("provider returned %d vectors for %d chunks", len(vectors), len(chunks)), nil)
	}
	if err := in.checkDim(vectors); err != nil {
		return IngestResult{}, newError(KindEmbedding, "verify embedding dimensions", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	doc := models.Document{
		ID:          uuid.New().String(),
		Filename:    src.Filename,
		ContentHash: src.ContentHash,
		TotalChunks: len(chunks),
		PageCount:   src.PageCount,
		FileSize:    src.FileSize,
		CreatedAt:   time.Now().UTC(),
	}
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
	}

	if err := in.store.SaveDocumentWithChunks(ctx, doc, chunks); err != nil {
		return IngestResult{}, newError(KindStorage, fmt.Sprintf("persist %s", src.Filename), err)
	}
	log.Printf("ingest: stored %s as document %s (%d chunks, %d pages)", doc.Filename, doc.ID, doc.TotalChunks, doc.PageCount)

	result := IngestResult{Document: doc, Reused: false, Provider: info, Duration: time.Since(start)}
	in.writeManifest(result)
	return result, nil
}

// chunkPages splits every page independently so no chunk straddles a page
// boundary, while chunk indices stay contiguous across the whole document.
func (in *Ingestor) chunkPages(src pdfload.Document) []models.Chunk {
	chunks := make([]models.Chunk, 0, 64)
	index := 0
	for p, page := range src.Pages {
		pageNum := p + 1
		for _, piece := range in.splitter.Split(page) {
			pn := pageNum
			chunks = append(chunks, models.Chunk{
				ID:          uuid.New().String(),
				ChunkIndex:  index,
				Content:     piece.Text,
				ContentHash: util.SHA256Hex([]byte(piece.Text)),
				PageNumber:  &pn,
				Metadata: map[string]string{
					"rune_start": fmt.Sprintf("%d", piece.Start),
					"rune_end":   fmt.Sprintf("%d", piece.End),
				},
				CreatedAt: time.Now().UTC(),
			})
			index++
		}
	}
	return chunks
}

func (in *Ingestor) checkDim(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != in.cfg.EmbedDim {
			return fmt.Errorf("chunk %d: got dimension %d, store expects %d: %w",
				i, len(v), in.cfg.EmbedDim, ErrModelMismatch)
		}
	}
	return nil
}

// writeManifest drops a small JSON record of the ingest next to the data out
// root. Failures are logged and swallowed; the database commit already
// succeeded.
func (in *Ingestor) writeManifest(result IngestResult) {
	path := filepath.Join(in.cfg.DataOutRoot, "ingest", result.Document.ID+".json")
	if err := util.WriteJSONAtomic(path, result); err != nil {
		log.Printf("ingest: manifest write failed for %s: %v", result.Document.ID, err)
	}
}
