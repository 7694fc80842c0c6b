package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/models"
	"docchat/internal/pdfload"
	"docchat/internal/providers"
)

type fakeLoader struct {
	doc pdfload.Document
	err error
}

func (f *fakeLoader) Load(path string) (pdfload.Document, error) {
	return f.doc, f.err
}

type fakeStore struct {
	existing  *models.Document
	findErr   error
	saveErr   error
	savedDoc  *models.Document
	savedRows []models.Chunk
}

func (f *fakeStore) FindByContentHash(ctx context.Context, hash string) (*models.Document, error) {
	return f.existing, f.findErr
}

func (f *fakeStore) SaveDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedDoc = &doc
	f.savedRows = chunks
	return nil
}

type fakeEmbedder struct {
	dim   int
	err   error
	calls []providers.EmbedRequest
}

func (f *fakeEmbedder) Embed(ctx context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, providers.ProviderInfo{}, f.err
	}
	out := make([][]float32, len(req.Inputs))
	for i := range out {
		out[i] = make([]float32, f.dim)
		out[i][0] = float32(i + 1)
	}
	return out, providers.ProviderInfo{Name: "fake", Model: "fake-embed"}, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		PostgresURL:         "postgres://localhost/test",
		DataOutRoot:         t.TempDir(),
		EmbedProvider:       "mock",
		LLMProvider:         "mock",
		ChunkSize:           80,
		ChunkOverlap:        10,
		SearchLimit:         5,
		SimilarityThreshold: 0.15,
		EmbedDim:            4,
		FallbackAnswer:      "I do not have the information needed to answer your question.",
	}
}

func testIngestor(t *testing.T, cfg config.Config, loader *fakeLoader, store *fakeStore, emb *fakeEmbedder) *Ingestor {
	t.Helper()
	sp, err := chunker.New(chunker.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap})
	require.NoError(t, err)
	return NewIngestor(cfg, loader, sp, emb, store)
}

func twoPageDoc() pdfload.Document {
	return pdfload.Document{
		Filename:    "report.pdf",
		ContentHash: "abc123",
		FileSize:    2048,
		PageCount:   2,
		Pages: []string{
			"First page sentence one. First page sentence two keeps going for a while here.",
			"Second page text with its own content. More second page words follow after that.",
		},
	}
}

func TestIngestStoresDocumentAndChunks(t *testing.T) {
	cfg := testConfig(t)
	store := &fakeStore{}
	emb := &fakeEmbedder{dim: cfg.EmbedDim}
	in := testIngestor(t, cfg, &fakeLoader{doc: twoPageDoc()}, store, emb)

	res, err := in.Ingest(context.Background(), "report.pdf")
	require.NoError(t, err)
	require.False(t, res.Reused)
	require.NotEmpty(t, res.Document.ID)
	require.Equal(t, "report.pdf", res.Document.Filename)
	require.Equal(t, 2, res.Document.PageCount)
	require.Equal(t, len(store.savedRows), res.Document.TotalChunks)
	require.NotEmpty(t, store.savedRows)

	for i, c := range store.savedRows {
		require.Equal(t, i, c.ChunkIndex, "indices must be contiguous from zero")
		require.Equal(t, res.Document.ID, c.DocumentID)
		require.NotNil(t, c.PageNumber)
		require.Len(t, c.Embedding, cfg.EmbedDim)
		require.NotEmpty(t, c.ContentHash)
	}

	// Chunks never straddle a page boundary, so both pages must appear.
	pages := map[int]bool{}
	for _, c := range store.savedRows {
		pages[*c.PageNumber] = true
	}
	require.True(t, pages[1])
	require.True(t, pages[2])
}

func TestIngestSingleSentenceProducesOneChunk(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChunkSize = 1000
	cfg.ChunkOverlap = 150
	store := &fakeStore{}
	doc := pdfload.Document{
		Filename:    "tiny.pdf",
		ContentHash: "tiny",
		PageCount:   1,
		Pages:       []string{"Revenue was 10 million reais in 2023."},
	}
	in := testIngestor(t, cfg, &fakeLoader{doc: doc}, store, &fakeEmbedder{dim: cfg.EmbedDim})

	res, err := in.Ingest(context.Background(), "tiny.pdf")
	require.NoError(t, err)
	require.Equal(t, 1, res.Document.TotalChunks)
	require.Len(t, store.savedRows, 1)
	require.Equal(t, "Revenue was 10 million reais in 2023.", store.savedRows[0].Content)
}

func TestIngestReusesExistingDocument(t *testing.T) {
	cfg := testConfig(t)
	existing := &models.Document{ID: "doc-1", Filename: "report.pdf", ContentHash: "abc123", TotalChunks: 4}
	store := &fakeStore{existing: existing}
	emb := &fakeEmbedder{dim: cfg.EmbedDim}
	in := testIngestor(t, cfg, &fakeLoader{doc: twoPageDoc()}, store, emb)

	res, err := in.Ingest(context.Background(), "report.pdf")
	require.NoError(t, err)
	require.True(t, res.Reused)
	require.Equal(t, "doc-1", res.Document.ID)
	require.Empty(t, emb.calls, "duplicate ingest must not call the embedder")
	require.Nil(t, store.savedDoc, "duplicate ingest must not write")
}

func TestIngestInvalidConfiguration(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChunkOverlap = cfg.ChunkSize
	store := &fakeStore{}
	sp, err := chunker.New(chunker.Config{ChunkSize: 80, ChunkOverlap: 10})
	require.NoError(t, err)
	in := NewIngestor(cfg, &fakeLoader{doc: twoPageDoc()}, sp, &fakeEmbedder{dim: 4}, store)

	_, err = in.Ingest(context.Background(), "report.pdf")
	require.Error(t, err)
	require.Equal(t, KindConfiguration, KindOf(err))
	require.Nil(t, store.savedDoc)
}

func TestIngestLoaderFailure(t *testing.T) {
	cfg := testConfig(t)
	store := &fakeStore{}
	in := testIngestor(t, cfg, &fakeLoader{err: errors.New("damaged xref table")}, store, &fakeEmbedder{dim: cfg.EmbedDim})

	_, err := in.Ingest(context.Background(), "broken.pdf")
	require.Error(t, err)
	require.Equal(t, KindSource, KindOf(err))
	require.Nil(t, store.savedDoc)
}

func TestIngestNoExtractableText(t *testing.T) {
	cfg := testConfig(t)
	store := &fakeStore{}
	doc := pdfload.Document{Filename: "scan.pdf", ContentHash: "zzz", PageCount: 2, Pages: []string{"", "   "}}
	in := testIngestor(t, cfg, &fakeLoader{doc: doc}, store, &fakeEmbedder{dim: cfg.EmbedDim})

	_, err := in.Ingest(context.Background(), "scan.pdf")
	require.Error(t, err)
	require.Equal(t, KindSource, KindOf(err))
	require.ErrorIs(t, err, pdfload.ErrNoExtractableText)
	require.Nil(t, store.savedDoc)
}

func TestIngestEmbedderFailureLeavesStoreUntouched(t *testing.T) {
	cfg := testConfig(t)
	store := &fakeStore{}
	in := testIngestor(t, cfg, &fakeLoader{doc: twoPageDoc()}, store, &fakeEmbedder{err: fmt.Errorf("429 rate limited")})

	_, err := in.Ingest(context.Background(), "report.pdf")
	require.Error(t, err)
	require.Equal(t, KindEmbedding, KindOf(err))
	require.Nil(t, store.savedDoc, "nothing may persist when embedding fails")
}

func TestIngestDimensionMismatch(t *testing.T) {
	cfg := testConfig(t)
	store := &fakeStore{}
	in := testIngestor(t, cfg, &fakeLoader{doc: twoPageDoc()}, store, &fakeEmbedder{dim: cfg.EmbedDim + 1})

	_, err := in.Ingest(context.Background(), "report.pdf")
	require.Error(t, err)
	require.Equal(t, KindEmbedding, KindOf(err))
	require.ErrorIs(t, err, ErrModelMismatch)
	require.Nil(t, store.savedDoc)
}

func TestIngestStorageFailure(t *testing.T) {
	cfg := testConfig(t)
	store := &fakeStore{saveErr: errors.New("connection reset")}
	in := testIngestor(t, cfg, &fakeLoader{doc: twoPageDoc()}, store, &fakeEmbedder{dim: cfg.EmbedDim})

	_, err := in.Ingest(context.Background(), "report.pdf")
	require.Error(t, err)
	require.Equal(t, KindStorage, KindOf(err))
}
