package rag

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"docchat/internal/config"
	"docchat/internal/models"
	"docchat/internal/providers"
	"docchat/internal/storage"
)

// ChunkSearcher runs a similarity query against the chunk store. Satisfied
// by *vector.Searcher.
type ChunkSearcher interface {
	Search(ctx context.Context, queryVec []float32, topK int, threshold float64) ([]models.SearchResult, error)
}

// CallAuditor records generation attempts. Satisfied by *storage.LLMAuditRepo.
type CallAuditor interface {
	Insert(ctx context.Context, rec storage.LLMCallRecord) error
}

// Answer is the outcome of one question. Grounded is false when retrieval
// found nothing above the similarity floor and the fixed fallback was
// returned without calling the language model.
type Answer struct {
	Question string                 `json:"question"`
	Text     string                 `json:"text"`
	Grounded bool                   `json:"grounded"`
	Results  []models.SearchResult  `json:"results"`
	Provider providers.ProviderInfo `json:"provider"`
	Duration time.Duration          `json:"duration_ns"`
}

type Answerer struct {
	cfg      config.Config
	embedder providers.EmbeddingProvider
	searcher ChunkSearcher
	llm      providers.LLMProvider
	audit    CallAuditor
}

// NewAnswerer builds the read path. audit may be nil; auditing is then
// skipped entirely.
func NewAnswerer(cfg config.Config, embedder providers.EmbeddingProvider, searcher ChunkSearcher, llm providers.LLMProvider, audit CallAuditor) *Answerer {
	return &Answerer{cfg: cfg, embedder: embedder, searcher: searcher, llm: llm, audit: audit}
}

// Answer embeds the question, retrieves the closest chunks and asks the
// language model to answer from them alone. When no chunk clears the
// similarity threshold it returns the configured fallback without spending
// a model call. On generation failure the retrieved results are still
// attached to the returned Answer for diagnostics.
func (a *Answerer) Answer(ctx context.Context, question string) (Answer, error) {
	start := time.Now()
	out := Answer{Question: question}

	if err := a.cfg.Validate(); err != nil {
		return out, newError(KindConfiguration, "invalid configuration", err)
	}

	vecs, _, err := a.embedder.Embed(ctx, providers.EmbedRequest{Operation: "query", Inputs: []string{question}})
	if err != nil {
		return out, newError(KindEmbedding, "embed question", err)
	}
	if len(vecs) != 1 {
		return out, newError(KindEmbedding, fmt.Sprintf("provider returned %d vectors for one question", len(vecs)), nil)
	}
	if len(vecs[0]) != a.cfg.EmbedDim {
		return out, newError(KindEmbedding, "verify embedding dimensions",
			fmt.Errorf("got dimension %d, store expects %d: %w", len(vecs[0]), a.cfg.EmbedDim, ErrModelMismatch))
	}

	results, err := a.searcher.Search(ctx, vecs[0], a.cfg.SearchLimit, a.cfg.SimilarityThreshold)
	if err != nil {
		return out, newError(KindStorage, "similarity search", err)
	}
	out.Results = results

	if len(results) == 0 {
		out.Text = a.cfg.FallbackAnswer
		out.Grounded = false
		out.Duration = time.Since(start)
		return out, nil
	}

	prompt := BuildPrompt(question, a.cfg.FallbackAnswer, results)
	genStart := time.Now()
	resp, info, err := a.llm.Generate(ctx, providers.GenerateRequest{Operation: "answer", Prompt: prompt})
	out.Provider = info
	a.recordCall(ctx, info, genStart, err)
	if err != nil {
		return out, newError(KindGeneration, "generate answer", err)
	}

	out.Text = resp.Text
	out.Grounded = true
	out.Duration = time.Since(start)
	return out, nil
}

// recordCall audits one generation attempt. Audit failures are logged, never
// surfaced; diagnostics must not break answers.
func (a *Answerer) recordCall(ctx context.Context, info providers.ProviderInfo, start time.Time, genErr error) {
	if a.audit == nil {
		return
	}
	rec := storage.LLMCallRecord{
		CallID:     uuid.New().String(),
		Operation:  "answer",
		Provider:   info.Name,
		Model:      info.Model,
		Status:     "ok",
		DurationMS: time.Since(start).Milliseconds(),
	}
	if genErr != nil {
		rec.Status = "error"
		rec.ErrorType = string(providers.ClassifyError(genErr))
	}
	if err := a.audit.Insert(ctx, rec); err != nil {
		log.Printf("answer: audit insert failed: %v", err)
	}
}
