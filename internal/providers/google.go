package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type GoogleConfig struct {
	APIKey     string
	BaseURL    string
	EmbedModel string
	LLMModel   string
}

// GoogleProvider talks to the Gemini generative language REST API.
type GoogleProvider struct {
	cfg    GoogleConfig
	client *http.Client
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "embedding-001"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "gemini-2.5-flash-lite"
	}
	// Accept the "models/..." form some configurations use.
	cfg.EmbedModel = strings.TrimPrefix(cfg.EmbedModel, "models/")
	cfg.LLMModel = strings.TrimPrefix(cfg.LLMModel, "models/")
	return &GoogleProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// batchEmbedContents rejects more than 100 requests per call.
const googleEmbedBatchLimit = 100

func (g *GoogleProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "google", Model: g.cfg.EmbedModel}
	if g.cfg.APIKey == "" {
		return nil, info, fmt.Errorf("google api key not configured")
	}
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	out := make([][]float32, 0, len(req.Inputs))
	for start := 0; start < len(req.Inputs); start += googleEmbedBatchLimit {
		end := start + googleEmbedBatchLimit
		if end > len(req.Inputs) {
			end = len(req.Inputs)
		}
		vectors, err := g.embedBatch(ctx, req.Inputs[start:end])
		if err != nil {
			return nil, info, err
		}
		out = append(out, vectors...)
	}
	return out, info, nil
}

func (g *GoogleProvider) embedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	type content struct {
		Parts []map[string]string `json:"parts"`
	}
	type embedReq struct {
		Model   string  `json:"model"`
		Content content `json:"content"`
	}
	requests := make([]embedReq, 0, len(inputs))
	for _, text := range inputs {
		requests = append(requests, embedReq{
			Model:   "models/" + g.cfg.EmbedModel,
			Content: content{Parts: []map[string]string{{"text": text}}},
		})
	}
	payload, _ := json.Marshal(map[string]any{"requests": requests})
	path := fmt.Sprintf("/v1beta/models/%s:batchEmbedContents", g.cfg.EmbedModel)
	body, err := g.post(ctx, path, payload)
	if err != nil {
		return nil, fmt.Errorf("google embedding request failed: %w", err)
	}
	var parsed struct {
		Embeddings []struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(parsed.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("google returned %d embeddings for %d inputs", len(parsed.Embeddings), len(inputs))
	}
	out := make([][]float32, 0, len(parsed.Embeddings))
	for _, e := range parsed.Embeddings {
		out = append(out, e.Values)
	}
	return out, nil
}

func (g *GoogleProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "google", Model: g.cfg.LLMModel}
	if g.cfg.APIKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("google api key not configured")
	}
	payload, _ := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": req.Prompt}}},
		},
		"generationConfig": map[string]any{"temperature": 0},
	})
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", g.cfg.LLMModel)
	body, err := g.post(ctx, path, payload)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("google generate request failed: %w", err)
	}
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, info, fmt.Errorf("decode generate response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("google returned empty candidates")
	}
	texts := make([]string, 0, len(parsed.Candidates[0].Content.Parts))
	for _, p := range parsed.Candidates[0].Content.Parts {
		texts = append(texts, p.Text)
	}
	return GenerateResponse{Text: strings.Join(texts, "")}, info, nil
}

func (g *GoogleProvider) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-goog-api-key", g.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("google error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
