package rag

import (
	"fmt"
	"strings"

	"docchat/internal/models"
)

const promptTemplate = `You are an assistant that answers questions strictly from the context below.

CONTEXT:
%s

RULES:
1. Answer using ONLY the information in CONTEXT. Do not use outside knowledge.
2. If the CONTEXT does not contain the information needed, reply exactly: %q
3. Do not speculate, infer beyond the text, or fabricate details.
4. When the answer is present, be concise and cite the source number(s) you used, like [1] or [2][3].

EXAMPLES:
Question: What does the context say about the refund window?
Context contains: "Refunds are accepted within 30 days of purchase."
Answer: Refunds are accepted within 30 days of purchase [1].

Question: Who is the current CEO?
Context contains nothing about a CEO.
Answer: %[2]q (exactly, nothing else)

QUESTION: %[3]s

ANSWER:`

// BuildPrompt renders the grounded prompt for one question. Each retrieved
// chunk becomes a numbered source annotated with its origin so the model
// can cite it. The question is passed through verbatim.
func BuildPrompt(question, fallback string, results []models.SearchResult) string {
	var ctx strings.Builder
	for i, r := range results {
		origin := fmt.Sprintf("%s, chunk %d", r.Filename, r.ChunkIndex)
		if r.PageNumber != nil {
			origin = fmt.Sprintf("%s, page %d, chunk %d", r.Filename, *r.PageNumber, r.ChunkIndex)
		}
		fmt.Fprintf(&ctx, "[%d] (%s)\n%s\n\n", i+1, origin, strings.TrimSpace(r.Content))
	}
	return fmt.Sprintf(promptTemplate, strings.TrimRight(ctx.String(), "\n"), fallback, question)
}
