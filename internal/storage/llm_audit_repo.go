package storage

import (
	"context"
	"fmt"
)

type LLMCallRecord struct {
	CallID     string
	Operation  string
	Provider   string
	Model      string
	Status     string
	ErrorType  string
	DurationMS int64
}

// LLMAuditRepo records every generation attempt. Writes are best-effort from
// the caller's point of view; a failed audit insert never fails a query.
type LLMAuditRepo struct {
	db *DB
}

func NewLLMAuditRepo(db *DB) *LLMAuditRepo {
	return &LLMAuditRepo{db: db}
}

func (r *LLMAuditRepo) Insert(ctx context.Context, rec LLMCallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO llm_calls (id, operation, provider, model, status, error_type, duration_ms)
VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''), $7)`,
		rec.CallID, rec.Operation, rec.Provider, rec.Model, rec.Status, rec.ErrorType, rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}
