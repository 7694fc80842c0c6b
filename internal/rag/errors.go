package rag

import (
	"errors"
	"fmt"
)

// Kind partitions pipeline failures by where they happened and what the
// caller may assume about side effects. Every kind except generation
// guarantees that nothing was persisted.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindSource        Kind = "source"
	KindEmbedding     Kind = "embedding"
	KindStorage       Kind = "storage"
	KindGeneration    Kind = "generation"
)

// ErrModelMismatch marks an embedding whose dimensionality disagrees with
// the configured vector store dimensionality.
var ErrModelMismatch = errors.New("embedding dimension mismatch")

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of err, or "" for nil and foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
