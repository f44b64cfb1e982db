package rag

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so callers can map them to transport
// responses without string matching.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindIngestion   Kind = "ingestion"
	KindEmbedding   Kind = "embedding"
	KindRetrieval   Kind = "retrieval"
	KindRerank      Kind = "rerank"
	KindComposition Kind = "composition"
)

// Error is a typed pipeline failure. Responses are all-or-nothing: a request
// that produces an Error produces no partial AskResponse.
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

// IsKind reports whether err is a pipeline Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf extracts the error kind, or "" for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
