package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrEncodingUnavailable means the embedding model could not be
	// loaded or invoked. Never swallowed; callers propagate it or take
	// an explicit fallback path.
	ErrEncodingUnavailable = errors.New("embedding encoder unavailable")

	// ErrDimensionMismatch means a vector's length does not match the
	// corpus dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRetrievalUnavailable wraps any encoder or corpus failure during
	// retrieval. The retriever does not distinguish the cause to its
	// caller beyond logging it.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrStatuteNotFound means an embedding was upserted for a statute
	// the corpus has never seen.
	ErrStatuteNotFound = errors.New("statute not found in corpus")
)

// FailureKind classifies an answer-backend failure.
type FailureKind int

const (
	FailureUnavailable FailureKind = iota
	FailureUnauthorized
	FailureRateLimited
	FailureBadRequest
	FailureTimeout
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnauthorized:
		return "unauthorized"
	case FailureRateLimited:
		return "rate_limited"
	case FailureBadRequest:
		return "bad_request"
	case FailureTimeout:
		return "timeout"
	default:
		return "unavailable"
	}
}

// BackendError is a typed failure from one answer backend attempt.
type BackendError struct {
	Backend string
	Kind    FailureKind
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("backend %s failed: %s", e.Backend, e.Kind)
	}
	return fmt.Sprintf("backend %s failed (%s): %v", e.Backend, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// configError reports whether the failure is a configuration problem that
// retrying other backends cannot fix.
func (e *BackendError) configError() bool {
	return e.Kind == FailureUnauthorized || e.Kind == FailureBadRequest
}
