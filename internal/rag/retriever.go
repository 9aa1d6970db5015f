package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Encoder turns text into a fixed-length dense vector. Implementations
// must be deterministic for identical normalized input and return
// ErrEncodingUnavailable when the underlying model cannot be invoked.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns ranked candidates for a query, best first. minScore
// is a per-call floor, not a constant: the HTTP layer passes a configured
// strict floor while ingestion tooling may pass zero.
type Retriever interface {
	Retrieve(ctx context.Context, query string, domains []string, topK int, minScore float64) ([]Candidate, error)
}

// VectorRetriever encodes the query and runs a similarity search over the
// corpus index. Encoder and corpus failures both surface as
// ErrRetrievalUnavailable; the distinction is only logged.
type VectorRetriever struct {
	encoder Encoder
	store   *CorpusStore
}

func NewVectorRetriever(encoder Encoder, store *CorpusStore) *VectorRetriever {
	return &VectorRetriever{encoder: encoder, store: store}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, domains []string, topK int, minScore float64) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrRetrievalUnavailable)
	}

	queryVector, err := r.encoder.Encode(ctx, query)
	if err != nil {
		log.Printf("retriever: encode query failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
	if len(queryVector) != r.store.Dimension() {
		log.Printf("retriever: query vector dimension %d, corpus expects %d", len(queryVector), r.store.Dimension())
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, ErrDimensionMismatch)
	}

	candidates := r.store.Search(queryVector, domains, topK)

	filtered := candidates[:0]
	for _, c := range candidates {
		if c.Score >= minScore {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}
