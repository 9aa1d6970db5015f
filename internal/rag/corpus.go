package rag

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"legalrag/internal/model"
)

// Candidate is a statute paired with its query-time cosine similarity.
// Derived at search time, never persisted.
type Candidate struct {
	Statute model.StatuteRecord
	Score   float64
}

type corpusEntry struct {
	statute model.StatuteRecord
	vector  []float32
}

// CorpusStore is the in-memory search index over the statute corpus.
// Entries are appended and replaced wholesale, never mutated in place, so
// a concurrent search can never observe a partially written vector. The
// durable copy of statutes and vectors lives in MySQL; bootstrap loads it
// into this index at startup.
type CorpusStore struct {
	mu        sync.RWMutex
	dimension int
	entries   []corpusEntry
	byStatute map[uint]int
}

// NewCorpusStore creates an empty index for vectors of the given
// dimensionality.
func NewCorpusStore(dimension int) (*CorpusStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid corpus dimension %d", dimension)
	}
	return &CorpusStore{
		dimension: dimension,
		byStatute: make(map[uint]int),
	}, nil
}

// Dimension returns the fixed vector length D.
func (s *CorpusStore) Dimension() int { return s.dimension }

// Len returns the number of statutes in the index, searchable or not.
func (s *CorpusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// PutStatute inserts or replaces a statute record. Replacing a record
// drops its vector: the old embedding described the old text and must be
// recomputed before the statute becomes searchable again.
func (s *CorpusStore) PutStatute(rec model.StatuteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.byStatute[rec.ID]; ok {
		s.entries[idx] = corpusEntry{statute: rec}
		return
	}
	s.byStatute[rec.ID] = len(s.entries)
	s.entries = append(s.entries, corpusEntry{statute: rec})
}

// UpsertEmbedding attaches a vector to a known statute, replacing any
// previous one atomically.
func (s *CorpusStore) UpsertEmbedding(statuteID uint, vector []float32) error {
	if len(vector) != s.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), s.dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byStatute[statuteID]
	if !ok {
		return fmt.Errorf("%w: statute %d", ErrStatuteNotFound, statuteID)
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	s.entries[idx] = corpusEntry{statute: s.entries[idx].statute, vector: vec}
	return nil
}

// Search returns the topK statutes most similar to queryVector, scores
// non-increasing, ties kept in insertion order. An optional domain filter
// restricts the scan. Statutes without a vector are skipped: not yet
// embedded means not searchable, not an error. An empty corpus or
// topK == 0 yields an empty result.
func (s *CorpusStore) Search(queryVector []float32, domains []string, topK int) []Candidate {
	if topK <= 0 {
		return nil
	}

	var wanted map[string]bool
	if len(domains) > 0 {
		wanted = make(map[string]bool, len(domains))
		for _, d := range domains {
			wanted[d] = true
		}
	}

	s.mu.RLock()
	candidates := make([]Candidate, 0, len(s.entries))
	for _, e := range s.entries {
		if e.vector == nil {
			continue
		}
		if wanted != nil && !wanted[e.statute.Domain] {
			continue
		}
		candidates = append(candidates, Candidate{
			Statute: e.statute,
			Score:   cosineSimilarity(queryVector, e.vector),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if topK < len(candidates) {
		candidates = candidates[:topK]
	}
	return candidates
}

// cosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1]. Near-zero vectors score 0 instead of dividing by zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
