package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/model"
)

type stubEncoder struct {
	vector []float32
	err    error
}

func (e *stubEncoder) Encode(_ context.Context, _ string) ([]float32, error) {
	return e.vector, e.err
}

func TestRetrieve_FiltersBelowFloor(t *testing.T) {
	store := newTestCorpus(t, 2)
	putIndexed(t, store, 1, "", []float32{1, 0}) // score 1
	putIndexed(t, store, 2, "", []float32{1, 1}) // score ~0.707
	putIndexed(t, store, 3, "", []float32{0, 1}) // score 0

	r := NewVectorRetriever(&stubEncoder{vector: []float32{1, 0}}, store)

	got, err := r.Retrieve(context.Background(), "opsigelse", nil, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].Statute.ID)
	assert.Equal(t, uint(2), got[1].Statute.ID)
}

func TestRetrieve_PermissiveFloorKeepsAll(t *testing.T) {
	store := newTestCorpus(t, 2)
	putIndexed(t, store, 1, "", []float32{1, 0})
	putIndexed(t, store, 2, "", []float32{0, 1})

	r := NewVectorRetriever(&stubEncoder{vector: []float32{1, 0}}, store)

	got, err := r.Retrieve(context.Background(), "opsigelse", nil, 5, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRetrieve_EncoderFailure(t *testing.T) {
	store := newTestCorpus(t, 2)
	r := NewVectorRetriever(&stubEncoder{err: fmt.Errorf("%w: model gone", ErrEncodingUnavailable)}, store)

	_, err := r.Retrieve(context.Background(), "opsigelse", nil, 5, 0)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestRetrieve_DimensionMismatchFromEncoder(t *testing.T) {
	store := newTestCorpus(t, 2)
	r := NewVectorRetriever(&stubEncoder{vector: []float32{1, 0, 0}}, store)

	_, err := r.Retrieve(context.Background(), "opsigelse", nil, 5, 0)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	store := newTestCorpus(t, 2)
	r := NewVectorRetriever(&stubEncoder{vector: []float32{1, 0}}, store)

	_, err := r.Retrieve(context.Background(), "   ", nil, 5, 0)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestRetrieve_EmptyCorpusIsNotAnError(t *testing.T) {
	store := newTestCorpus(t, 2)
	r := NewVectorRetriever(&stubEncoder{vector: []float32{1, 0}}, store)

	got, err := r.Retrieve(context.Background(), "opsigelse", nil, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieve_DomainFilterPassedThrough(t *testing.T) {
	store := newTestCorpus(t, 2)
	store.PutStatute(model.StatuteRecord{ID: 1, Domain: "lejeret"})
	require.NoError(t, store.UpsertEmbedding(1, []float32{1, 0}))

	r := NewVectorRetriever(&stubEncoder{vector: []float32{1, 0}}, store)

	got, err := r.Retrieve(context.Background(), "husleje", []string{"ansættelsesret"}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
