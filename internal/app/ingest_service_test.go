package app

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/model"
	"legalrag/internal/rag"
)

type memStatuteStore struct {
	statutes map[uint]*model.StatuteRecord
	byExtID  map[string]uint
	nextID   uint
}

func newMemStatuteStore() *memStatuteStore {
	return &memStatuteStore{statutes: make(map[uint]*model.StatuteRecord), byExtID: make(map[string]uint)}
}

func (s *memStatuteStore) UpsertByExternalID(rec *model.StatuteRecord) (bool, error) {
	if id, ok := s.byExtID[rec.ExternalID]; ok {
		rec.ID = id
		stored := *rec
		s.statutes[id] = &stored
		return false, nil
	}
	s.nextID++
	rec.ID = s.nextID
	stored := *rec
	s.statutes[rec.ID] = &stored
	s.byExtID[rec.ExternalID] = rec.ID
	return true, nil
}

func (s *memStatuteStore) GetByID(id uint) (*model.StatuteRecord, error) {
	rec, ok := s.statutes[id]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (s *memStatuteStore) ListAll() ([]model.StatuteRecord, error) {
	var out []model.StatuteRecord
	for i := uint(1); i <= s.nextID; i++ {
		if rec, ok := s.statutes[i]; ok {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type memEmbeddingStore struct {
	vectors map[uint][]float32
}

func newMemEmbeddingStore() *memEmbeddingStore {
	return &memEmbeddingStore{vectors: make(map[uint][]float32)}
}

func (s *memEmbeddingStore) UpsertByStatuteID(statuteID uint, vector []float32) error {
	s.vectors[statuteID] = append([]float32(nil), vector...)
	return nil
}

func (s *memEmbeddingStore) DeleteByStatuteID(statuteID uint) error {
	delete(s.vectors, statuteID)
	return nil
}

func (s *memEmbeddingStore) ListAll() ([]model.EmbeddingRecord, error) {
	var out []model.EmbeddingRecord
	for id, vector := range s.vectors {
		rec := model.EmbeddingRecord{StatuteID: id}
		if err := rec.SetVector(vector); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// hashEncoder derives a deterministic vector from the input text.
type hashEncoder struct {
	dimension int
	err       error
	calls     int
}

func (e *hashEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	digest := sha256.Sum256([]byte(text))
	vector := make([]float32, e.dimension)
	for i := range vector {
		vector[i] = float32(digest[i%len(digest)])/255 + 0.01
	}
	return vector, nil
}

type recordingPublisher struct {
	published []uint
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, statuteID uint) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, statuteID)
	return nil
}

type ingestFixture struct {
	service    *IngestService
	statutes   *memStatuteStore
	embeddings *memEmbeddingStore
	corpus     *rag.CorpusStore
	encoder    *hashEncoder
}

func newIngestFixture(t *testing.T, publisher EmbedJobPublisher) *ingestFixture {
	t.Helper()
	corpus, err := rag.NewCorpusStore(8)
	require.NoError(t, err)
	f := &ingestFixture{
		statutes:   newMemStatuteStore(),
		embeddings: newMemEmbeddingStore(),
		corpus:     corpus,
		encoder:    &hashEncoder{dimension: 8},
	}
	f.service = NewIngestService(f.statutes, f.embeddings, f.corpus, f.encoder, publisher)
	return f
}

func statuteInput(externalID string) StatuteInput {
	return StatuteInput{
		ExternalID: externalID,
		Title:      "Funktionærloven",
		Section:    "2",
		Content:    "Opsigelse fra arbejdsgiverens side skal ske med varsel.",
		Domain:     "ansættelsesret",
	}
}

func TestPutStatute_InlineEncodingMakesSearchable(t *testing.T) {
	f := newIngestFixture(t, nil)

	rec, err := f.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-2"))
	require.NoError(t, err)
	require.NotZero(t, rec.ID)

	assert.Equal(t, 1, f.corpus.Len())
	assert.Contains(t, f.embeddings.vectors, rec.ID)

	query, err := f.encoder.Encode(context.Background(), rec.Title+" "+rec.Content)
	require.NoError(t, err)
	hits := f.corpus.Search(query, nil, 5)
	require.Len(t, hits, 1)
	assert.Equal(t, rec.ID, hits[0].Statute.ID)
}

func TestPutStatute_IdempotentOnExternalID(t *testing.T) {
	f := newIngestFixture(t, nil)

	first, err := f.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-2"))
	require.NoError(t, err)

	updated := statuteInput("retsinfo-1002-2")
	updated.Content = "Opsigelse skal ske med mindst en måneds varsel."
	second, err := f.service.PutStatute(context.Background(), updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same external id updates in place")
	assert.Equal(t, 1, f.corpus.Len())

	stored, err := f.statutes.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Content, stored.Content)
}

func TestPutStatute_ValidatesInput(t *testing.T) {
	f := newIngestFixture(t, nil)

	_, err := f.service.PutStatute(context.Background(), StatuteInput{ExternalID: " ", Content: "tekst"})
	assert.ErrorIs(t, err, ErrStatuteInvalid)

	_, err = f.service.PutStatute(context.Background(), StatuteInput{ExternalID: "id-1", Content: "  "})
	assert.ErrorIs(t, err, ErrStatuteInvalid)
}

func TestPutStatute_PublishesEmbedJobInsteadOfEncoding(t *testing.T) {
	publisher := &recordingPublisher{}
	f := newIngestFixture(t, publisher)

	rec, err := f.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-2"))
	require.NoError(t, err)

	assert.Equal(t, []uint{rec.ID}, publisher.published)
	assert.Zero(t, f.encoder.calls, "encoding deferred to the worker")
	assert.Empty(t, f.embeddings.vectors)
}

func TestPutStatute_BrokerFailureDoesNotFailIngest(t *testing.T) {
	publisher := &recordingPublisher{err: assert.AnError}
	f := newIngestFixture(t, publisher)

	rec, err := f.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-2"))
	require.NoError(t, err, "statute row is durable, encoding can be redone")
	assert.NotZero(t, rec.ID)
}

func TestPutStatute_UpdateDropsPersistedEmbedding(t *testing.T) {
	// Re-ingest with new content while the broker is down, then restart.
	// The old text's vector must not survive into the warm-loaded index.
	f := newIngestFixture(t, nil)

	rec, err := f.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-2"))
	require.NoError(t, err)
	oldVector := append([]float32(nil), f.embeddings.vectors[rec.ID]...)

	brokenPublisher := &recordingPublisher{err: assert.AnError}
	async := NewIngestService(f.statutes, f.embeddings, f.corpus, f.encoder, brokenPublisher)

	updated := statuteInput("retsinfo-1002-2")
	updated.Content = "Helt ny ordlyd om noget andet."
	_, err = async.PutStatute(context.Background(), updated)
	require.NoError(t, err)
	assert.NotContains(t, f.embeddings.vectors, rec.ID)

	fresh, err := rag.NewCorpusStore(8)
	require.NoError(t, err)
	restarted := NewIngestService(f.statutes, f.embeddings, fresh, f.encoder, nil)
	require.NoError(t, restarted.WarmLoad())

	hits := fresh.Search(oldVector, nil, 5)
	assert.Empty(t, hits, "statute stays unsearchable until re-encoded")
}

func TestEncodeStatute_EncoderFailurePropagates(t *testing.T) {
	f := newIngestFixture(t, &recordingPublisher{})
	f.encoder.err = rag.ErrEncodingUnavailable

	rec, err := f.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-2"))
	require.NoError(t, err)

	err = f.service.EncodeStatute(context.Background(), rec.ID)
	assert.ErrorIs(t, err, rag.ErrEncodingUnavailable)
	assert.Empty(t, f.embeddings.vectors)
}

func TestEncodeStatute_UnknownStatute(t *testing.T) {
	f := newIngestFixture(t, nil)

	err := f.service.EncodeStatute(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWarmLoad_RestoresIndexAndSkipsBadDimensions(t *testing.T) {
	seed := newIngestFixture(t, nil)
	rec, err := seed.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-2"))
	require.NoError(t, err)

	// A second statute whose stored vector has a stale dimension.
	stale, err := seed.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-3"))
	require.NoError(t, err)
	seed.embeddings.vectors[stale.ID] = []float32{0.1, 0.2}

	fresh, err := rag.NewCorpusStore(8)
	require.NoError(t, err)
	service := NewIngestService(seed.statutes, seed.embeddings, fresh, seed.encoder, nil)
	require.NoError(t, service.WarmLoad())

	assert.Equal(t, 2, fresh.Len(), "both statutes loaded")

	query, err := seed.encoder.Encode(context.Background(), rec.Title+" "+rec.Content)
	require.NoError(t, err)
	hits := fresh.Search(query, nil, 5)
	require.Len(t, hits, 1, "stale-dimension statute is not searchable")
	assert.Equal(t, rec.ID, hits[0].Statute.ID)
}

func TestReindexAll_EncodesEveryStatute(t *testing.T) {
	publisher := &recordingPublisher{}
	f := newIngestFixture(t, publisher)

	_, err := f.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-2"))
	require.NoError(t, err)
	_, err = f.service.PutStatute(context.Background(), statuteInput("retsinfo-1002-3"))
	require.NoError(t, err)
	require.Empty(t, f.embeddings.vectors)

	require.NoError(t, f.service.ReindexAll(context.Background()))
	assert.Len(t, f.embeddings.vectors, 2)
	assert.Equal(t, 2, f.encoder.calls)
}
