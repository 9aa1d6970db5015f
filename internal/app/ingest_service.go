package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"legalrag/internal/model"
	"legalrag/internal/rag"
)

var ErrStatuteInvalid = errors.New("statute record is invalid")

type StatuteStore interface {
	UpsertByExternalID(rec *model.StatuteRecord) (bool, error)
	GetByID(id uint) (*model.StatuteRecord, error)
	ListAll() ([]model.StatuteRecord, error)
}

type EmbeddingStore interface {
	UpsertByStatuteID(statuteID uint, vector []float32) error
	ListAll() ([]model.EmbeddingRecord, error)
	DeleteByStatuteID(statuteID uint) error
}

// EmbedJobPublisher hands a statute off for asynchronous encoding. A nil
// publisher makes the ingest service encode inline.
type EmbedJobPublisher interface {
	Publish(ctx context.Context, statuteID uint) error
}

// IngestService is the corpus ingestion boundary: it upserts statute
// records (idempotent on the external source identifier), keeps the
// in-memory index in step with the database, and schedules embedding
// computation.
type IngestService struct {
	statutes   StatuteStore
	embeddings EmbeddingStore
	corpus     *rag.CorpusStore
	encoder    rag.Encoder
	publisher  EmbedJobPublisher
}

func NewIngestService(
	statutes StatuteStore,
	embeddings EmbeddingStore,
	corpus *rag.CorpusStore,
	encoder rag.Encoder,
	publisher EmbedJobPublisher,
) *IngestService {
	return &IngestService{
		statutes:   statutes,
		embeddings: embeddings,
		corpus:     corpus,
		encoder:    encoder,
		publisher:  publisher,
	}
}

type StatuteInput struct {
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	LawNumber   string    `json:"law_number"`
	Chapter     string    `json:"chapter"`
	Section     string    `json:"section"`
	Paragraph   string    `json:"paragraph"`
	Content     string    `json:"content"`
	Domain      string    `json:"domain"`
	SourceURL   string    `json:"source_url"`
	LastUpdated time.Time `json:"last_updated"`
}

// PutStatute stores the statute and schedules its embedding. Re-inserting
// an external id updates the existing record; its old vector is dropped
// until re-encoding finishes, during which the statute is simply not
// searchable.
func (s *IngestService) PutStatute(ctx context.Context, input StatuteInput) (*model.StatuteRecord, error) {
	if strings.TrimSpace(input.ExternalID) == "" || strings.TrimSpace(input.Content) == "" {
		return nil, ErrStatuteInvalid
	}

	rec := &model.StatuteRecord{
		ExternalID:  strings.TrimSpace(input.ExternalID),
		Title:       strings.TrimSpace(input.Title),
		LawNumber:   input.LawNumber,
		Chapter:     input.Chapter,
		Section:     input.Section,
		Paragraph:   input.Paragraph,
		Content:     input.Content,
		Domain:      input.Domain,
		SourceURL:   input.SourceURL,
		LastUpdated: input.LastUpdated,
	}
	created, err := s.statutes.UpsertByExternalID(rec)
	if err != nil {
		return nil, err
	}
	if !created {
		// The stored vector described the previous text. Drop it before
		// scheduling re-encoding, so a lost embed job cannot let a later
		// warm load re-attach it to the new content.
		if err := s.embeddings.DeleteByStatuteID(rec.ID); err != nil {
			return nil, err
		}
	}
	s.corpus.PutStatute(*rec)

	if s.publisher == nil {
		if err := s.EncodeStatute(ctx, rec.ID); err != nil {
			return nil, err
		}
		return rec, nil
	}
	if err := s.publisher.Publish(ctx, rec.ID); err != nil {
		// The statute row is durable; encoding can be redone by a later
		// reindex, so a broker hiccup does not fail the ingest.
		log.Printf("ingest: publish embed job for statute %d (created=%v) failed: %v", rec.ID, created, err)
	}
	return rec, nil
}

// EncodeStatute computes and stores the embedding for one statute, then
// makes it visible to search in a single index replace.
func (s *IngestService) EncodeStatute(ctx context.Context, statuteID uint) error {
	rec, err := s.statutes.GetByID(statuteID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("encode statute %d: %w", statuteID, ErrNotFound)
	}

	vector, err := s.encoder.Encode(ctx, rec.Title+" "+rec.Content)
	if err != nil {
		return fmt.Errorf("encode statute %d failed: %w", statuteID, err)
	}
	if err := s.embeddings.UpsertByStatuteID(rec.ID, vector); err != nil {
		return err
	}
	return s.corpus.UpsertEmbedding(rec.ID, vector)
}

// WarmLoad fills the in-memory index from the database at startup.
// Statutes whose persisted vector no longer matches the configured
// dimension are loaded without one and logged; they need re-encoding.
func (s *IngestService) WarmLoad() error {
	statutes, err := s.statutes.ListAll()
	if err != nil {
		return err
	}
	for _, rec := range statutes {
		s.corpus.PutStatute(rec)
	}

	embeddings, err := s.embeddings.ListAll()
	if err != nil {
		return err
	}
	loaded := 0
	for _, emb := range embeddings {
		if err := s.corpus.UpsertEmbedding(emb.StatuteID, emb.VectorSlice()); err != nil {
			log.Printf("ingest: skip stored embedding for statute %d: %v", emb.StatuteID, err)
			continue
		}
		loaded++
	}
	log.Printf("ingest: warm-loaded %d statutes, %d searchable", len(statutes), loaded)
	return nil
}

// ReindexAll re-encodes every statute synchronously. Used by the offline
// ingest tool after a model or dimension change.
func (s *IngestService) ReindexAll(ctx context.Context) error {
	statutes, err := s.statutes.ListAll()
	if err != nil {
		return err
	}
	for _, rec := range statutes {
		if err := s.EncodeStatute(ctx, rec.ID); err != nil {
			return err
		}
	}
	return nil
}
