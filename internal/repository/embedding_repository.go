package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"legalrag/internal/model"
)

type EmbeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// UpsertByStatuteID stores the vector for a statute, replacing any
// previous one. At most one active embedding per statute.
func (r *EmbeddingRepository) UpsertByStatuteID(statuteID uint, vector []float32) error {
	rec := model.EmbeddingRecord{StatuteID: statuteID}
	if err := rec.SetVector(vector); err != nil {
		return err
	}

	var existing model.EmbeddingRecord
	err := r.db.Where("statute_id = ?", statuteID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.Create(&rec).Error; err != nil {
			return fmt.Errorf("create embedding failed: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup embedding failed: %w", err)
	}

	existing.Vector = rec.Vector
	if err := r.db.Save(&existing).Error; err != nil {
		return fmt.Errorf("update embedding failed: %w", err)
	}
	return nil
}

func (r *EmbeddingRepository) ListAll() ([]model.EmbeddingRecord, error) {
	var recs []model.EmbeddingRecord
	if err := r.db.Order("statute_id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list embeddings failed: %w", err)
	}
	return recs, nil
}

func (r *EmbeddingRepository) DeleteByStatuteID(statuteID uint) error {
	if err := r.db.Where("statute_id = ?", statuteID).Delete(&model.EmbeddingRecord{}).Error; err != nil {
		return fmt.Errorf("delete embedding failed: %w", err)
	}
	return nil
}
