package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"legalrag/internal/model"
)

type StatuteRepository struct {
	db *gorm.DB
}

func NewStatuteRepository(db *gorm.DB) *StatuteRepository {
	return &StatuteRepository{db: db}
}

// UpsertByExternalID inserts the statute or, when a row with the same
// external source identifier exists, replaces its content in place. The
// ingestion collaborator may re-deliver documents; this keeps the corpus
// free of duplicates. Returns the stored record and whether it was new.
func (r *StatuteRepository) UpsertByExternalID(rec *model.StatuteRecord) (bool, error) {
	var existing model.StatuteRecord
	err := r.db.Where("external_id = ?", rec.ExternalID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.Create(rec).Error; err != nil {
			return false, fmt.Errorf("create statute failed: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup statute by external id failed: %w", err)
	}

	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	if err := r.db.Save(rec).Error; err != nil {
		return false, fmt.Errorf("update statute failed: %w", err)
	}
	return false, nil
}

func (r *StatuteRepository) GetByID(id uint) (*model.StatuteRecord, error) {
	var rec model.StatuteRecord
	err := r.db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get statute failed: %w", err)
	}
	return &rec, nil
}

func (r *StatuteRepository) ListAll() ([]model.StatuteRecord, error) {
	var recs []model.StatuteRecord
	if err := r.db.Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list statutes failed: %w", err)
	}
	return recs, nil
}
