package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"legalrag/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.ChatSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(id uint) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.First(&session, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) List() ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	if err := r.db.Order("updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return sessions, nil
}

// Touch bumps the session's last-activity timestamp.
func (r *SessionRepository) Touch(id uint) error {
	err := r.db.Model(&model.ChatSession{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("touch session failed: %w", err)
	}
	return nil
}
