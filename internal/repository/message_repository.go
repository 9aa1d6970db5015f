package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"legalrag/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists the message and its citations in one transaction; gorm
// writes the association rows with the message.
func (r *MessageRepository) Create(message *model.ChatMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(id uint) (*model.ChatMessage, error) {
	var message model.ChatMessage
	err := r.db.Preload("Citations").First(&message, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message failed: %w", err)
	}
	return &message, nil
}

// ListBySessionID returns the session's messages in creation order, with
// citations loaded. The id tiebreak keeps ordering deterministic when two
// messages share a timestamp.
func (r *MessageRepository) ListBySessionID(sessionID uint) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.Preload("Citations").
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}
