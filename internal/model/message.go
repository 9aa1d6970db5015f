package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn half in a session. Messages are immutable after
// creation; regenerating an answer appends a new assistant message rather
// than rewriting history.
type ChatMessage struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	SessionID uint       `gorm:"not null;index" json:"session_id"`
	Role      string     `gorm:"size:16;not null;index" json:"role"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Citations []Citation `gorm:"foreignKey:MessageID" json:"citations"`
	CreatedAt time.Time  `json:"created_at"`
}

// Citation points an assistant answer back at the provision that grounded
// it. RelevanceScore is copied verbatim from the retrieval candidate.
type Citation struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	MessageID      uint    `gorm:"not null;index" json:"-"`
	StatuteID      uint    `gorm:"not null;index" json:"statute_id"`
	RelevanceScore float64 `gorm:"not null" json:"relevance_score"`
	Snippet        string  `gorm:"size:1024" json:"snippet"`
}
