package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StatuteRecord is a single statutory provision as delivered by the
// ingestion pipeline. Records are immutable once published; re-ingesting
// the same ExternalID replaces the row instead of duplicating it.
type StatuteRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExternalID  string    `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	Title       string    `gorm:"size:512;not null" json:"title"`
	LawNumber   string    `gorm:"size:64" json:"law_number"`
	Chapter     string    `gorm:"size:32" json:"chapter"`
	Section     string    `gorm:"size:32" json:"section"`
	Paragraph   string    `gorm:"size:32" json:"paragraph"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Domain      string    `gorm:"size:64;index" json:"domain"`
	SourceURL   string    `gorm:"size:512" json:"source_url"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}

// Locator renders the chapter/section/paragraph reference in the form
// used by Danish legal citations, e.g. "kap. 3, § 12, stk. 2".
func (s *StatuteRecord) Locator() string {
	var parts []string
	if s.Chapter != "" {
		parts = append(parts, "kap. "+s.Chapter)
	}
	if s.Section != "" {
		parts = append(parts, "§ "+s.Section)
	}
	if s.Paragraph != "" {
		parts = append(parts, "stk. "+s.Paragraph)
	}
	return strings.Join(parts, ", ")
}

// EmbeddingRecord holds the dense vector for one statute. At most one
// active record per statute; a statute without one is simply not
// searchable yet. Vector is stored as a JSON array of float32 for
// portability across MySQL versions.
type EmbeddingRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StatuteID uint      `gorm:"not null;uniqueIndex" json:"statute_id"`
	Vector    string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// VectorSlice returns the parsed vector; nil on empty or parse error.
func (e *EmbeddingRecord) VectorSlice() []float32 {
	if e.Vector == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(e.Vector), &v)
	return v
}

// SetVector stores the vector as JSON.
func (e *EmbeddingRecord) SetVector(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("embedding vector is empty")
	}
	b, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal embedding vector failed: %w", err)
	}
	e.Vector = string(b)
	return nil
}
