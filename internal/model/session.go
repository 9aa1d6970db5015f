package model

import (
	"encoding/json"
	"time"
)

// ChatSession is an ordered conversation. DomainFilter optionally narrows
// retrieval to a set of legal domains; stored as a JSON array of strings.
type ChatSession struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:256;not null" json:"title"`
	DomainFilter string    `gorm:"size:512" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Domains returns the parsed domain filter; nil means no restriction.
func (s *ChatSession) Domains() []string {
	if s.DomainFilter == "" {
		return nil
	}
	var domains []string
	_ = json.Unmarshal([]byte(s.DomainFilter), &domains)
	return domains
}

// SetDomains stores the domain filter as JSON; empty clears it.
func (s *ChatSession) SetDomains(domains []string) {
	if len(domains) == 0 {
		s.DomainFilter = ""
		return
	}
	b, _ := json.Marshal(domains)
	s.DomainFilter = string(b)
}
