package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/model"
)

func sampleCandidates() []Candidate {
	return []Candidate{
		{
			Statute: model.StatuteRecord{
				ID:        1,
				Title:     "Funktionærloven",
				LawNumber: "LBK nr 1002",
				Chapter:   "1",
				Section:   "2",
				Content:   "Opsigelse fra arbejdsgiverens side skal ske med varsel.",
			},
			Score: 0.85,
		},
		{
			Statute: model.StatuteRecord{
				ID:      2,
				Title:   "Lejeloven",
				Section: "171",
				Content: strings.Repeat("lang bestemmelse ", 100),
			},
			Score: 0.42,
		},
	}
}

func TestCompose_Grounded(t *testing.T) {
	c := NewComposer(500)
	p := c.Compose("Hvad er opsigelsesvarslet?", sampleCandidates())

	assert.True(t, p.Grounded)
	assert.Equal(t, "Hvad er opsigelsesvarslet?", p.Query)
	assert.Len(t, p.Candidates, 2)

	assert.Contains(t, p.Text, "Hvad er opsigelsesvarslet?")
	assert.Contains(t, p.Text, "Funktionærloven")
	assert.Contains(t, p.Text, "LBK nr 1002")
	assert.Contains(t, p.Text, "kap. 1, § 2")
	assert.Contains(t, p.Text, "relevans 85%")
	assert.Contains(t, p.Text, "udelukkende ud fra de viste bestemmelser")
	// Rank order preserved in the rendered context.
	assert.Less(t, strings.Index(p.Text, "Funktionærloven"), strings.Index(p.Text, "Lejeloven"))
}

func TestCompose_GroundedTruncatesExcerpt(t *testing.T) {
	c := NewComposer(40)
	p := c.Compose("spørgsmål", sampleCandidates())

	assert.Contains(t, p.Text, truncationMarker)
}

func TestCompose_Fallback(t *testing.T) {
	c := NewComposer(500)
	p := c.Compose("Hvad er opsigelsesvarslet?", nil)

	assert.False(t, p.Grounded)
	assert.Empty(t, p.Candidates)
	assert.Contains(t, p.Text, "Hvad er opsigelsesvarslet?")
	assert.Contains(t, p.Text, "blev ikke fundet relevante lovbestemmelser")
	assert.Contains(t, p.Text, "professionel juridisk rådgivning")
}

func TestCompose_Deterministic(t *testing.T) {
	c := NewComposer(500)
	candidates := sampleCandidates()

	first := c.Compose("spørgsmål", candidates)
	second := c.Compose("spørgsmål", candidates)
	require.Equal(t, first, second)

	assert.Equal(t, c.Compose("spørgsmål", nil), c.Compose("spørgsmål", nil))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "kort", Excerpt("kort", 10))
	assert.Equal(t, "kort", Excerpt("kort", 0))

	long := strings.Repeat("å", 20)
	got := Excerpt(long, 10)
	assert.Equal(t, strings.Repeat("å", 10)+truncationMarker, got)
}
