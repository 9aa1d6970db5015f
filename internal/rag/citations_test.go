package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/model"
)

func TestBuildCitations_OrderAndScoresPreserved(t *testing.T) {
	candidates := []Candidate{
		{Statute: model.StatuteRecord{ID: 3, Content: "første"}, Score: 0.851234567},
		{Statute: model.StatuteRecord{ID: 1, Content: "anden"}, Score: 0.42},
		{Statute: model.StatuteRecord{ID: 7, Content: "tredje"}, Score: 0.42},
	}

	got := BuildCitations(candidates, 200)
	require.Len(t, got, len(candidates))
	for i, c := range got {
		assert.Equal(t, candidates[i].Statute.ID, c.StatuteID)
		assert.Equal(t, candidates[i].Score, c.RelevanceScore, "score copied verbatim, no rounding")
	}
}

func TestBuildCitations_SnippetBounded(t *testing.T) {
	candidates := []Candidate{
		{Statute: model.StatuteRecord{ID: 1, Content: strings.Repeat("x", 500)}, Score: 0.5},
	}

	got := BuildCitations(candidates, 100)
	require.Len(t, got, 1)
	assert.Equal(t, strings.Repeat("x", 100)+truncationMarker, got[0].Snippet)
}

func TestBuildCitations_Empty(t *testing.T) {
	got := BuildCitations(nil, 200)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
