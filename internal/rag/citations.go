package rag

import "legalrag/internal/model"

// BuildCitations maps candidates to citation records, one per candidate,
// preserving rank order. Scores are copied verbatim; the snippet is a
// bounded prefix of the statute content. A pure, order-preserving map.
func BuildCitations(candidates []Candidate, snippetChars int) []model.Citation {
	if snippetChars <= 0 {
		snippetChars = 200
	}
	citations := make([]model.Citation, len(candidates))
	for i, c := range candidates {
		citations[i] = model.Citation{
			StatuteID:      c.Statute.ID,
			RelevanceScore: c.Score,
			Snippet:        Excerpt(c.Statute.Content, snippetChars),
		}
	}
	return citations
}
