package rag

import (
	"fmt"
	"strings"
)

const (
	defaultExcerptChars = 500
	truncationMarker    = " [...]"
)

// Prompt carries the composed prompt text together with the structured
// values it was built from, so downstream consumers (rule-based backends,
// the citation builder) never parse the question or context back out of
// the text.
type Prompt struct {
	Text       string
	Query      string
	Candidates []Candidate
	Grounded   bool
}

// Composer builds grounded or fallback instruction prompts. Both variants
// are deterministic functions of their inputs.
type Composer struct {
	excerptChars int
}

// NewComposer creates a Composer that bounds each provision excerpt to
// excerptChars runes; <= 0 selects the default (500).
func NewComposer(excerptChars int) *Composer {
	if excerptChars <= 0 {
		excerptChars = defaultExcerptChars
	}
	return &Composer{excerptChars: excerptChars}
}

// Compose emits a grounded prompt when candidates exist, otherwise a
// fallback prompt that answers from general knowledge and says so.
func (c *Composer) Compose(query string, candidates []Candidate) Prompt {
	if len(candidates) == 0 {
		return Prompt{
			Text:     c.fallbackText(query),
			Query:    query,
			Grounded: false,
		}
	}
	return Prompt{
		Text:       c.groundedText(query, candidates),
		Query:      query,
		Candidates: candidates,
		Grounded:   true,
	}
}

func (c *Composer) groundedText(query string, candidates []Candidate) string {
	var sb strings.Builder

	sb.WriteString("Du er en juridisk assistent, der besvarer spørgsmål om dansk lovgivning.\n\n")
	sb.WriteString("Spørgsmål: ")
	sb.WriteString(query)
	sb.WriteString("\n\nRelevante lovbestemmelser:\n")

	for i, cand := range candidates {
		st := cand.Statute
		sb.WriteString(fmt.Sprintf("\n[%d] %s", i+1, st.Title))
		if st.LawNumber != "" {
			sb.WriteString(" (" + st.LawNumber + ")")
		}
		if loc := st.Locator(); loc != "" {
			sb.WriteString(", " + loc)
		}
		sb.WriteString(fmt.Sprintf(" — relevans %.0f%%\n", cand.Score*100))
		sb.WriteString(Excerpt(st.Content, c.excerptChars))
		sb.WriteString("\n")
	}

	sb.WriteString("\nInstruktioner:\n")
	sb.WriteString("- Svar udelukkende ud fra de viste bestemmelser.\n")
	sb.WriteString("- Henvis til de konkrete paragraffer, du bygger svaret på.\n")
	sb.WriteString("- Gør det tydeligt, hvis bestemmelserne ikke giver et sikkert svar.\n")
	sb.WriteString("- Strukturer svaret i korte, letlæselige afsnit.\n")
	return sb.String()
}

func (c *Composer) fallbackText(query string) string {
	var sb strings.Builder

	sb.WriteString("Du er en juridisk assistent, der besvarer spørgsmål om dansk lovgivning.\n\n")
	sb.WriteString("Spørgsmål: ")
	sb.WriteString(query)
	sb.WriteString("\n\nDer blev ikke fundet relevante lovbestemmelser til dette spørgsmål.\n")
	sb.WriteString("\nInstruktioner:\n")
	sb.WriteString("- Svar ud fra almen juridisk viden.\n")
	sb.WriteString("- Gør det tydeligt, at svaret ikke bygger på konkrete kildebestemmelser.\n")
	sb.WriteString("- Anbefal at søge professionel juridisk rådgivning.\n")
	return sb.String()
}

// Excerpt returns at most limit runes of text, appending a truncation
// marker when content was cut.
func Excerpt(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncationMarker
}
