package rag

import (
	"context"
	"fmt"
	"strings"
)

// RuleBasedBackend is the local, model-free responder used when hosted
// generation is down. It works off the structured prompt values, never by
// parsing the prompt text. Deterministic by construction.
type RuleBasedBackend struct {
	excerptChars int
}

func NewRuleBasedBackend(excerptChars int) *RuleBasedBackend {
	if excerptChars <= 0 {
		excerptChars = 300
	}
	return &RuleBasedBackend{excerptChars: excerptChars}
}

func (b *RuleBasedBackend) Name() string { return "rule-based" }

func (b *RuleBasedBackend) Invoke(_ context.Context, prompt Prompt) (string, error) {
	if !prompt.Grounded {
		return "", &BackendError{
			Backend: b.Name(),
			Kind:    FailureUnavailable,
			Err:     fmt.Errorf("no provisions to quote"),
		}
	}

	var sb strings.Builder
	sb.WriteString("Jeg kan ikke generere et udførligt svar lige nu, men følgende bestemmelser ser ud til at være relevante for dit spørgsmål:\n")
	for i, cand := range prompt.Candidates {
		st := cand.Statute
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, st.Title))
		if loc := st.Locator(); loc != "" {
			sb.WriteString(", " + loc)
		}
		sb.WriteString(":\n")
		sb.WriteString(Excerpt(st.Content, b.excerptChars))
		sb.WriteString("\n")
	}
	sb.WriteString("\nLæs bestemmelserne i deres fulde ordlyd, og søg professionel rådgivning ved tvivl.")
	return sb.String(), nil
}
