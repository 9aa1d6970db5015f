package rag

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

// TerminalFallback is the generator's availability guarantee: the answer
// of last resort when every backend has failed. Always non-empty, never
// an error.
const TerminalFallback = "Beklager, jeg kan ikke besvare dit spørgsmål lige nu. " +
	"Prøv venligst igen om lidt, eller kontakt en juridisk rådgiver, hvis spørgsmålet haster."

// Backend is one answer-generation strategy. Invoke returns the answer
// text or a *BackendError describing why this backend cannot answer.
type Backend interface {
	Name() string
	Invoke(ctx context.Context, prompt Prompt) (string, error)
}

// Generator walks a fixed priority order of backends and returns the
// first successful answer. Each attempt gets its own timeout; no backend
// is retried within a single call. Unauthorized and BadRequest are
// configuration errors and short-circuit straight to the terminal
// fallback. Generate never returns an error.
type Generator struct {
	backends []Backend
	timeout  time.Duration
}

func NewGenerator(backends []Backend, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{backends: backends, timeout: timeout}
}

// FallbackAnswer returns the terminal fallback text. The orchestrator
// uses it directly when a turn degrades before generation.
func (g *Generator) FallbackAnswer() string { return TerminalFallback }

func (g *Generator) Generate(ctx context.Context, prompt Prompt) string {
	for _, backend := range g.backends {
		answer, err := g.attempt(ctx, backend, prompt)
		if err == nil {
			if answer = strings.TrimSpace(answer); answer != "" {
				return answer
			}
			log.Printf("generator: backend %s returned empty answer, trying next", backend.Name())
			continue
		}

		var berr *BackendError
		if errors.As(err, &berr) {
			log.Printf("generator: %v", berr)
			if berr.configError() {
				break
			}
			continue
		}
		log.Printf("generator: backend %s failed: %v", backend.Name(), err)
	}
	return TerminalFallback
}

func (g *Generator) attempt(ctx context.Context, backend Backend, prompt Prompt) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	answer, err := backend.Invoke(attemptCtx, prompt)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		var berr *BackendError
		if !errors.As(err, &berr) {
			return "", &BackendError{Backend: backend.Name(), Kind: FailureTimeout, Err: err}
		}
	}
	return answer, err
}
