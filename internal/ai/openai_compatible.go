package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"legalrag/internal/rag"
)

// ChatConfig holds API settings for a hosted chat-completions backend
// (OpenAI-compatible).
type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatBackend is the hosted answer backend. Failures are classified into
// the generator's failure kinds from the HTTP status, so the fallback
// chain can tell configuration errors from transient ones.
type ChatBackend struct {
	cfg        ChatConfig
	httpClient *http.Client
}

func NewChatBackend(cfg ChatConfig) *ChatBackend {
	return &ChatBackend{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

func (b *ChatBackend) Name() string { return "chat:" + b.cfg.Model }

func (b *ChatBackend) Invoke(ctx context.Context, prompt rag.Prompt) (string, error) {
	reqBody := map[string]interface{}{
		"model": b.cfg.Model,
		"messages": []chatMessage{
			{Role: "system", Content: "Du er en præcis og hjælpsom juridisk assistent."},
			{Role: "user", Content: prompt.Text},
		},
		"stream": false,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", b.failure(rag.FailureBadRequest, fmt.Errorf("marshal request failed: %w", err))
	}

	url := strings.TrimRight(b.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", b.failure(rag.FailureBadRequest, fmt.Errorf("build request failed: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", b.failure(rag.FailureTimeout, err)
		}
		return "", b.failure(rag.FailureUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", b.failure(rag.FailureUnavailable, fmt.Errorf("read response failed: %w", err))
	}
	if resp.StatusCode >= 300 {
		return "", b.failure(classifyStatus(resp.StatusCode),
			fmt.Errorf("status %d: %s", resp.StatusCode, string(raw)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", b.failure(rag.FailureUnavailable, fmt.Errorf("parse response failed: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", b.failure(rag.FailureUnavailable, fmt.Errorf("empty choices in response"))
	}
	return parsed.Choices[0].Message.Content, nil
}

func (b *ChatBackend) failure(kind rag.FailureKind, err error) *rag.BackendError {
	return &rag.BackendError{Backend: b.Name(), Kind: kind, Err: err}
}

func classifyStatus(status int) rag.FailureKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return rag.FailureUnauthorized
	case status == http.StatusTooManyRequests:
		return rag.FailureRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return rag.FailureTimeout
	case status >= 400 && status < 500:
		return rag.FailureBadRequest
	default:
		return rag.FailureUnavailable
	}
}
