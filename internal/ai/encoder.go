package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"legalrag/internal/rag"
)

// EncoderConfig holds API settings for the text-embedding endpoint
// (OpenAI-compatible). Dimension is the fixed vector length D every
// response must match.
type EncoderConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

// Encoder converts text into dense vectors via the embeddings API. It is
// a ready handle returned by NewEncoder; there is no lazy global model
// state, so concurrent callers are safe.
type Encoder struct {
	cfg        EncoderConfig
	httpClient *http.Client
}

func NewEncoder(cfg EncoderConfig) *Encoder {
	return &Encoder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Encode returns the embedding vector for the given text. Input is
// whitespace-normalized first, so two inputs differing only in spacing
// encode identically. Any transport or model failure surfaces as
// rag.ErrEncodingUnavailable.
func (e *Encoder) Encode(ctx context.Context, text string) ([]float32, error) {
	text = NormalizeText(text)
	if text == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}

	reqBody := map[string]interface{}{
		"model": e.cfg.Model,
		"input": text,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request failed: %w", err)
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build embedding request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrEncodingUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", rag.ErrEncodingUnavailable, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", rag.ErrEncodingUnavailable, resp.StatusCode, string(raw))
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", rag.ErrEncodingUnavailable, err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding in response", rag.ErrEncodingUnavailable)
	}

	vector := parsed.Data[0].Embedding
	if e.cfg.Dimension > 0 && len(vector) != e.cfg.Dimension {
		return nil, fmt.Errorf("%w: model returned %d dimensions, want %d",
			rag.ErrDimensionMismatch, len(vector), e.cfg.Dimension)
	}
	return vector, nil
}

// NormalizeText collapses whitespace runs to single spaces and trims the
// ends, so embedding input is canonical.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
