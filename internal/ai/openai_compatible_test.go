package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/rag"
)

func chatServer(t *testing.T, status int, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "nope", status)
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": answer}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestChatBackend_Success(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "Opsigelsesvarslet er en måned.")
	defer srv.Close()

	b := NewChatBackend(ChatConfig{BaseURL: srv.URL, Model: "test"})
	got, err := b.Invoke(context.Background(), rag.Prompt{Text: "prompt"})
	require.NoError(t, err)
	assert.Equal(t, "Opsigelsesvarslet er en måned.", got)
}

func TestChatBackend_StatusClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   rag.FailureKind
	}{
		{http.StatusUnauthorized, rag.FailureUnauthorized},
		{http.StatusForbidden, rag.FailureUnauthorized},
		{http.StatusTooManyRequests, rag.FailureRateLimited},
		{http.StatusBadRequest, rag.FailureBadRequest},
		{http.StatusNotFound, rag.FailureBadRequest},
		{http.StatusRequestTimeout, rag.FailureTimeout},
		{http.StatusGatewayTimeout, rag.FailureTimeout},
		{http.StatusInternalServerError, rag.FailureUnavailable},
		{http.StatusServiceUnavailable, rag.FailureUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			srv := chatServer(t, tc.status, "")
			defer srv.Close()

			b := NewChatBackend(ChatConfig{BaseURL: srv.URL, Model: "test"})
			_, err := b.Invoke(context.Background(), rag.Prompt{Text: "prompt"})

			var berr *rag.BackendError
			require.ErrorAs(t, err, &berr)
			assert.Equal(t, tc.kind, berr.Kind)
		})
	}
}

func TestChatBackend_DeadlineIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect
		// and cancel the request context; otherwise srv.Close hangs.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	b := NewChatBackend(ChatConfig{BaseURL: srv.URL, Model: "test"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := b.Invoke(ctx, rag.Prompt{Text: "prompt"})
	var berr *rag.BackendError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, rag.FailureTimeout, berr.Kind)
}

func TestChatBackend_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	b := NewChatBackend(ChatConfig{BaseURL: srv.URL, Model: "test"})
	_, err := b.Invoke(context.Background(), rag.Prompt{Text: "prompt"})

	var berr *rag.BackendError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, rag.FailureUnavailable, berr.Kind)
}
