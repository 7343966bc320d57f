package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus/argus-backend/internal/config"
	"github.com/argus/argus-backend/internal/providers"
)

const streamBody = `data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"hello"}}]}` + "\n\n" +
	`data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}` + "\n\n" +
	"data: [DONE]\n\n"

func newStreamProvider(t *testing.T) (*Provider, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(streamBody))
	}))

	p, err := NewProvider(config.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "test-model",
	})
	require.NoError(t, err)
	return p, srv
}

// The pipeline stops reading at the first finish marker and never drains
// the trailing end-of-stream chunk. The provider goroutine must still exit
// once the caller's context goes away instead of blocking on that send.
func TestStreamCompleteExitsWhenConsumerStopsAtFinish(t *testing.T) {
	p, srv := newStreamProvider(t)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chunks, err := p.StreamComplete(ctx, providers.CompletionRequest{
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	var text string
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		text += chunk.Delta
		if chunk.FinishReason != "" {
			break
		}
	}
	assert.Equal(t, "hello", text)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-chunks:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("stream goroutine still sending after the consumer went away")
		}
	}
}

func TestStreamCompleteDeliversFullStream(t *testing.T) {
	p, srv := newStreamProvider(t)
	defer srv.Close()

	chunks, err := p.StreamComplete(context.Background(), providers.CompletionRequest{
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	var text, finish string
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		text += chunk.Delta
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}
	assert.Equal(t, "hello", text)
	assert.Equal(t, "stop", finish)
}

func TestCompleteMapsQuotaFailuresToRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	p, err := NewProvider(config.ProviderConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), providers.CompletionRequest{
		Messages: []providers.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorIs(t, err, providers.ErrRateLimited)
}
