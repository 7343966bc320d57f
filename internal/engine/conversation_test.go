package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus/argus-backend/internal/providers"
)

// fakeProvider is a scriptable backend for tests
type fakeProvider struct {
	mu            sync.Mutex
	completeFn    func(req providers.CompletionRequest) (string, error)
	streamFn      func(ctx context.Context, req providers.CompletionRequest) (<-chan providers.StreamChunk, error)
	completeCalls []providers.CompletionRequest
	streamCalls   []providers.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req providers.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.completeCalls = append(f.completeCalls, req)
	f.mu.Unlock()
	if f.completeFn == nil {
		return "summary text", nil
	}
	return f.completeFn(req)
}

func (f *fakeProvider) StreamComplete(ctx context.Context, req providers.CompletionRequest) (<-chan providers.StreamChunk, error) {
	f.mu.Lock()
	f.streamCalls = append(f.streamCalls, req)
	f.mu.Unlock()
	if f.streamFn == nil {
		out := make(chan providers.StreamChunk, 2)
		out <- providers.StreamChunk{Delta: "ok"}
		out <- providers.StreamChunk{FinishReason: "stop"}
		close(out)
		return out, nil
	}
	return f.streamFn(ctx, req)
}

func filledConversation(n int) *Conversation {
	conv := NewConversation("system instruction", 16, 6)
	for i := 0; conv.Len() < n; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		conv.Append(role, fmt.Sprintf("message %d", i))
	}
	return conv
}

func TestMaybeCompactBelowThresholdIsNoOp(t *testing.T) {
	conv := filledConversation(15)
	p := &fakeProvider{}
	before := conv.Messages()

	_, compacted, err := conv.MaybeCompact(context.Background(), p, "m")
	require.NoError(t, err)
	assert.False(t, compacted)
	assert.Equal(t, before, conv.Messages())
	assert.Empty(t, p.completeCalls, "no backend call below the threshold")
}

func TestMaybeCompactRebuildsAsSystemSummaryRecent(t *testing.T) {
	conv := filledConversation(16)
	recentBefore := conv.Messages()[16-6:]
	p := &fakeProvider{completeFn: func(providers.CompletionRequest) (string, error) {
		return "a concise technical brief", nil
	}}

	summary, compacted, err := conv.MaybeCompact(context.Background(), p, "m")
	require.NoError(t, err)
	require.True(t, compacted)
	assert.Equal(t, "a concise technical brief", summary)

	msgs := conv.Messages()
	require.Len(t, msgs, 2+6)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "system instruction", msgs[0].Content, "system message untouched")
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.True(t, strings.HasPrefix(msgs[1].Content, summaryPrefix))
	assert.Equal(t, recentBefore, msgs[2:], "recent tail survives verbatim")
}

func TestMaybeCompactFailureLeavesHistoryUntouched(t *testing.T) {
	conv := filledConversation(16)
	before := conv.Messages()
	p := &fakeProvider{completeFn: func(providers.CompletionRequest) (string, error) {
		return "", errors.New("backend down")
	}}

	_, compacted, err := conv.MaybeCompact(context.Background(), p, "m")
	assert.Error(t, err)
	assert.False(t, compacted)
	assert.Equal(t, before, conv.Messages())
}

func TestRecompactionCarriesPriorSummaryToTheBackend(t *testing.T) {
	conv := filledConversation(16)
	p := &fakeProvider{completeFn: func(providers.CompletionRequest) (string, error) {
		return "FIRST-BRIEF", nil
	}}

	_, compacted, err := conv.MaybeCompact(context.Background(), p, "m")
	require.NoError(t, err)
	require.True(t, compacted)

	// Grow the history until the next compaction pass; the prior summary
	// now sits inside the middle block.
	for conv.Len() < 16 {
		conv.Append("user", "more")
		conv.Append("assistant", "reply")
	}

	p.completeFn = func(req providers.CompletionRequest) (string, error) {
		prompt := req.Messages[0].Content
		assert.Contains(t, prompt, "FIRST-BRIEF", "prior summary must reach the backend")
		assert.Contains(t, prompt, "merge its facts", "prompt must carry the merge instruction")
		return "SECOND-BRIEF", nil
	}

	summary, compacted, err := conv.MaybeCompact(context.Background(), p, "m")
	require.NoError(t, err)
	require.True(t, compacted)
	assert.Equal(t, "SECOND-BRIEF", summary)
	assert.Equal(t, "system", conv.Messages()[0].Role)
}

func TestResetKeepsOnlySystemMessage(t *testing.T) {
	conv := filledConversation(10)
	conv.Reset()

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "system", msgs[0].Role)
}
