package chatlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashClientIsStableAndBounded(t *testing.T) {
	a := HashClient("203.0.113.7")
	b := HashClient("203.0.113.7")
	c := HashClient("203.0.113.8")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
	assert.NotContains(t, a, ".", "no raw address leaks into the hash")
}

func TestHashClientEmptyKey(t *testing.T) {
	assert.Equal(t, "unknown", HashClient(""))
}

func TestNopLoggerIsSafe(t *testing.T) {
	var l Logger = Nop{}

	id := l.CreateConversation(context.Background(), "client", "agent")
	assert.Empty(t, id)
	l.LogMessage(context.Background(), id, "user", "hello", 0, 0)
	l.LogSummarization(context.Background(), id, "summary", 3)
}
