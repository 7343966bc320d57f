// Package chatlog records conversations for operator-side diagnostics.
// Every method swallows its own errors: logging is fire-and-forget and the
// pipeline must keep working when the store is down or absent.
package chatlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

const (
	maxContentChars = 10000
	maxSummaryChars = 5000
)

// Logger records conversation activity
type Logger interface {
	// CreateConversation opens a conversation row and returns its id, or
	// "" when logging is unavailable.
	CreateConversation(ctx context.Context, clientKey, userAgent string) string

	// LogMessage records one user or assistant message. responseTimeMs and
	// tokens may be zero when not applicable.
	LogMessage(ctx context.Context, conversationID, role, content string, responseTimeMs, tokens int)

	// LogSummarization records a history compaction event
	LogSummarization(ctx context.Context, conversationID, summary string, messageCount int)
}

// HashClient hashes a client key so no raw network address is stored
func HashClient(key string) string {
	if key == "" {
		return "unknown"
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// Nop discards everything; used when no database is configured
type Nop struct{}

func (Nop) CreateConversation(context.Context, string, string) string { return "" }

func (Nop) LogMessage(context.Context, string, string, string, int, int) {}

func (Nop) LogSummarization(context.Context, string, string, int) {}
