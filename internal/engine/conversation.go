package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/argus/argus-backend/internal/providers"
)

// summaryPrefix marks a compaction summary inside the history, so a later
// compaction pass can tell the backend to merge rather than drop it.
const summaryPrefix = "[CONTEXT SUMMARY]: "

const summaryInstruction = `Summarize the following conversation history into a concise but detailed technical brief for context preservation. Focus on key engineering findings, decisions made and data insights. If the transcript already contains a block starting with "[CONTEXT SUMMARY]:", merge its facts into the new brief instead of dropping them.

Conversation to summarize:
`

// Conversation is an ordered, append-only message history. The first
// message is always the system instruction; compaction replaces the middle
// of the sequence with one synthesized summary and never touches the
// system message. Not safe for concurrent use: the owning session
// serializes access.
type Conversation struct {
	messages   []providers.Message
	threshold  int // compact once the history reaches this length
	keepRecent int // messages at the tail that survive compaction verbatim
}

// NewConversation creates a history seeded with the system instruction
func NewConversation(systemPrompt string, threshold, keepRecent int) *Conversation {
	c := &Conversation{
		threshold:  threshold,
		keepRecent: keepRecent,
	}
	c.messages = []providers.Message{{Role: "system", Content: systemPrompt}}
	return c
}

// Append adds a message to the tail
func (c *Conversation) Append(role, content string) {
	c.messages = append(c.messages, providers.Message{Role: role, Content: content})
}

// Messages returns a copy of the history in conversational order
func (c *Conversation) Messages() []providers.Message {
	out := make([]providers.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages including the system instruction
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Reset drops everything except the system instruction
func (c *Conversation) Reset() {
	c.messages = c.messages[:1]
}

// truncate rolls the history back to n messages. Used to erase a turn that
// was cancelled mid-stream.
func (c *Conversation) truncate(n int) {
	if n >= 1 && n <= len(c.messages) {
		c.messages = c.messages[:n]
	}
}

// MaybeCompact compresses the middle of the history through a one-shot
// completion once the threshold is reached. On success the history becomes
// [system, summary] + recent; the summary is an assistant message framed as
// an acknowledgment. On any failure the history is left untouched and the
// error is returned for logging only; compaction is best-effort.
func (c *Conversation) MaybeCompact(ctx context.Context, p providers.Provider, model string) (string, bool, error) {
	if len(c.messages) < c.threshold {
		return "", false, nil
	}
	if len(c.messages) <= c.keepRecent+1 {
		return "", false, nil
	}

	middle := c.messages[1 : len(c.messages)-c.keepRecent]
	recent := c.messages[len(c.messages)-c.keepRecent:]

	var transcript strings.Builder
	for _, msg := range middle {
		fmt.Fprintf(&transcript, "%s: %s\n", roleLabel(msg.Role), msg.Content)
	}

	text, err := p.Complete(ctx, providers.CompletionRequest{
		Model: model,
		Messages: []providers.Message{
			{Role: "user", Content: summaryInstruction + transcript.String()},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("history compaction: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, errors.New("history compaction: backend returned an empty summary")
	}

	summary := providers.Message{
		Role:    "assistant",
		Content: summaryPrefix + text + "\nAcknowledged. I have preserved that technical context for our continuing analysis.",
	}

	rebuilt := make([]providers.Message, 0, 2+len(recent))
	rebuilt = append(rebuilt, c.messages[0], summary)
	rebuilt = append(rebuilt, recent...)
	c.messages = rebuilt

	return text, true, nil
}

func roleLabel(role string) string {
	switch role {
	case "assistant":
		return "Assistant"
	case "system":
		return "System"
	default:
		return "User"
	}
}
