package chatlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 5 * time.Second

// Store persists chat activity to Postgres
type Store struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// NewStore creates a Postgres-backed chat logger
func NewStore(db *sqlx.DB, log *logrus.Logger) *Store {
	return &Store{db: db, log: log}
}

// CreateConversation opens a conversation row
func (s *Store) CreateConversation(ctx context.Context, clientKey, userAgent string) string {
	if len(userAgent) > 500 {
		userAgent = userAgent[:500]
	}

	id := uuid.New().String()
	query := `
		INSERT INTO conversations (id, client_hash, user_agent, created_at)
		VALUES ($1, $2, $3, $4)
	`

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, id, HashClient(clientKey), userAgent, time.Now()); err != nil {
		s.log.WithError(err).Warn("chat log: create conversation failed")
		return ""
	}
	return id
}

// LogMessage records one message
func (s *Store) LogMessage(ctx context.Context, conversationID, role, content string, responseTimeMs, tokens int) {
	if conversationID == "" {
		return
	}
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	query := `
		INSERT INTO messages (id, conversation_id, role, content, response_time_ms, tokens_estimated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query,
		uuid.New().String(), conversationID, role, content, responseTimeMs, tokens, time.Now()); err != nil {
		s.log.WithError(err).Warn("chat log: message insert failed")
	}
}

// LogSummarization records a history compaction event
func (s *Store) LogSummarization(ctx context.Context, conversationID, summary string, messageCount int) {
	if conversationID == "" {
		return
	}
	if len(summary) > maxSummaryChars {
		summary = summary[:maxSummaryChars]
	}

	query := `
		INSERT INTO summarizations (id, conversation_id, summary_text, message_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query,
		uuid.New().String(), conversationID, summary, messageCount, time.Now()); err != nil {
		s.log.WithError(err).Warn("chat log: summarization insert failed")
	}
}
