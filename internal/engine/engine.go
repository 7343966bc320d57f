package engine

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/argus/argus-backend/internal/augment"
	"github.com/argus/argus-backend/internal/chatlog"
	"github.com/argus/argus-backend/internal/providers"
	"github.com/argus/argus-backend/internal/ratelimit"
	"github.com/argus/argus-backend/internal/safety"
)

// Fixed texts surfaced in-band over the fragment stream. A plain text
// channel has no side channel for structured errors, so every failure
// class resolves to one of these.
const (
	RefusalInjection = "Safety protocol engaged: direct instruction overrides detected. I am fixed to my core analytical protocol."
	RefusalRisk      = "I can't help with that. The request falls outside what this assistant is allowed to discuss."
	SentinelCapacity = "The analysis backend is at capacity right now. Please retry in a moment."
	SentinelGeneric  = "An analytical error occurred while generating the response. Please try again."
	TokenWarning     = "\n[[TOKEN_WARNING]]"
)

// Options configures the pipeline
type Options struct {
	SystemPrompt     string
	Model            string
	HistoryThreshold int
	KeepRecent       int
	TarpitMin        time.Duration
	TarpitMax        time.Duration
}

// DefaultOptions returns the production pipeline settings
func DefaultOptions() Options {
	return Options{
		HistoryThreshold: 16,
		KeepRecent:       6,
		TarpitMin:        1500 * time.Millisecond,
		TarpitMax:        3500 * time.Millisecond,
	}
}

// Engine is the guarded conversation pipeline: admission, safety gate,
// history compaction, context augmentation, streamed generation and token
// accounting, in that order. One conversation per client key; requests for
// the same key are serialized, different keys run in parallel.
type Engine struct {
	provider providers.Provider
	limiter  *ratelimit.Limiter
	gate     *safety.Gate
	aug      *augment.Augmenter
	chatLog  chatlog.Logger
	log      *logrus.Logger
	opts     Options

	mu       sync.Mutex
	sessions map[string]*session
}

// session holds one client's conversation. Its mutex is the per-client
// serialization point required by the shared-state model.
type session struct {
	mu    sync.Mutex
	conv  *Conversation
	logID string
}

// New creates an engine
func New(provider providers.Provider, limiter *ratelimit.Limiter, gate *safety.Gate, aug *augment.Augmenter, chatLog chatlog.Logger, log *logrus.Logger, opts Options) *Engine {
	if chatLog == nil {
		chatLog = chatlog.Nop{}
	}
	return &Engine{
		provider: provider,
		limiter:  limiter,
		gate:     gate,
		aug:      aug,
		chatLog:  chatLog,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// HandleMessage runs one user message through the pipeline and returns a
// finite stream of text fragments. Admission denials and safety refusals
// come back as a single in-band fragment; the backend is never called for
// them and history is never touched.
func (e *Engine) HandleMessage(ctx context.Context, clientID, rawText string) <-chan string {
	out := make(chan string, 2)

	if ok, reason := e.limiter.Admit(clientID); !ok {
		e.log.WithFields(logrus.Fields{"client": chatlog.HashClient(clientID), "reason": reason}).Info("request denied")
		out <- reason
		close(out)
		return out
	}

	if e.gate.Injection.Match(rawText) {
		e.log.WithField("client", chatlog.HashClient(clientID)).Warn("prompt injection attempt blocked")
		out <- RefusalInjection
		close(out)
		return out
	}
	if e.gate.Risk.Match(rawText) {
		e.log.WithField("client", chatlog.HashClient(clientID)).Warn("risk content blocked")
		out <- RefusalRisk
		close(out)
		return out
	}

	go e.run(ctx, e.session(clientID), clientID, rawText, out)
	return out
}

// Reset reinitializes a client's conversation to the single system message.
// The client's rate-limit record is deliberately left alone.
func (e *Engine) Reset(clientID string) {
	sess := e.session(clientID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.conv.Reset()
}

func (e *Engine) session(clientID string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.sessions[clientID]
	if !ok {
		sess = &session{
			conv: NewConversation(e.opts.SystemPrompt, e.opts.HistoryThreshold, e.opts.KeepRecent),
		}
		e.sessions[clientID] = sess
	}
	return sess
}

func (e *Engine) run(ctx context.Context, sess *session, clientID, rawText string, out chan<- string) {
	defer close(out)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	clientHash := chatlog.HashClient(clientID)

	if sess.logID == "" {
		sess.logID = e.chatLog.CreateConversation(ctx, clientID, "")
	}

	// Tarpit: scraper-style requests pay a random delay before any work.
	if e.gate.Bot.Match(rawText) {
		delay := e.tarpitDelay()
		e.log.WithFields(logrus.Fields{"client": clientHash, "delay": delay}).Info("bot heuristic matched, tarpitting")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}

	// Best-effort history compaction before the new turn grows it further.
	if summary, compacted, err := sess.conv.MaybeCompact(ctx, e.provider, e.opts.Model); err != nil {
		e.log.WithError(err).Warn("history compaction failed, keeping full history")
	} else if compacted {
		e.log.WithField("length", sess.conv.Len()).Info("history compacted")
		go e.chatLog.LogSummarization(context.Background(), sess.logID, summary, sess.conv.Len())
	}

	truncated := e.aug.TruncateInput(rawText)
	injection := e.aug.Build(truncated)
	finalPrompt := injection + "\n<user_input>\n" + truncated + "\n</user_input>"

	mark := sess.conv.Len()
	sess.conv.Append("user", finalPrompt)
	go e.chatLog.LogMessage(context.Background(), sess.logID, "user", truncated, 0, 0)

	req := providers.CompletionRequest{
		Messages: sess.conv.Messages(),
		Model:    e.opts.Model,
		Stream:   true,
	}

	chunks, err := e.provider.StreamComplete(ctx, req)
	if err != nil {
		e.emitFailure(out, clientHash, err)
		return
	}

	var full strings.Builder
stream:
	for {
		select {
		case <-ctx.Done():
			// Cancelled turn: roll back as if it never happened so a
			// truncated exchange can't corrupt future prompts.
			sess.conv.truncate(mark)
			return
		case chunk, ok := <-chunks:
			if !ok {
				break stream
			}
			if chunk.Err != nil {
				e.emitFailure(out, clientHash, chunk.Err)
				return
			}
			if chunk.Delta != "" {
				full.WriteString(chunk.Delta)
				select {
				case out <- chunk.Delta:
				case <-ctx.Done():
					sess.conv.truncate(mark)
					return
				}
			}
			if chunk.FinishReason != "" {
				break stream
			}
		}
	}

	if ctx.Err() != nil {
		sess.conv.truncate(mark)
		return
	}

	response := full.String()
	sess.conv.Append("assistant", response)

	tokens := (len(finalPrompt) + len(response)) / 4
	e.limiter.AddTokens(clientID, tokens)
	if e.limiter.NearTokenLimit(clientID) {
		select {
		case out <- TokenWarning:
		case <-ctx.Done():
		}
	}

	go e.chatLog.LogMessage(context.Background(), sess.logID, "assistant", response,
		int(time.Since(start).Milliseconds()), tokens)
}

// emitFailure maps a backend error onto its sentinel fragment. The failed
// turn is not recorded as an assistant message; only the sentinel reaches
// the caller.
func (e *Engine) emitFailure(out chan<- string, clientHash string, err error) {
	e.log.WithError(err).WithField("client", clientHash).Error("backend generation failed")
	if errors.Is(err, providers.ErrRateLimited) {
		out <- SentinelCapacity
		return
	}
	out <- SentinelGeneric
}

func (e *Engine) tarpitDelay() time.Duration {
	if e.opts.TarpitMax <= e.opts.TarpitMin {
		return e.opts.TarpitMin
	}
	return e.opts.TarpitMin + time.Duration(rand.Int63n(int64(e.opts.TarpitMax-e.opts.TarpitMin)))
}
