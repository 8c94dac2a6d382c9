// Package dialogue implements the scripted chatbot engine. The engine owns
// transcript bookkeeping only: it appends turns in strict chronological order,
// allows a single in-flight submission per session, and exposes the
// completion flag and collected lead data reported by the backend. How
// completion and extraction are decided is entirely the Backend's business.
package dialogue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coachlingua/leadengine/internal/i18n"
	"github.com/coachlingua/leadengine/internal/model"
)

// ErrTurnInFlight is returned when a session submits a second message while
// a previous one is still being answered.
var ErrTurnInFlight = errors.New("a turn is already in flight for this session")

// Turn is the backend's response to one user message.
type Turn struct {
	Reply      string
	IsComplete bool
	Collected  *model.CollectedData
}

// Backend classifies a user turn and produces the next reply.
type Backend interface {
	NextTurn(ctx context.Context, lang string, history []model.ChatMessage, message string) (Turn, error)
}

// Engine tracks chatbot conversations keyed by session id.
type Engine struct {
	backend Backend

	mu    sync.Mutex
	convs map[string]*conversation
}

type conversation struct {
	lang       string
	history    []model.ChatMessage
	inFlight   bool
	isComplete bool
	collected  *model.CollectedData
	updatedAt  time.Time
}

// NewEngine creates an engine over the given backend.
func NewEngine(b Backend) *Engine {
	return &Engine{backend: b, convs: map[string]*conversation{}}
}

// Opening returns the fixed opening message in the request's language.
func (e *Engine) Opening(ctx context.Context) string {
	return i18n.T(ctx, "Chat.Greeting")
}

// Submit records the user's message, asks the backend for the next turn, and
// records the reply. Turns within a session are strictly sequential: a second
// Submit while one is outstanding fails with ErrTurnInFlight. On backend
// failure the user's message stays in the transcript and the error is
// returned to the caller.
func (e *Engine) Submit(ctx context.Context, sessionID, lang, message string) (Turn, error) {
	now := time.Now()
	userMsg := model.ChatMessage{
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   message,
		CreatedAt: now,
	}

	e.mu.Lock()
	conv, ok := e.convs[sessionID]
	if !ok {
		conv = &conversation{lang: lang}
		e.convs[sessionID] = conv
	}
	if conv.inFlight {
		e.mu.Unlock()
		return Turn{}, ErrTurnInFlight
	}
	conv.inFlight = true
	conv.updatedAt = now
	// The language is fixed by the first turn; later turns cannot switch it
	// mid-conversation.
	lang = conv.lang
	history := append([]model.ChatMessage(nil), conv.history...)
	conv.history = append(conv.history, userMsg)
	e.mu.Unlock()

	turn, err := e.backend.NextTurn(ctx, lang, history, message)

	e.mu.Lock()
	defer e.mu.Unlock()
	conv.inFlight = false
	if err != nil {
		return Turn{}, err
	}

	conv.history = append(conv.history, model.ChatMessage{
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   turn.Reply,
		CreatedAt: time.Now(),
	})
	conv.isComplete = turn.IsComplete
	if turn.Collected != nil {
		conv.collected = turn.Collected
	}
	conv.updatedAt = time.Now()
	return turn, nil
}

// History returns a copy of the session's transcript in chronological order.
func (e *Engine) History(sessionID string) []model.ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	conv, ok := e.convs[sessionID]
	if !ok {
		return nil
	}
	return append([]model.ChatMessage(nil), conv.history...)
}

// Status returns the session's completion flag and collected data.
func (e *Engine) Status(sessionID string) (bool, *model.CollectedData) {
	e.mu.Lock()
	defer e.mu.Unlock()
	conv, ok := e.convs[sessionID]
	if !ok {
		return false, nil
	}
	return conv.isComplete, conv.collected
}

// Drop discards a session and its transcript.
func (e *Engine) Drop(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.convs, sessionID)
}

// PruneIdle discards sessions untouched for longer than maxIdle and returns
// how many were removed.
func (e *Engine) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	e.mu.Lock()
	defer e.mu.Unlock()
	var pruned int
	for id, conv := range e.convs {
		if !conv.inFlight && conv.updatedAt.Before(cutoff) {
			delete(e.convs, id)
			pruned++
		}
	}
	return pruned
}
