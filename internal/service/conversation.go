package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/llm"
	"github.com/rs/zerolog/log"
)

// Session pairs a live remote chat with its durable transcript id
type Session struct {
	ID        string
	StartedAt time.Time
	Resumed   bool

	handle llm.ChatHandle

	// turn serialises whole turns; state guards the lifecycle flag
	turn  sync.Mutex
	mu    sync.RWMutex
	state domain.SessionState
}

// State returns the current lifecycle state
func (s *Session) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Close marks the session closed. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.SessionStateClosed
}

// LockTurn holds the session for one complete turn and returns the release func
func (s *Session) LockTurn() func() {
	s.turn.Lock()
	return s.turn.Unlock
}

// Info describes the session together with its history
func (s *Session) Info(history domain.Transcript) domain.SessionInfo {
	return domain.SessionInfo{
		ID:        s.ID,
		State:     s.State(),
		Resumed:   s.Resumed,
		StartedAt: s.StartedAt,
		History:   history,
	}
}

// ConversationService opens remote chats and forwards turns to them
type ConversationService struct {
	provider llm.Provider
}

// NewConversationService creates a new conversation service
func NewConversationService(provider llm.Provider) *ConversationService {
	return &ConversationService{provider: provider}
}

// Start opens a remote chat seeded with seed. Seed turns are not persisted.
func (s *ConversationService) Start(id string, seed domain.Transcript) *Session {
	return &Session{
		ID:        id,
		StartedAt: time.Now().UTC(),
		handle:    s.provider.StartChat(seed),
		state:     domain.SessionStateActive,
	}
}

// Send forwards one logical turn made of the documents followed by text.
// Every document must already be active. The session lifecycle is checked by
// the caller when the turn starts, so a turn already in flight completes even
// if the session is closed meanwhile.
func (s *ConversationService) Send(ctx context.Context, sess *Session, text string, refs []domain.DocumentRef) (string, error) {
	for _, ref := range refs {
		if !ref.Ready() {
			return "", &domain.PreconditionError{Document: ref.ID, State: ref.State}
		}
	}

	if text == "" && len(refs) == 0 {
		return "", domain.ErrEmptyMessage
	}

	parts := make([]domain.Part, 0, len(refs)+1)
	for _, ref := range refs {
		parts = append(parts, domain.DocumentPart(ref))
	}
	if text != "" {
		parts = append(parts, domain.TextPart(text))
	}

	reply, err := sess.handle.SendMessage(ctx, parts)
	if err != nil {
		var remote *domain.RemoteServiceError
		if errors.As(err, &remote) {
			return "", err
		}
		return "", &domain.RemoteServiceError{Op: "send message", Err: err}
	}

	log.Debug().
		Str("session_id", sess.ID).
		Int("documents", len(refs)).
		Int("reply_len", len(reply)).
		Msg("Turn completed")

	return reply, nil
}
