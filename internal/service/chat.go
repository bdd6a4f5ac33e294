package service

import (
	"context"
	"strings"
	"time"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/llm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// persistTimeout bounds the history write once a reply has been produced
const persistTimeout = 30 * time.Second

// ChatService drives ingestion, activation, conversation and history per UI event
type ChatService struct {
	ingest        *IngestService
	poller        *Poller
	history       *HistoryStore
	conversations *ConversationService
	registry      *SessionRegistry
	priming       bool
	welcome       string
}

// NewChatService creates a new chat service
func NewChatService(
	ingest *IngestService,
	poller *Poller,
	history *HistoryStore,
	conversations *ConversationService,
	registry *SessionRegistry,
	cfg config.ChatConfig,
) *ChatService {
	return &ChatService{
		ingest:        ingest,
		poller:        poller,
		history:       history,
		conversations: conversations,
		registry:      registry,
		priming:       cfg.Priming,
		welcome:       cfg.Welcome,
	}
}

// StartResult is returned when a new chat begins
type StartResult struct {
	Session domain.SessionInfo `json:"session"`
	Welcome string             `json:"welcome"`
}

// Reply is the outcome of one turn. PersistError is set when the reply was
// produced but could not be written to history.
type Reply struct {
	SessionID    string               `json:"session_id"`
	Text         string               `json:"text"`
	Documents    []domain.DocumentRef `json:"documents,omitempty"`
	PersistError error                `json:"-"`
}

// StartChat opens a fresh session under a new id
func (s *ChatService) StartChat(ctx context.Context) (*StartResult, error) {
	id := uuid.New().String()

	history, err := s.history.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	sess := s.conversations.Start(id, llm.SeedTranscript(history, s.priming))
	sess, _ = s.registry.Add(sess)

	log.Info().Str("session_id", id).Msg("Chat started")

	return &StartResult{
		Session: sess.Info(history),
		Welcome: s.welcome,
	}, nil
}

// SendMessage runs one full turn. Turns on the same session run one at a time
// in arrival order.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, text string, attachments []domain.Attachment) (*Reply, error) {
	sess, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	unlock := sess.LockTurn()
	defer unlock()

	if sess.State() == domain.SessionStateClosed {
		return nil, domain.ErrSessionClosed
	}

	var refs []domain.DocumentRef
	if len(attachments) > 0 {
		supported := FilterSupported(attachments)
		if len(supported) == 0 {
			return nil, domain.ErrNoValidDocuments
		}

		uploaded, err := s.ingest.UploadAll(ctx, supported)
		if err != nil {
			return nil, err
		}

		refs, err = s.poller.AwaitActive(ctx, uploaded)
		if err != nil {
			return nil, err
		}
	}

	answer, err := s.conversations.Send(ctx, sess, text, refs)
	if err != nil {
		return nil, err
	}
	reply := &Reply{SessionID: sessionID, Text: answer, Documents: refs}

	// Persist even if the request was cancelled after the reply arrived
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.history.Append(persistCtx, sessionID, persistedText(text, refs), answer); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to persist turn")
		reply.PersistError = err
	}

	return reply, nil
}

// persistedText is the user text stored for a turn. Document refs expire on
// the remote side, so a documents-only turn is stored by document URI.
func persistedText(text string, refs []domain.DocumentRef) string {
	if text != "" || len(refs) == 0 {
		return text
	}
	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = domain.DocumentPart(ref).String()
	}
	return strings.Join(ids, "\n")
}

// EndChat closes and unregisters the session. Its transcript is kept.
func (s *ChatService) EndChat(sessionID string) error {
	sess, ok := s.registry.Remove(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Close()

	log.Info().Str("session_id", sessionID).Msg("Chat ended")
	return nil
}

// ResumeChat registers a session seeded from its persisted transcript. A
// session that is already live is returned unchanged.
func (s *ChatService) ResumeChat(ctx context.Context, sessionID string) (*domain.SessionInfo, error) {
	history, err := s.history.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess, ok := s.registry.Get(sessionID); ok {
		info := sess.Info(history)
		return &info, nil
	}

	sess := s.conversations.Start(sessionID, llm.SeedTranscript(history, s.priming))
	sess.Resumed = true
	sess, _ = s.registry.Add(sess)

	log.Info().
		Str("session_id", sessionID).
		Int("turns", len(history)).
		Msg("Chat resumed")

	info := sess.Info(history)
	return &info, nil
}

// ListSessions returns every persisted session
func (s *ChatService) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	ids, err := s.history.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.SessionSummary, 0, len(ids))
	for _, id := range ids {
		_, live := s.registry.Get(id)
		summaries = append(summaries, domain.SessionSummary{ID: id, Live: live})
	}
	return summaries, nil
}

// History returns the persisted transcript of a session
func (s *ChatService) History(ctx context.Context, sessionID string) (domain.Transcript, error) {
	return s.history.Load(ctx, sessionID)
}
