package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Rrens/auditlens/internal/domain"
)

// HistoryStore persists transcripts through a pluggable repository
type HistoryStore struct {
	repo  domain.TranscriptRepository
	locks *keyedMutex
}

// NewHistoryStore creates a new history store
func NewHistoryStore(repo domain.TranscriptRepository) *HistoryStore {
	return &HistoryStore{
		repo:  repo,
		locks: newKeyedMutex(),
	}
}

// Load returns the persisted transcript, or an empty one if the session has none
func (s *HistoryStore) Load(ctx context.Context, sessionID string) (domain.Transcript, error) {
	data, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Transcript{}, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "load", SessionID: sessionID, Err: err}
	}

	tr, err := domain.UnmarshalTranscript(data)
	if err != nil {
		return nil, &domain.StorageError{Op: "decode", SessionID: sessionID, Err: err}
	}
	return tr, nil
}

// Append adds one user/model pair and rewrites the record. Calls for the
// same session are serialised within this process.
func (s *HistoryStore) Append(ctx context.Context, sessionID, userText, modelText string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	tr, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	data, err := domain.MarshalTranscript(tr.Append(userText, modelText))
	if err != nil {
		return &domain.StorageError{Op: "encode", SessionID: sessionID, Err: err}
	}

	if err := s.repo.Put(ctx, sessionID, data); err != nil {
		return &domain.StorageError{Op: "append", SessionID: sessionID, Err: err}
	}
	return nil
}

// List returns the sorted ids of every persisted session
func (s *HistoryStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.repo.List(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Err: err}
	}
	sort.Strings(ids)
	return ids, nil
}

// keyedMutex hands out one mutex per key and drops it once unused
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
