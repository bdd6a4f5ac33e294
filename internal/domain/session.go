package domain

import (
	"context"
	"time"
)

// SessionState represents the lifecycle state of a conversation session
type SessionState string

const (
	SessionStateActive SessionState = "active"
	SessionStateClosed SessionState = "closed"
)

// SessionInfo describes a conversation returned to the UI
type SessionInfo struct {
	ID        string       `json:"id"`
	State     SessionState `json:"state"`
	Resumed   bool         `json:"resumed"`
	StartedAt time.Time    `json:"started_at"`
	History   Transcript   `json:"history"`
}

// TranscriptRepository defines the key-value interface for transcript storage.
// Put must leave the record either fully replaced or untouched.
type TranscriptRepository interface {
	// Get returns the encoded transcript or ErrNotFound
	Get(ctx context.Context, sessionID string) ([]byte, error)

	// Put atomically replaces the encoded transcript
	Put(ctx context.Context, sessionID string, data []byte) error

	// List returns the ids of all persisted sessions
	List(ctx context.Context) ([]string, error)
}

// SessionSummary lists a persisted session and whether it is live in this process
type SessionSummary struct {
	ID   string `json:"id"`
	Live bool   `json:"live"`
}
