package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Rrens/auditlens/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	transcriptPrefix = "transcript:"
	scanBatch        = 100
)

// TranscriptRepository stores transcripts as plain string keys without expiry
type TranscriptRepository struct {
	client *Client
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(client *Client) *TranscriptRepository {
	return &TranscriptRepository{client: client}
}

// TranscriptKey returns the key holding a session's transcript
func TranscriptKey(sessionID string) string {
	return transcriptPrefix + sessionID
}

func (r *TranscriptRepository) Get(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := r.client.rdb.Get(ctx, TranscriptKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return data, nil
}

func (r *TranscriptRepository) Put(ctx context.Context, sessionID string, data []byte) error {
	if err := r.client.rdb.Set(ctx, TranscriptKey(sessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) List(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		ids    []string
	)
	for {
		keys, next, err := r.client.rdb.Scan(ctx, cursor, transcriptPrefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan transcripts: %w", err)
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, transcriptPrefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	// SCAN may return a key more than once
	sort.Strings(ids)
	return dedupSorted(ids), nil
}

func dedupSorted(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
