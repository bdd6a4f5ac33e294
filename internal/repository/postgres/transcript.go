package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/auditlens/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TranscriptRepository implements domain.TranscriptRepository
type TranscriptRepository struct {
	pool *pgxpool.Pool
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(pool *pgxpool.Pool) *TranscriptRepository {
	return &TranscriptRepository{pool: pool}
}

func (r *TranscriptRepository) Get(ctx context.Context, sessionID string) ([]byte, error) {
	query := `SELECT data::text FROM transcripts WHERE session_id = $1`

	var data string
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return []byte(data), nil
}

func (r *TranscriptRepository) Put(ctx context.Context, sessionID string, data []byte) error {
	query := `
		INSERT INTO transcripts (session_id, data, created_at, updated_at)
		VALUES ($1, $2::jsonb, NOW(), NOW())
		ON CONFLICT (session_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, sessionID, string(data)); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT session_id FROM transcripts ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
