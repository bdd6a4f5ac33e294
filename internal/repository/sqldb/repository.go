package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/auditlens/internal/domain"
)

// TranscriptRepository implements domain.TranscriptRepository on a SQL table
type TranscriptRepository struct {
	db *DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

func (r *TranscriptRepository) Get(ctx context.Context, sessionID string) ([]byte, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM transcripts WHERE session_id = ?`, sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return []byte(data), nil
}

// Put upserts the record in a single statement
func (r *TranscriptRepository) Put(ctx context.Context, sessionID string, data []byte) error {
	query := `
		INSERT INTO transcripts (session_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if r.db.dialect == DialectMySQL {
		query = `
			INSERT INTO transcripts (session_id, data, updated_at)
			VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)
		`
	}

	if _, err := r.db.ExecContext(ctx, query, sessionID, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT session_id FROM transcripts ORDER BY session_id`)
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
