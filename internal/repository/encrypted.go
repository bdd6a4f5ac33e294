package repository

import (
	"context"
	"fmt"

	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/security"
)

// EncryptedRepository seals records before handing them to the wrapped backend
type EncryptedRepository struct {
	inner     domain.TranscriptRepository
	encryptor *security.Encryptor
}

// NewEncryptedRepository wraps inner with at-rest encryption
func NewEncryptedRepository(inner domain.TranscriptRepository, encryptor *security.Encryptor) *EncryptedRepository {
	return &EncryptedRepository{inner: inner, encryptor: encryptor}
}

func (r *EncryptedRepository) Get(ctx context.Context, sessionID string) ([]byte, error) {
	sealed, err := r.inner.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	data, err := r.encryptor.OpenRecord(sealed, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	return data, nil
}

func (r *EncryptedRepository) Put(ctx context.Context, sessionID string, data []byte) error {
	sealed, err := r.encryptor.SealRecord(data, sessionID)
	if err != nil {
		return fmt.Errorf("failed to seal transcript: %w", err)
	}
	return r.inner.Put(ctx, sessionID, sealed)
}

func (r *EncryptedRepository) List(ctx context.Context) ([]string, error) {
	return r.inner.List(ctx)
}
