package memory

import (
	"context"
	"sort"

	"github.com/Rrens/auditlens/internal/domain"
	"github.com/patrickmn/go-cache"
)

// TranscriptRepository keeps transcripts in process memory. Records never
// expire; the store is lost on restart.
type TranscriptRepository struct {
	cache *cache.Cache
}

func NewTranscriptRepository() *TranscriptRepository {
	return &TranscriptRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *TranscriptRepository) Get(ctx context.Context, sessionID string) ([]byte, error) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, domain.ErrNotFound
	}
	data := x.([]byte)
	return append([]byte(nil), data...), nil
}

func (r *TranscriptRepository) Put(ctx context.Context, sessionID string, data []byte) error {
	r.cache.Set(sessionID, append([]byte(nil), data...), cache.NoExpiration)
	return nil
}

func (r *TranscriptRepository) List(ctx context.Context) ([]string, error) {
	items := r.cache.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
