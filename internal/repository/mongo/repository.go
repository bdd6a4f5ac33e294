package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type transcriptDocument struct {
	SessionID string    `bson:"_id"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// TranscriptRepository keeps one document per session, keyed by session ID
type TranscriptRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens a client and returns a repository bound to the configured collection
func Connect(ctx context.Context, cfg config.MongoConfig) (*TranscriptRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &TranscriptRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close disconnects the underlying client
func (r *TranscriptRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *TranscriptRepository) Get(ctx context.Context, sessionID string) ([]byte, error) {
	var doc transcriptDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return []byte(doc.Data), nil
}

func (r *TranscriptRepository) Put(ctx context.Context, sessionID string, data []byte) error {
	doc := transcriptDocument{
		SessionID: sessionID,
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": sessionID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) List(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping verifies server connectivity
func (r *TranscriptRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}
