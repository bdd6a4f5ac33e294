// Package repository selects and opens the configured transcript backend.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/repository/file"
	"github.com/Rrens/auditlens/internal/repository/memory"
	"github.com/Rrens/auditlens/internal/repository/mongo"
	"github.com/Rrens/auditlens/internal/repository/postgres"
	"github.com/Rrens/auditlens/internal/repository/redis"
	"github.com/Rrens/auditlens/internal/repository/sqldb"
	"github.com/Rrens/auditlens/internal/security"
	"github.com/rs/zerolog/log"
)

// Supported history backends
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
)

// Backend is an opened transcript store with its lifecycle hooks
type Backend struct {
	Name  string
	Repo  domain.TranscriptRepository
	ready func(ctx context.Context) error
	close func() error
}

// Ready checks backend connectivity
func (b *Backend) Ready(ctx context.Context) error {
	if b.ready == nil {
		return nil
	}
	return b.ready(ctx)
}

// Close releases backend connections
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects the backend named by cfg.Backend
func Open(ctx context.Context, cfg config.HistoryConfig) (*Backend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if name == "" {
		name = BackendFile
	}

	b := &Backend{Name: name}
	switch name {
	case BackendFile:
		repo, err := file.NewTranscriptRepository(cfg.Dir)
		if err != nil {
			return nil, err
		}
		b.Repo = repo

	case BackendMemory:
		b.Repo = memory.NewTranscriptRepository()

	case BackendSQLite:
		db, err := sqldb.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.Repo = sqldb.NewTranscriptRepository(db)
		b.ready = db.PingContext
		b.close = db.Close

	case BackendMySQL:
		db, err := sqldb.OpenMySQL(ctx, cfg.MySQL)
		if err != nil {
			return nil, err
		}
		b.Repo = sqldb.NewTranscriptRepository(db)
		b.ready = db.PingContext
		b.close = db.Close

	case BackendPostgres:
		if cfg.Postgres.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Postgres.DSN()); err != nil {
				return nil, err
			}
		}
		db, err := postgres.NewDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		b.Repo = postgres.NewTranscriptRepository(db.Pool)
		b.ready = db.Ping
		b.close = func() error {
			db.Close()
			return nil
		}

	case BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.Repo = redis.NewTranscriptRepository(client)
		b.ready = func(ctx context.Context) error { return client.Client().Ping(ctx).Err() }
		b.close = client.Close

	case BackendMongo:
		repo, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		b.Repo = repo
		b.ready = repo.Ping
		b.close = func() error { return repo.Close(context.Background()) }

	default:
		return nil, fmt.Errorf("unknown history backend: %s", cfg.Backend)
	}

	if cfg.EncryptionKey != "" {
		encryptor, err := security.NewEncryptorFromBase64(cfg.EncryptionKey)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("invalid history encryption key: %w", err)
		}
		b.Repo = NewEncryptedRepository(b.Repo, encryptor)
	}

	log.Info().
		Str("backend", name).
		Bool("encrypted", cfg.EncryptionKey != "").
		Msg("History backend ready")
	return b, nil
}
