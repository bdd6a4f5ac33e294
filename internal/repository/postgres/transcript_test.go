package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	files, err := postgres.MigrationFiles()
	require.NoError(t, err)
	assert.Contains(t, files, "000001_create_transcripts.up.sql")
	assert.Contains(t, files, "000001_create_transcripts.down.sql")
}

func TestRollbackMigrations_RejectsNonPositiveSteps(t *testing.T) {
	err := postgres.RollbackMigrations("postgres://unused", 0)
	assert.Error(t, err)
}

// Requires a reachable server; set POSTGRES_TEST_HOST to run.
func TestTranscriptRepository_Integration(t *testing.T) {
	host := os.Getenv("POSTGRES_TEST_HOST")
	if host == "" {
		t.Skip("POSTGRES_TEST_HOST not set")
	}
	cfg := config.PostgresConfig{
		Host:     host,
		Port:     5432,
		User:     envOr("POSTGRES_TEST_USER", "auditlens"),
		Password: os.Getenv("POSTGRES_TEST_PASSWORD"),
		Database: envOr("POSTGRES_TEST_DB", "auditlens"),
		SSLMode:  "disable",
		MaxConns: 2,
	}
	require.NoError(t, postgres.RunMigrations(cfg.DSN()))

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewTranscriptRepository(db.Pool)
	id := uuid.NewString()

	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Put(ctx, id, []byte(`[{"role":"user","parts":["one"]}]`)))
	require.NoError(t, repo.Put(ctx, id, []byte(`[{"role":"user","parts":["two"]}]`)))

	data, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","parts":["two"]}]`, string(data))

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
