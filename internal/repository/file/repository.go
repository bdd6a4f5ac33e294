package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Rrens/auditlens/internal/domain"
)

const (
	filePrefix = "conversation_"
	fileSuffix = ".json"
)

// TranscriptRepository stores one JSON file per session under a directory
type TranscriptRepository struct {
	dir string
}

// NewTranscriptRepository creates the history directory if needed
func NewTranscriptRepository(dir string) (*TranscriptRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &TranscriptRepository{dir: dir}, nil
}

// Path returns the file holding the transcript for sessionID
func (r *TranscriptRepository) Path(sessionID string) string {
	return filepath.Join(r.dir, filePrefix+sessionID+fileSuffix)
}

func (r *TranscriptRepository) Get(ctx context.Context, sessionID string) ([]byte, error) {
	if err := validID(sessionID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.Path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return data, nil
}

// Put writes to a temporary file in the same directory, syncs it and renames
// it over the previous record, so readers see the old or the new file only.
// The directory is synced afterwards so the rename itself is durable.
func (r *TranscriptRepository) Put(ctx context.Context, sessionID string, data []byte) error {
	if err := validID(sessionID); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(r.dir, "."+filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.Path(sessionID)); err != nil {
		return fmt.Errorf("failed to replace transcript: %w", err)
	}
	if err := syncDir(r.dir); err != nil {
		return fmt.Errorf("failed to sync history directory: %w", err)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func (r *TranscriptRepository) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list history directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func validID(sessionID string) error {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return fmt.Errorf("invalid session id %q", sessionID)
	}
	return nil
}
