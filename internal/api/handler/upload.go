package handler

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rrens/auditlens/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Spooler saves multipart uploads to local files for the ingest service
type Spooler struct {
	uploadDir string
}

// NewSpooler creates a spooler writing into uploadDir
func NewSpooler(uploadDir string) (*Spooler, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Spooler{uploadDir: uploadDir}, nil
}

// Spool copies every file header to disk. The returned cleanup removes them.
func (s *Spooler) Spool(headers []*multipart.FileHeader) ([]domain.Attachment, func(), error) {
	var dirs []string
	cleanup := func() {
		for _, d := range dirs {
			if err := os.RemoveAll(d); err != nil {
				log.Warn().Err(err).Str("path", d).Msg("Failed to remove spooled upload")
			}
		}
	}

	attachments := make([]domain.Attachment, 0, len(headers))
	for _, h := range headers {
		dir, path, err := s.save(h)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		dirs = append(dirs, dir)
		attachments = append(attachments, domain.Attachment{
			Path:     path,
			Name:     filepath.Base(h.Filename),
			MIMEType: detectMIMEType(h),
		})
	}
	return attachments, cleanup, nil
}

// save writes one upload into its own directory, keeping the original base
// name so the remote display name stays readable
func (s *Spooler) save(h *multipart.FileHeader) (string, string, error) {
	src, err := h.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open upload %s: %w", h.Filename, err)
	}
	defer src.Close()

	dir := filepath.Join(s.uploadDir, uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	destPath := filepath.Join(dir, filepath.Base(h.Filename))

	dst, err := os.Create(destPath)
	if err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}
	return dir, destPath, nil
}

// mime.TypeByExtension only knows .txt when the host has a mime.types file
var knownExtensions = map[string]string{
	".pdf": domain.MIMETypePDF,
	".txt": domain.MIMETypePlainText,
}

// detectMIMEType prefers the part's declared type and falls back to the extension
func detectMIMEType(h *multipart.FileHeader) string {
	if ct := mediaType(h.Header.Get("Content-Type")); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	ext := strings.ToLower(filepath.Ext(h.Filename))
	if mt, ok := knownExtensions[ext]; ok {
		return mt
	}
	return mediaType(mime.TypeByExtension(ext))
}

func mediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return mt
}
