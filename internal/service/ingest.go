package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/llm"
	"github.com/rs/zerolog/log"
)

// IngestService uploads local files to the remote content store
type IngestService struct {
	provider llm.Provider
}

// NewIngestService creates a new ingest service
func NewIngestService(provider llm.Provider) *IngestService {
	return &IngestService{provider: provider}
}

// Upload streams the file at path to the remote store. The returned ref is
// usually still processing; pass it through the Poller before use.
func (s *IngestService) Upload(ctx context.Context, path, mimeType string) (domain.DocumentRef, error) {
	if !domain.SupportedMIMEType(mimeType) {
		return domain.DocumentRef{}, &domain.UploadError{
			Path: path,
			Err:  fmt.Errorf("%w: %s", domain.ErrUnsupportedMIMEType, mimeType),
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.DocumentRef{}, &domain.UploadError{Path: path, Err: err}
	}
	defer f.Close()

	ref, err := s.provider.UploadFile(ctx, filepath.Base(path), f, mimeType)
	if err != nil {
		return domain.DocumentRef{}, &domain.UploadError{Path: path, Err: err}
	}

	log.Info().
		Str("display_name", ref.DisplayName).
		Str("uri", ref.URI).
		Msg("Uploaded file")

	return ref, nil
}

// UploadAll uploads attachments in order, stopping at the first failure
func (s *IngestService) UploadAll(ctx context.Context, attachments []domain.Attachment) ([]domain.DocumentRef, error) {
	refs := make([]domain.DocumentRef, 0, len(attachments))
	for _, a := range attachments {
		ref, err := s.Upload(ctx, a.Path, a.MIMEType)
		if err != nil {
			return nil, err
		}
		if a.Name != "" && ref.DisplayName == "" {
			ref.DisplayName = a.Name
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// FilterSupported keeps only attachments with an uploadable MIME type
func FilterSupported(attachments []domain.Attachment) []domain.Attachment {
	var out []domain.Attachment
	for _, a := range attachments {
		if domain.SupportedMIMEType(a.MIMEType) {
			out = append(out, a)
			continue
		}
		log.Warn().
			Str("name", a.Name).
			Str("mime_type", a.MIMEType).
			Msg("Skipping unsupported attachment")
	}
	return out
}
