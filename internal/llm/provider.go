package llm

import (
	"context"
	"io"

	"github.com/Rrens/auditlens/internal/domain"
)

// GenerationConfig holds the sampling parameters sent with every request
type GenerationConfig struct {
	Temperature      float32
	TopP             float32
	TopK             int32
	MaxOutputTokens  int32
	ResponseMIMEType string
}

// DefaultGenerationConfig returns the fixed generation settings used for audit summaries
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:      0.1,
		TopP:             0.95,
		TopK:             64,
		MaxOutputTokens:  100000,
		ResponseMIMEType: "text/plain",
	}
}

// ChatHandle is a live, stateful remote chat context. It is never persisted.
type ChatHandle interface {
	// SendMessage forwards one logical user turn and returns the model's reply text
	SendMessage(ctx context.Context, parts []domain.Part) (string, error)
}

// Provider defines the remote model service contract
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the model used for chats
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// UploadFile sends file bytes to the remote content store
	UploadFile(ctx context.Context, displayName string, r io.Reader, mimeType string) (domain.DocumentRef, error)

	// GetFile re-fetches the current state of an uploaded file
	GetFile(ctx context.Context, id string) (domain.DocumentRef, error)

	// StartChat creates a remote chat context primed with seed
	StartChat(seed domain.Transcript) ChatHandle

	// Close releases the underlying client
	Close() error
}
