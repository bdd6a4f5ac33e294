package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-pro-exp-0827"

var errNotConfigured = errors.New("gemini provider is not configured (missing API key)")

// Provider implements llm.Provider on the Gemini API. One client is shared by
// all chats and file operations.
type Provider struct {
	client            *genai.Client
	model             string
	generation        llm.GenerationConfig
	systemInstruction string
	codeExecution     bool
}

// NewProvider creates a Gemini provider. Without an API key the provider is
// returned unconfigured and every remote call fails.
func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	p := &Provider{
		model:             cfg.Model,
		generation:        generationConfig(cfg),
		systemInstruction: cfg.SystemInstruction,
		codeExecution:     cfg.CodeExecution,
	}
	if p.systemInstruction == "" {
		p.systemInstruction = llm.SystemInstruction
	}

	if cfg.APIKey == "" {
		return p, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return defaultModel
}

func (p *Provider) IsConfigured() bool {
	return p.client != nil
}

func (p *Provider) UploadFile(ctx context.Context, displayName string, r io.Reader, mimeType string) (domain.DocumentRef, error) {
	if !p.IsConfigured() {
		return domain.DocumentRef{}, errNotConfigured
	}

	f, err := p.client.UploadFile(ctx, "", r, &genai.UploadFileOptions{
		DisplayName: displayName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("gemini upload error: %w", err)
	}
	return toDocumentRef(f), nil
}

func (p *Provider) GetFile(ctx context.Context, id string) (domain.DocumentRef, error) {
	if !p.IsConfigured() {
		return domain.DocumentRef{}, errNotConfigured
	}

	f, err := p.client.GetFile(ctx, id)
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("gemini get file error: %w", err)
	}
	return toDocumentRef(f), nil
}

func (p *Provider) StartChat(seed domain.Transcript) llm.ChatHandle {
	if !p.IsConfigured() {
		return unconfiguredChat{}
	}

	model := p.client.GenerativeModel(p.DefaultModel())
	model.SetTemperature(p.generation.Temperature)
	model.SetTopP(p.generation.TopP)
	model.SetTopK(p.generation.TopK)
	model.SetMaxOutputTokens(p.generation.MaxOutputTokens)
	model.ResponseMIMEType = p.generation.ResponseMIMEType
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(p.systemInstruction)},
	}
	if p.codeExecution {
		model.Tools = []*genai.Tool{{CodeExecution: &genai.CodeExecution{}}}
	}

	cs := model.StartChat()
	cs.History = toContents(seed)
	return &chat{session: cs}
}

func (p *Provider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

type chat struct {
	session *genai.ChatSession
}

func (c *chat) SendMessage(ctx context.Context, parts []domain.Part) (string, error) {
	resp, err := c.session.SendMessage(ctx, toParts(parts)...)
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	return responseText(resp)
}

type unconfiguredChat struct{}

func (unconfiguredChat) SendMessage(context.Context, []domain.Part) (string, error) {
	return "", errNotConfigured
}

func generationConfig(cfg config.GeminiConfig) llm.GenerationConfig {
	gen := llm.GenerationConfig{
		Temperature:      cfg.Temperature,
		TopP:             cfg.TopP,
		TopK:             cfg.TopK,
		MaxOutputTokens:  cfg.MaxOutputTokens,
		ResponseMIMEType: cfg.ResponseMIMEType,
	}
	if gen.ResponseMIMEType == "" {
		gen.ResponseMIMEType = llm.DefaultGenerationConfig().ResponseMIMEType
	}
	return gen
}

func toDocumentRef(f *genai.File) domain.DocumentRef {
	return domain.DocumentRef{
		ID:          f.Name,
		DisplayName: f.DisplayName,
		URI:         f.URI,
		MIMEType:    f.MIMEType,
		State:       toDocumentState(f.State),
	}
}

func toDocumentState(s genai.FileState) domain.DocumentState {
	switch s {
	case genai.FileStateProcessing:
		return domain.DocumentStateProcessing
	case genai.FileStateActive:
		return domain.DocumentStateActive
	case genai.FileStateFailed:
		return domain.DocumentStateFailed
	default:
		return domain.DocumentStateUnspecified
	}
}

// toParts converts turn parts. Empty text parts are rejected by the API and are dropped.
func toParts(parts []domain.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch p.Kind {
		case domain.PartDocument:
			out = append(out, genai.FileData{MIMEType: p.Document.MIMEType, URI: p.Document.URI})
		default:
			if p.Text == "" {
				continue
			}
			out = append(out, genai.Text(p.Text))
		}
	}
	return out
}

func toContents(tr domain.Transcript) []*genai.Content {
	contents := make([]*genai.Content, 0, len(tr))
	for _, turn := range tr {
		parts := toParts(turn.Parts)
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  string(turn.Role),
			Parts: parts,
		})
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini response has no text parts")
	}
	return sb.String(), nil
}

var _ llm.Provider = (*Provider)(nil)
