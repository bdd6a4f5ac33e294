package gemini

import (
	"context"
	"testing"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDocumentState(t *testing.T) {
	tests := []struct {
		in   genai.FileState
		want domain.DocumentState
	}{
		{genai.FileStateProcessing, domain.DocumentStateProcessing},
		{genai.FileStateActive, domain.DocumentStateActive},
		{genai.FileStateFailed, domain.DocumentStateFailed},
		{genai.FileStateUnspecified, domain.DocumentStateUnspecified},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, toDocumentState(tt.in))
		})
	}
}

func TestToDocumentRef(t *testing.T) {
	ref := toDocumentRef(&genai.File{
		Name:        "files/abc",
		DisplayName: "report.pdf",
		URI:         "https://generativelanguage.googleapis.com/v1beta/files/abc",
		MIMEType:    "application/pdf",
		State:       genai.FileStateProcessing,
	})

	assert.Equal(t, "files/abc", ref.ID)
	assert.Equal(t, "report.pdf", ref.DisplayName)
	assert.Equal(t, domain.DocumentStateProcessing, ref.State)
}

func TestToParts(t *testing.T) {
	doc := domain.DocumentRef{ID: "files/abc", URI: "uri://abc", MIMEType: "application/pdf"}
	parts := toParts([]domain.Part{domain.DocumentPart(doc), domain.TextPart("Summarize")})

	require.Len(t, parts, 2)
	assert.Equal(t, genai.FileData{MIMEType: "application/pdf", URI: "uri://abc"}, parts[0])
	assert.Equal(t, genai.Text("Summarize"), parts[1])
}

func TestToParts_DropsEmptyText(t *testing.T) {
	doc := domain.DocumentRef{ID: "files/abc", URI: "uri://abc", MIMEType: "application/pdf"}
	parts := toParts([]domain.Part{domain.DocumentPart(doc), domain.TextPart("")})

	require.Len(t, parts, 1)
	assert.Equal(t, genai.FileData{MIMEType: "application/pdf", URI: "uri://abc"}, parts[0])
}

func TestToContents_SkipsTurnsWithoutContent(t *testing.T) {
	tr := domain.Transcript{
		domain.NewTextTurn(domain.RoleUser, ""),
		domain.NewTextTurn(domain.RoleModel, "answer"),
	}
	contents := toContents(tr)

	require.Len(t, contents, 1)
	assert.Equal(t, "model", contents[0].Role)
}

func TestToContents(t *testing.T) {
	tr := domain.Transcript{}.Append("question", "answer")
	contents := toContents(tr)

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, []genai.Part{genai.Text("answer")}, contents[1].Parts)
}

func TestResponseText(t *testing.T) {
	t.Run("concatenates text parts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("Issue 1. "), genai.Text("Issue 2.")}},
			}},
		}
		text, err := responseText(resp)
		require.NoError(t, err)
		assert.Equal(t, "Issue 1. Issue 2.", text)
	})

	t.Run("empty candidates", func(t *testing.T) {
		_, err := responseText(&genai.GenerateContentResponse{})
		assert.Error(t, err)
	})

	t.Run("nil response", func(t *testing.T) {
		_, err := responseText(nil)
		assert.Error(t, err)
	})
}

func TestGenerationConfig(t *testing.T) {
	gen := generationConfig(config.GeminiConfig{Temperature: 0.5, TopP: 0.95, TopK: 64, MaxOutputTokens: 2048})

	assert.InDelta(t, 0.5, gen.Temperature, 1e-6)
	assert.InDelta(t, 0.95, gen.TopP, 1e-6)
	assert.Equal(t, int32(64), gen.TopK)
	assert.Equal(t, int32(2048), gen.MaxOutputTokens)
	assert.Equal(t, "text/plain", gen.ResponseMIMEType)
}

func TestGenerationConfig_ZeroTemperatureIsKept(t *testing.T) {
	gen := generationConfig(config.GeminiConfig{Temperature: 0, TopP: 0.5, ResponseMIMEType: "application/json"})

	assert.Zero(t, gen.Temperature)
	assert.InDelta(t, 0.5, gen.TopP, 1e-6)
	assert.Equal(t, "application/json", gen.ResponseMIMEType)
}

func TestProvider_Unconfigured(t *testing.T) {
	p, err := NewProvider(context.Background(), config.GeminiConfig{})
	require.NoError(t, err)

	assert.False(t, p.IsConfigured())
	assert.Equal(t, defaultModel, p.DefaultModel())

	_, err = p.GetFile(context.Background(), "files/abc")
	assert.ErrorIs(t, err, errNotConfigured)

	_, err = p.StartChat(nil).SendMessage(context.Background(), []domain.Part{domain.TextPart("hi")})
	assert.ErrorIs(t, err, errNotConfigured)
	assert.NoError(t, p.Close())
}
