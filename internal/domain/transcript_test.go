package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/Rrens/auditlens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurn_MarshalJSON_DocumentsStoredByURI(t *testing.T) {
	doc := domain.DocumentRef{
		ID:    "files/abc123",
		URI:   "https://generativelanguage.googleapis.com/v1beta/files/abc123",
		State: domain.DocumentStateActive,
	}
	turn := domain.Turn{
		Role:  domain.RoleUser,
		Parts: []domain.Part{domain.DocumentPart(doc), domain.TextPart("Summarize priority issues")},
	}

	data, err := json.Marshal(turn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","parts":["https://generativelanguage.googleapis.com/v1beta/files/abc123","Summarize priority issues"]}`, string(data))
}

func TestTurn_UnmarshalJSON_LegacyParts(t *testing.T) {
	data := []byte(`{"role":"model","parts":["plain",{"text":"from object"}]}`)

	var turn domain.Turn
	require.NoError(t, json.Unmarshal(data, &turn))

	assert.Equal(t, domain.RoleModel, turn.Role)
	require.Len(t, turn.Parts, 2)
	assert.Equal(t, "plain", turn.Parts[0].Text)
	assert.Equal(t, "from object", turn.Parts[1].Text)
	assert.Equal(t, domain.PartText, turn.Parts[1].Kind)
}

func TestTurn_Validate(t *testing.T) {
	tests := []struct {
		name    string
		turn    domain.Turn
		wantErr bool
	}{
		{"valid user", domain.NewTextTurn(domain.RoleUser, "hi"), false},
		{"valid model", domain.NewTextTurn(domain.RoleModel, "hello"), false},
		{"no parts", domain.Turn{Role: domain.RoleUser}, true},
		{"bad role", domain.Turn{Role: "assistant", Parts: []domain.Part{domain.TextPart("x")}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.turn.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTranscript_AppendAndEncode(t *testing.T) {
	var tr domain.Transcript
	tr = tr.Append("q1", "a1")
	tr = tr.Append("q2", "a2")

	data, err := domain.MarshalTranscript(tr)
	require.NoError(t, err)

	decoded, err := domain.UnmarshalTranscript(data)
	require.NoError(t, err)
	require.Len(t, decoded, 4)
	assert.Equal(t, domain.RoleUser, decoded[0].Role)
	assert.Equal(t, "q1", decoded[0].Text())
	assert.Equal(t, domain.RoleModel, decoded[3].Role)
	assert.Equal(t, "a2", decoded[3].Text())
}

func TestMarshalTranscript_NilIsEmptyArray(t *testing.T) {
	data, err := domain.MarshalTranscript(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestUnmarshalTranscript_Empty(t *testing.T) {
	tr, err := domain.UnmarshalTranscript(nil)
	require.NoError(t, err)
	assert.NotNil(t, tr)
	assert.Empty(t, tr)

	_, err = domain.UnmarshalTranscript([]byte("{not json"))
	assert.Error(t, err)
}

func TestUnmarshalTranscript_RejectsInvalidTurns(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty parts", `[{"role":"user","parts":[]}]`},
		{"missing parts", `[{"role":"model"}]`},
		{"unknown role", `[{"role":"assistant","parts":["x"]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.UnmarshalTranscript([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestTranscript_CloneIsIndependent(t *testing.T) {
	tr := domain.Transcript{}.Append("q", "a")
	clone := tr.Clone()
	clone[0].Parts[0] = domain.TextPart("changed")

	assert.Equal(t, "q", tr[0].Text())
}
