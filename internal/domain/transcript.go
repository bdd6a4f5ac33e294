package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role represents the sender of a turn
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// PartKind tags the content carried by a Part
type PartKind string

const (
	PartText     PartKind = "text"
	PartDocument PartKind = "document"
)

// Part is one content item of a turn: either text or a document reference
type Part struct {
	Kind     PartKind
	Text     string
	Document DocumentRef
}

// TextPart creates a text part
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// DocumentPart creates a document part
func DocumentPart(doc DocumentRef) Part {
	return Part{Kind: PartDocument, Document: doc}
}

// String returns the textual form persisted for the part
func (p Part) String() string {
	if p.Kind == PartDocument {
		if p.Document.URI != "" {
			return p.Document.URI
		}
		return p.Document.ID
	}
	return p.Text
}

// Turn is one message of a transcript
type Turn struct {
	Role  Role
	Parts []Part
}

// NewTextTurn creates a turn holding a single text part
func NewTextTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []Part{TextPart(text)}}
}

// Text joins all text parts of the turn
func (t Turn) Text() string {
	var texts []string
	for _, p := range t.Parts {
		if p.Kind == PartText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Validate checks the turn invariants
func (t Turn) Validate() error {
	if t.Role != RoleUser && t.Role != RoleModel {
		return fmt.Errorf("invalid role %q", t.Role)
	}
	if len(t.Parts) == 0 {
		return errors.New("turn has no parts")
	}
	return nil
}

type persistedTurn struct {
	Role  Role              `json:"role"`
	Parts []json.RawMessage `json:"parts"`
}

// MarshalJSON encodes the turn as {"role": ..., "parts": [string, ...]}.
// Documents are stored by URI; their bytes are never persisted.
func (t Turn) MarshalJSON() ([]byte, error) {
	parts := make([]string, len(t.Parts))
	for i, p := range t.Parts {
		parts[i] = p.String()
	}
	return json.Marshal(struct {
		Role  Role     `json:"role"`
		Parts []string `json:"parts"`
	}{Role: t.Role, Parts: parts})
}

// UnmarshalJSON decodes a persisted turn. Parts may be plain strings or
// objects carrying a "text" field.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw persistedTurn
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parts := make([]Part, 0, len(raw.Parts))
	for _, rp := range raw.Parts {
		var s string
		if err := json.Unmarshal(rp, &s); err == nil {
			parts = append(parts, TextPart(s))
			continue
		}
		var obj struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(rp, &obj); err == nil && obj.Text != nil {
			parts = append(parts, TextPart(*obj.Text))
			continue
		}
		parts = append(parts, TextPart(string(bytes.TrimSpace(rp))))
	}

	t.Role = raw.Role
	t.Parts = parts
	return nil
}

// Transcript is an ordered conversation record; insertion order is conversation order
type Transcript []Turn

// Append adds one user turn and one model turn
func (tr Transcript) Append(userText, modelText string) Transcript {
	return append(tr, NewTextTurn(RoleUser, userText), NewTextTurn(RoleModel, modelText))
}

// Clone returns a copy that shares no backing arrays with tr
func (tr Transcript) Clone() Transcript {
	if tr == nil {
		return Transcript{}
	}
	out := make(Transcript, len(tr))
	for i, turn := range tr {
		out[i] = Turn{Role: turn.Role, Parts: append([]Part(nil), turn.Parts...)}
	}
	return out
}

// MarshalTranscript encodes a transcript as a JSON array
func MarshalTranscript(tr Transcript) ([]byte, error) {
	if tr == nil {
		tr = Transcript{}
	}
	return json.Marshal(tr)
}

// UnmarshalTranscript decodes a JSON array of turns. Empty input is an empty
// transcript. Every decoded turn must be valid.
func UnmarshalTranscript(data []byte) (Transcript, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Transcript{}, nil
	}
	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	for i, turn := range tr {
		if err := turn.Validate(); err != nil {
			return nil, fmt.Errorf("invalid turn %d: %w", i, err)
		}
	}
	if tr == nil {
		tr = Transcript{}
	}
	return tr, nil
}
