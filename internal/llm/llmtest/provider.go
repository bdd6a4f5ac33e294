// Package llmtest provides a scripted in-process llm.Provider for tests.
package llmtest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/llm"
)

// ReplyFunc produces the model reply for a sent turn
type ReplyFunc func(seed domain.Transcript, parts []domain.Part) (string, error)

// Provider is a fake remote model service. Uploaded files walk through the
// scripted state sequence on each GetFile; the last state repeats.
type Provider struct {
	mu sync.Mutex

	script    []domain.DocumentState
	files     map[string]*file
	chats     []*Chat
	nextID    int
	reply     ReplyFunc
	uploadErr error
	getErr    error
	onGet     func(id string)
}

type file struct {
	ref     domain.DocumentRef
	states  []domain.DocumentState
	calls   int
	content []byte
}

// New creates a fake provider whose files are active immediately
func New() *Provider {
	return &Provider{
		files: make(map[string]*file),
		reply: EchoReply,
	}
}

// EchoReply answers with the text parts of the turn and the number of documents
func EchoReply(_ domain.Transcript, parts []domain.Part) (string, error) {
	var texts []string
	docs := 0
	for _, p := range parts {
		if p.Kind == domain.PartDocument {
			docs++
			continue
		}
		texts = append(texts, p.Text)
	}
	return fmt.Sprintf("reply to %q with %d document(s)", strings.Join(texts, " "), docs), nil
}

// ScriptStates sets the GetFile state sequence for files uploaded afterwards
func (p *Provider) ScriptStates(states ...domain.DocumentState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append([]domain.DocumentState(nil), states...)
}

// SetReply replaces the reply function
func (p *Provider) SetReply(fn ReplyFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reply = fn
}

// FailUploads makes every UploadFile call fail with err
func (p *Provider) FailUploads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploadErr = err
}

// FailGets makes every GetFile call fail with err
func (p *Provider) FailGets(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getErr = err
}

// OnGet runs fn at the start of every GetFile call, outside the provider lock
func (p *Provider) OnGet(fn func(id string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onGet = fn
}

// AddFile registers a file that was uploaded out of band
func (p *Provider) AddFile(ref domain.DocumentRef, states ...domain.DocumentState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[ref.ID] = &file{ref: ref, states: states}
}

// GetCalls returns how many times GetFile was called for id
func (p *Provider) GetCalls(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.files[id]; ok {
		return f.calls
	}
	return 0
}

// Uploaded returns the bytes received for id
func (p *Provider) Uploaded(id string) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.files[id]; ok {
		return f.content
	}
	return nil
}

// Chats returns every chat started so far
func (p *Provider) Chats() []*Chat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Chat(nil), p.chats...)
}

func (p *Provider) Name() string         { return "fake" }
func (p *Provider) DefaultModel() string { return "fake-model" }
func (p *Provider) IsConfigured() bool   { return true }
func (p *Provider) Close() error         { return nil }

func (p *Provider) UploadFile(ctx context.Context, displayName string, r io.Reader, mimeType string) (domain.DocumentRef, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return domain.DocumentRef{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.uploadErr != nil {
		return domain.DocumentRef{}, p.uploadErr
	}

	p.nextID++
	id := fmt.Sprintf("files/file-%d", p.nextID)
	state := domain.DocumentStateActive
	if len(p.script) > 0 {
		state = domain.DocumentStateProcessing
	}
	ref := domain.DocumentRef{
		ID:          id,
		DisplayName: displayName,
		URI:         "https://files.test/v1beta/" + id,
		MIMEType:    mimeType,
		State:       state,
	}
	p.files[id] = &file{
		ref:     ref,
		states:  append([]domain.DocumentState(nil), p.script...),
		content: content,
	}
	return ref, nil
}

func (p *Provider) GetFile(ctx context.Context, id string) (domain.DocumentRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.DocumentRef{}, err
	}

	p.mu.Lock()
	hook := p.onGet
	p.mu.Unlock()
	if hook != nil {
		hook(id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return domain.DocumentRef{}, p.getErr
	}

	f, ok := p.files[id]
	if !ok {
		return domain.DocumentRef{}, fmt.Errorf("file %s not found", id)
	}

	state := domain.DocumentStateActive
	if len(f.states) > 0 {
		idx := f.calls
		if idx >= len(f.states) {
			idx = len(f.states) - 1
		}
		state = f.states[idx]
	}
	f.calls++

	ref := f.ref
	ref.State = state
	return ref, nil
}

func (p *Provider) StartChat(seed domain.Transcript) llm.ChatHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &Chat{provider: p, Seed: seed.Clone()}
	p.chats = append(p.chats, c)
	return c
}

// Chat records every turn sent through it
type Chat struct {
	provider *Provider
	Seed     domain.Transcript

	mu   sync.Mutex
	sent [][]domain.Part
}

// Sent returns the recorded turns
func (c *Chat) Sent() [][]domain.Part {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]domain.Part(nil), c.sent...)
}

func (c *Chat) SendMessage(ctx context.Context, parts []domain.Part) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.provider.mu.Lock()
	reply := c.provider.reply
	c.provider.mu.Unlock()

	c.mu.Lock()
	c.sent = append(c.sent, append([]domain.Part(nil), parts...))
	c.mu.Unlock()

	return reply(c.Seed, parts)
}

var _ llm.Provider = (*Provider)(nil)
