package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/llm"
	"github.com/Rrens/auditlens/internal/llm/llmtest"
	"github.com/Rrens/auditlens/internal/repository/memory"
	"github.com/Rrens/auditlens/internal/repository/sqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	provider *llmtest.Provider
	repo     domain.TranscriptRepository
	registry *SessionRegistry
	chat     *ChatService
}

func newChatFixture(t *testing.T, repo domain.TranscriptRepository, cfg config.ChatConfig) *chatFixture {
	t.Helper()
	if repo == nil {
		repo = memory.NewTranscriptRepository()
	}
	provider := llmtest.New()
	registry := NewSessionRegistry()
	chat := NewChatService(
		NewIngestService(provider),
		NewPoller(provider, fastActivation()),
		NewHistoryStore(repo),
		NewConversationService(provider),
		registry,
		cfg,
	)
	return &chatFixture{provider: provider, repo: repo, registry: registry, chat: chat}
}

func TestChatService_EndToEndReport(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{Welcome: "Welcome!"})
	ctx := context.Background()

	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Welcome!", started.Welcome)
	assert.Empty(t, started.Session.History)
	id := started.Session.ID

	f.provider.ScriptStates(P, P, A)
	f.provider.SetReply(func(_ domain.Transcript, parts []domain.Part) (string, error) {
		return "Two priority issues: patching and MFA.", nil
	})
	pdf := writeTemp(t, "report.pdf", "%PDF-1.7")

	reply, err := f.chat.SendMessage(ctx, id, "Summarize priority issues", []domain.Attachment{
		{Path: pdf, Name: "report.pdf", MIMEType: domain.MIMETypePDF},
	})
	require.NoError(t, err)
	assert.NoError(t, reply.PersistError)
	assert.Equal(t, "Two priority issues: patching and MFA.", reply.Text)
	require.Len(t, reply.Documents, 1)
	assert.Equal(t, domain.DocumentStateActive, reply.Documents[0].State)
	// two processing responses then active
	assert.Equal(t, 3, f.provider.GetCalls(reply.Documents[0].ID))

	sent := f.provider.Chats()[0].Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.PartDocument, sent[0][0].Kind)
	assert.Equal(t, "Summarize priority issues", sent[0][1].Text)

	data, err := f.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"role":"user","parts":["Summarize priority issues"]},{"role":"model","parts":["Two priority issues: patching and MFA."]}]`,
		string(data))
}

func TestChatService_SendMessage_UnknownSession(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})

	_, err := f.chat.SendMessage(context.Background(), "missing", "hi", nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestChatService_SendMessage_NoValidDocuments(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()
	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)

	img := writeTemp(t, "scan.png", "png")
	_, err = f.chat.SendMessage(ctx, started.Session.ID, "hi", []domain.Attachment{
		{Path: img, Name: "scan.png", MIMEType: "image/png"},
	})
	assert.ErrorIs(t, err, domain.ErrNoValidDocuments)
	assert.Empty(t, f.provider.Chats()[0].Sent())
}

func TestChatService_SendMessage_FailedDocumentIsNotSent(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()
	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)

	f.provider.ScriptStates(P, F)
	pdf := writeTemp(t, "report.pdf", "x")
	_, err = f.chat.SendMessage(ctx, started.Session.ID, "hi", []domain.Attachment{
		{Path: pdf, Name: "report.pdf", MIMEType: domain.MIMETypePDF},
	})

	var procErr *domain.DocumentProcessingError
	assert.ErrorAs(t, err, &procErr)
	assert.Empty(t, f.provider.Chats()[0].Sent())

	history, err := f.chat.History(ctx, started.Session.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatService_SendMessage_PersistFailureStillReplies(t *testing.T) {
	repo := new(MockTranscriptRepository)
	repo.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("read-only file system"))

	f := newChatFixture(t, repo, config.ChatConfig{})
	ctx := context.Background()
	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)

	reply, err := f.chat.SendMessage(ctx, started.Session.ID, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, `reply to "hello" with 0 document(s)`, reply.Text)

	var storageErr *domain.StorageError
	assert.ErrorAs(t, reply.PersistError, &storageErr)
}

func TestChatService_ResumeUnknownThenAppend(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()

	info, err := f.chat.ResumeChat(ctx, "fresh-id")
	require.NoError(t, err)
	assert.True(t, info.Resumed)
	assert.Empty(t, info.History)

	_, err = f.chat.SendMessage(ctx, "fresh-id", "q", nil)
	require.NoError(t, err)

	history, err := f.chat.History(ctx, "fresh-id")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.NoError(t, history[0].Validate())
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleModel, history[1].Role)
}

func TestChatService_ResumeSeedsFromTranscript(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{Priming: true})
	ctx := context.Background()

	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	id := started.Session.ID
	_, err = f.chat.SendMessage(ctx, id, "first", nil)
	require.NoError(t, err)
	require.NoError(t, f.chat.EndChat(id))

	info, err := f.chat.ResumeChat(ctx, id)
	require.NoError(t, err)
	require.Len(t, info.History, 2)

	chats := f.provider.Chats()
	require.Len(t, chats, 2)
	seed := chats[1].Seed
	// priming pair followed by the persisted pair
	require.Len(t, seed, 4)
	assert.Equal(t, llm.PrimingQuestion, seed[0].Text())
	assert.Equal(t, "first", seed[2].Text())

	// priming is never written to history
	history, err := f.chat.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestChatService_ResumeLiveSessionIsIdempotent(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()

	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	id := started.Session.ID

	info, err := f.chat.ResumeChat(ctx, id)
	require.NoError(t, err)
	assert.False(t, info.Resumed)
	assert.Equal(t, 1, f.registry.Len())
	assert.Len(t, f.provider.Chats(), 1)
}

func TestChatService_EndChat(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()

	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	id := started.Session.ID
	_, err = f.chat.SendMessage(ctx, id, "q", nil)
	require.NoError(t, err)

	sess, _ := f.registry.Get(id)
	require.NoError(t, f.chat.EndChat(id))
	assert.Equal(t, domain.SessionStateClosed, sess.State())
	assert.ErrorIs(t, f.chat.EndChat(id), domain.ErrSessionNotFound)

	_, err = f.chat.SendMessage(ctx, id, "again", nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	history, err := f.chat.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestChatService_LateAppendAfterEnd(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()

	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	id := started.Session.ID

	release := make(chan struct{})
	entered := make(chan struct{})
	f.provider.SetReply(func(_ domain.Transcript, parts []domain.Part) (string, error) {
		close(entered)
		<-release
		return "late answer", nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.chat.SendMessage(ctx, id, "slow question", nil)
		done <- err
	}()

	<-entered
	require.NoError(t, f.chat.EndChat(id))
	close(release)
	require.NoError(t, <-done)

	history, err := f.chat.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "late answer", history[1].Text())
}

func TestChatService_EndDuringActivationKeepsTurn(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()

	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	id := started.Session.ID

	var once sync.Once
	f.provider.OnGet(func(string) {
		once.Do(func() { assert.NoError(t, f.chat.EndChat(id)) })
	})
	f.provider.ScriptStates(P, P, P, A)
	pdf := writeTemp(t, "report.pdf", "%PDF-1.7")

	reply, err := f.chat.SendMessage(ctx, id, "Summarize priority issues", []domain.Attachment{
		{Path: pdf, Name: "report.pdf", MIMEType: domain.MIMETypePDF},
	})
	require.NoError(t, err)
	assert.NoError(t, reply.PersistError)
	_, live := f.registry.Get(id)
	assert.False(t, live)

	history, err := f.chat.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Summarize priority issues", history[0].Text())
}

func TestChatService_CancelledAfterReplyStillPersists(t *testing.T) {
	db, err := sqldb.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := newChatFixture(t, sqldb.NewTranscriptRepository(db), config.ChatConfig{})
	started, err := f.chat.StartChat(context.Background())
	require.NoError(t, err)
	id := started.Session.ID

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.provider.SetReply(func(domain.Transcript, []domain.Part) (string, error) {
		cancel()
		return "billed answer", nil
	})

	reply, err := f.chat.SendMessage(ctx, id, "question", nil)
	require.NoError(t, err)
	assert.Equal(t, "billed answer", reply.Text)
	assert.NoError(t, reply.PersistError)

	history, err := f.chat.History(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "billed answer", history[1].Text())
}

func TestChatService_DocumentsOnlyTurnResumes(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()

	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	id := started.Session.ID

	pdf := writeTemp(t, "report.pdf", "%PDF-1.7")
	reply, err := f.chat.SendMessage(ctx, id, "", []domain.Attachment{
		{Path: pdf, Name: "report.pdf", MIMEType: domain.MIMETypePDF},
	})
	require.NoError(t, err)
	require.Len(t, reply.Documents, 1)
	uri := reply.Documents[0].URI

	data, err := f.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"role":"user","parts":["`+uri+`"]},{"role":"model","parts":["reply to \"\" with 1 document(s)"]}]`,
		string(data))

	require.NoError(t, f.chat.EndChat(id))
	info, err := f.chat.ResumeChat(ctx, id)
	require.NoError(t, err)
	require.Len(t, info.History, 2)

	seed := f.provider.Chats()[1].Seed
	require.Len(t, seed, 2)
	for _, turn := range seed {
		assert.NoError(t, turn.Validate())
		assert.NotEmpty(t, turn.Text())
	}
	assert.Equal(t, uri, seed[0].Text())
}

func TestPersistedText(t *testing.T) {
	refs := []domain.DocumentRef{
		{ID: "files/a", URI: "https://files.test/a"},
		{ID: "files/b"},
	}

	assert.Equal(t, "question", persistedText("question", refs))
	assert.Equal(t, "", persistedText("", nil))
	assert.Equal(t, "https://files.test/a\nfiles/b", persistedText("", refs))
}

func TestChatService_SessionsAreIsolated(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()

	a, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	b, err := f.chat.StartChat(ctx)
	require.NoError(t, err)

	const turns = 10
	var wg sync.WaitGroup
	for _, id := range []string{a.Session.ID, b.Session.ID} {
		for i := 0; i < turns; i++ {
			wg.Add(1)
			go func(id string, i int) {
				defer wg.Done()
				_, err := f.chat.SendMessage(ctx, id, fmt.Sprintf("%s-q%d", id, i), nil)
				assert.NoError(t, err)
			}(id, i)
		}
	}
	wg.Wait()

	for _, id := range []string{a.Session.ID, b.Session.ID} {
		history, err := f.chat.History(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 2*turns)
		for i, turn := range history {
			if i%2 == 0 {
				assert.True(t, strings.HasPrefix(turn.Text(), id+"-"), "turn %q leaked into %s", turn.Text(), id)
			}
		}
	}
}

func TestChatService_TurnsRunInOrder(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()

	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	id := started.Session.ID

	// sequential sends from one caller must persist in call order
	for i := 0; i < 5; i++ {
		_, err := f.chat.SendMessage(ctx, id, fmt.Sprintf("q%d", i), nil)
		require.NoError(t, err)
	}

	history, err := f.chat.History(ctx, id)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("q%d", i), history[2*i].Text())
	}
}

func TestChatService_ListSessions(t *testing.T) {
	f := newChatFixture(t, nil, config.ChatConfig{})
	ctx := context.Background()

	require.NoError(t, f.repo.Put(ctx, "archived", []byte("[]")))
	started, err := f.chat.StartChat(ctx)
	require.NoError(t, err)
	_, err = f.chat.SendMessage(ctx, started.Session.ID, "q", nil)
	require.NoError(t, err)

	sessions, err := f.chat.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	live := map[string]bool{}
	for _, s := range sessions {
		live[s.ID] = s.Live
	}
	assert.False(t, live["archived"])
	assert.True(t, live[started.Session.ID])
}
