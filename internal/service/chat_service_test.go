package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/liliang-cn/imagestudio/internal/domain"
	"github.com/liliang-cn/imagestudio/internal/repository"
	"github.com/liliang-cn/imagestudio/internal/storage"
)

type chatFixture struct {
	svc      *ChatService
	sessions *repository.SessionRepository
	provider *fakeConversation
	store    *storage.ImageStore
}

func newChatFixture(t *testing.T, provider *fakeConversation) *chatFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sessions := repository.NewSessionRepository()
	store := newTestStore(t)
	return &chatFixture{
		svc:      NewChatService(newTestConfig(), sessions, provider, NewImageOutputProcessor(store, logger), logger),
		sessions: sessions,
		provider: provider,
		store:    store,
	}
}

func TestChatService_NewSession(t *testing.T) {
	f := newChatFixture(t, &fakeConversation{})

	res, err := f.svc.ProcessMessage(context.Background(), "", "hello", domain.ChatOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, res.Session.ID)
	require.Len(t, res.Session.Messages, 2)
	assert.Equal(t, domain.RoleUser, res.Session.Messages[0].Role)
	assert.Equal(t, "hello", res.Session.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, res.Response.Role)
	assert.Equal(t, "ok", res.Response.Content)
	assert.Equal(t, "resp_1", res.Response.ResponseID)
	assert.Equal(t, "resp_1", res.Session.LastResponseID)

	calls := f.provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.ConversationRequest{
		Model:        "gpt-4.1-mini",
		Input:        "hello",
		ImageSize:    "1024x1024",
		ImageQuality: "low",
	}, calls[0])
}

func TestChatService_ContinuesConversation(t *testing.T) {
	f := newChatFixture(t, &fakeConversation{})
	ctx := context.Background()

	first, err := f.svc.ProcessMessage(ctx, "", "draw a cat", domain.ChatOptions{})
	require.NoError(t, err)

	second, err := f.svc.ProcessMessage(ctx, first.Session.ID, "make it orange", domain.ChatOptions{Size: "1536x1024", Quality: "high"})
	require.NoError(t, err)

	assert.Equal(t, first.Session.ID, second.Session.ID)
	assert.Len(t, second.Session.Messages, 4)
	assert.Equal(t, "resp_2", second.Session.LastResponseID)

	calls := f.provider.Calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].PreviousResponseID)
	assert.Equal(t, "resp_1", calls[1].PreviousResponseID)
	assert.Equal(t, "1536x1024", calls[1].ImageSize)
	assert.Equal(t, "high", calls[1].ImageQuality)

	stored, err := f.sessions.Get(first.Session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 4)
}

func TestChatService_UnknownSessionStartsNewOne(t *testing.T) {
	f := newChatFixture(t, &fakeConversation{})

	res, err := f.svc.ProcessMessage(context.Background(), "does-not-exist", "hi", domain.ChatOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, "does-not-exist", res.Session.ID)
	assert.Len(t, res.Session.Messages, 2)
	assert.Len(t, f.sessions.List(), 1)
}

func TestChatService_EmptyMessage(t *testing.T) {
	f := newChatFixture(t, &fakeConversation{})

	_, err := f.svc.ProcessMessage(context.Background(), "", "  ", domain.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, f.provider.Calls())
	assert.Empty(t, f.sessions.List())
}

func TestChatService_ProviderErrorBecomesApology(t *testing.T) {
	provider := &fakeConversation{}
	f := newChatFixture(t, provider)
	ctx := context.Background()

	first, err := f.svc.ProcessMessage(ctx, "", "hello", domain.ChatOptions{})
	require.NoError(t, err)

	provider.mu.Lock()
	provider.err = errors.New("rate limited")
	provider.mu.Unlock()

	res, err := f.svc.ProcessMessage(ctx, first.Session.ID, "again", domain.ChatOptions{})
	require.NoError(t, err)

	assert.Equal(t, "I apologize, but I encountered an error processing your request: rate limited", res.Response.Content)
	assert.Equal(t, domain.RoleAssistant, res.Response.Role)
	assert.Empty(t, res.Response.ResponseID)
	assert.Len(t, res.Session.Messages, 4)
	assert.Equal(t, "resp_1", res.Session.LastResponseID)
}

func TestChatService_SavesGeneratedImage(t *testing.T) {
	provider := &fakeConversation{replies: []*domain.ConversationReply{{
		ResponseID: "resp_img",
		Items: []domain.OutputItem{
			domain.ImageGenerationOutput{ID: "ig_1", Status: "completed", Result: testPNGBase64()},
		},
	}}}
	f := newChatFixture(t, provider)

	res, err := f.svc.ProcessMessage(context.Background(), "", "a sailing boat", domain.ChatOptions{})
	require.NoError(t, err)

	assert.Equal(t, "I've generated an image based on your request.", res.Response.Content)
	require.NotEmpty(t, res.Response.Filename)
	assert.Equal(t, "/images/"+res.Response.Filename, res.Response.LocalImageURL)
	assert.Contains(t, res.Response.Filename, "gpt-4.1-mini_1024_1024_low_")
	assert.Contains(t, res.Response.Filename, "_a_sailing_boat.png")

	files, err := f.store.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, res.Response.Filename, files[0].Name)
}

func TestChatService_CallerCancelledMidTurn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var providerErr error
	provider := &fakeConversation{
		replies: []*domain.ConversationReply{{
			ResponseID: "resp_img",
			Items: []domain.OutputItem{
				domain.ImageGenerationOutput{ID: "ig_1", Status: "completed", Result: testPNGBase64()},
			},
		}},
		onCall: func(ctx context.Context) {
			cancel()
			providerErr = ctx.Err()
		},
	}
	f := newChatFixture(t, provider)

	res, err := f.svc.ProcessMessage(ctx, "", "a sailing boat", domain.ChatOptions{})
	require.NoError(t, err)
	assert.NoError(t, providerErr)

	assert.Equal(t, "I've generated an image based on your request.", res.Response.Content)
	assert.FileExists(t, filepath.Join(f.store.Dir(), res.Response.Filename))

	stored, err := f.sessions.Get(res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "resp_img", stored.LastResponseID)
}

func TestChatService_ReplyText(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.OutputItem
		want  string
	}{
		{
			name:  "joined text",
			items: []domain.OutputItem{domain.TextOutput{Text: "first"}, domain.TextOutput{Text: "second"}},
			want:  "first\nsecond",
		},
		{
			name:  "no output",
			items: nil,
			want:  "I understand your request. How would you like me to help you with image generation?",
		},
		{
			name:  "image without data",
			items: []domain.OutputItem{domain.ImageGenerationOutput{ID: "ig_1", Status: "failed"}},
			want:  "I understand your request. How would you like me to help you with image generation?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeConversation{replies: []*domain.ConversationReply{{ResponseID: "resp_x", Items: tt.items}}}
			f := newChatFixture(t, provider)

			res, err := f.svc.ProcessMessage(context.Background(), "", "hi", domain.ChatOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Response.Content)
			assert.Empty(t, res.Response.Filename)
		})
	}
}

func TestChatService_InvalidImageBecomesApology(t *testing.T) {
	provider := &fakeConversation{replies: []*domain.ConversationReply{{
		ResponseID: "resp_bad",
		Items:      []domain.OutputItem{domain.ImageGenerationOutput{ID: "ig_1", Result: "not base64!"}},
	}}}
	f := newChatFixture(t, provider)

	res, err := f.svc.ProcessMessage(context.Background(), "", "hi", domain.ChatOptions{})
	require.NoError(t, err)

	assert.Contains(t, res.Response.Content, "I apologize, but I encountered an error processing your request: ")
	// the provider accepted the turn, so the conversation continues from it
	assert.Equal(t, "resp_bad", res.Session.LastResponseID)
}

func TestChatService_SerializesTurnsPerSession(t *testing.T) {
	provider := &fakeConversation{delay: 20 * time.Millisecond}
	f := newChatFixture(t, provider)
	ctx := context.Background()

	session := f.svc.CreateSession(ctx)

	const turns = 4
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ProcessMessage(ctx, session.ID, "hello", domain.ChatOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.sessions.Get(session.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2*turns)
	for i, msg := range stored.Messages {
		if i%2 == 0 {
			assert.Equal(t, domain.RoleUser, msg.Role, "message %d", i)
		} else {
			assert.Equal(t, domain.RoleAssistant, msg.Role, "message %d", i)
		}
	}

	// every turn but the first continues from the one before it
	calls := provider.Calls()
	require.Len(t, calls, turns)
	seen := map[string]bool{}
	for _, c := range calls[1:] {
		assert.NotEmpty(t, c.PreviousResponseID)
		assert.False(t, seen[c.PreviousResponseID])
		seen[c.PreviousResponseID] = true
	}
	assert.Empty(t, calls[0].PreviousResponseID)
}

func TestChatService_GetAndListSessions(t *testing.T) {
	f := newChatFixture(t, &fakeConversation{})
	ctx := context.Background()

	_, err := f.svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	s := f.svc.CreateSession(ctx)
	got, err := f.svc.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Len(t, f.svc.ListSessions(ctx), 1)
}
