package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/liliang-cn/imagestudio/internal/config"
	"github.com/liliang-cn/imagestudio/internal/domain"
	"github.com/liliang-cn/imagestudio/internal/storage"
)

func newTestConfig() *config.Config {
	return &config.Config{
		OpenAI:     config.OpenAIConfig{APIKey: "sk-test", ChatModel: "gpt-4.1-mini"},
		Generation: config.GenerationConfig{Model: "dall-e-2", Size: "256x256", Quality: "auto"},
		Chat:       config.ChatConfig{Size: "1024x1024", Quality: "low"},
	}
}

func newTestStore(t *testing.T) *storage.ImageStore {
	t.Helper()
	return storage.NewImageStore(filepath.Join(t.TempDir(), "generated-images"), zaptest.NewLogger(t))
}

// createTestPNGData returns bytes that sniff as a PNG
func createTestPNGData(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	return data
}

func testPNGBase64() string {
	return base64.StdEncoding.EncodeToString(createTestPNGData(256))
}

type fakeGenerator struct {
	mu    sync.Mutex
	img   *domain.GeneratedImage
	err   error
	calls []domain.ImageGenerationParams
	// onCall runs with the context the service passed in
	onCall func(ctx context.Context)
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, p domain.ImageGenerationParams) (*domain.GeneratedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	if f.onCall != nil {
		f.onCall(ctx)
	}
	return f.img, f.err
}

type fakeConversation struct {
	mu      sync.Mutex
	replies []*domain.ConversationReply
	err     error
	calls   []domain.ConversationRequest
	delay   time.Duration
	seq     int
	onCall  func(ctx context.Context)
}

func (f *fakeConversation) Respond(ctx context.Context, req domain.ConversationRequest) (*domain.ConversationReply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.seq++
	seq := f.seq
	delay := f.delay
	var reply *domain.ConversationReply
	if len(f.replies) > 0 {
		reply = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	err := f.err
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall(ctx)
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return &domain.ConversationReply{
			ResponseID: fmt.Sprintf("resp_%d", seq),
			Items:      []domain.OutputItem{domain.TextOutput{Text: "ok"}},
		}, nil
	}
	return reply, nil
}

func (f *fakeConversation) Calls() []domain.ConversationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ConversationRequest(nil), f.calls...)
}
