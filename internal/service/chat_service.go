package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/config"
	"github.com/liliang-cn/imagestudio/internal/domain"
	"github.com/liliang-cn/imagestudio/internal/logging"
	"github.com/liliang-cn/imagestudio/internal/repository"
	"github.com/liliang-cn/imagestudio/internal/storage"
)

const (
	imageOnlyReply = "I've generated an image based on your request."
	fallbackReply  = "I understand your request. How would you like me to help you with image generation?"
	apologyPrefix  = "I apologize, but I encountered an error processing your request: "
)

// Conversationalist answers chat turns, keeping context on the provider side
type Conversationalist interface {
	Respond(ctx context.Context, req domain.ConversationRequest) (*domain.ConversationReply, error)
}

// ChatService handles multi-turn chat with in-conversation image generation
type ChatService struct {
	sessions repository.SessionStore
	provider Conversationalist
	images   *ImageOutputProcessor
	model    string
	defaults config.ChatConfig
	locks    *keyedMutex
	logger   *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	cfg *config.Config,
	sessions repository.SessionStore,
	provider Conversationalist,
	images *ImageOutputProcessor,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		sessions: sessions,
		provider: provider,
		images:   images,
		model:    cfg.OpenAI.ChatModel,
		defaults: cfg.Chat,
		locks:    newKeyedMutex(),
		logger:   logger,
	}
}

// CreateSession starts an empty session
func (s *ChatService) CreateSession(ctx context.Context) *domain.ChatSession {
	session := s.sessions.Create()
	logging.For(ctx, s.logger).Info("Chat session created", zap.String("session_id", session.ID))
	return session
}

// GetSession returns a session or domain.ErrNotFound
func (s *ChatService) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	return s.sessions.Get(id)
}

// ListSessions returns all live sessions
func (s *ChatService) ListSessions(ctx context.Context) []*domain.ChatSession {
	return s.sessions.List()
}

// ProcessMessage runs one chat turn. Provider failures do not surface as
// errors: they become an assistant message in the transcript.
func (s *ChatService) ProcessMessage(ctx context.Context, sessionID, message string, opts domain.ChatOptions) (*domain.ChatResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidRequest)
	}
	// A turn is never cancelled midway; the transcript and the provider
	// context must agree on how it ended.
	ctx = context.WithoutCancel(ctx)

	log := logging.For(ctx, s.logger)
	session, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(session.ID)
	defer unlock()

	// Re-read under the lock to pick up the latest response id
	session, err = s.sessions.Get(session.ID)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("session_id", session.ID))

	if _, err := s.sessions.Append(session.ID, &domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: message,
	}); err != nil {
		return nil, err
	}

	size := firstNonEmpty(opts.Size, s.defaults.Size)
	quality := firstNonEmpty(opts.Quality, s.defaults.Quality)

	log.Info("Processing chat message",
		zap.String("size", size),
		zap.String("quality", quality),
		zap.String("previous_response_id", session.LastResponseID),
	)

	reply, err := s.provider.Respond(ctx, domain.ConversationRequest{
		Model:              s.model,
		Input:              message,
		PreviousResponseID: session.LastResponseID,
		ImageSize:          size,
		ImageQuality:       quality,
	})
	if err != nil {
		log.Error("Chat provider call failed", zap.Error(err))
		return s.appendAssistant(session.ID, &domain.ChatMessage{Content: apologyPrefix + err.Error()})
	}

	if err := s.sessions.SetLastResponseID(session.ID, reply.ResponseID); err != nil {
		return nil, err
	}

	saved, err := s.images.Process(ctx, reply.Items, storage.FilenameParams{
		Model:   s.model,
		Size:    size,
		Quality: quality,
		Prompt:  message,
	})
	if err != nil {
		log.Error("Failed to save chat image", zap.Error(err))
		return s.appendAssistant(session.ID, &domain.ChatMessage{Content: apologyPrefix + err.Error()})
	}

	response := &domain.ChatMessage{
		Content:    replyText(reply.Items),
		ResponseID: reply.ResponseID,
	}
	if saved != nil {
		response.LocalImageURL = saved.LocalImageURL
		response.Filename = saved.Filename
		if response.Content == "" {
			response.Content = imageOnlyReply
		}
	}
	if response.Content == "" {
		response.Content = fallbackReply
	}

	result, err := s.appendAssistant(session.ID, response)
	if err != nil {
		return nil, err
	}

	log.Info("Chat message processed",
		zap.String("response_id", reply.ResponseID),
		zap.Bool("has_image", saved != nil),
		zap.Int("messages", len(result.Session.Messages)),
	)
	return result, nil
}

func (s *ChatService) resolveSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	if id != "" {
		session, err := s.sessions.Get(id)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		logging.For(ctx, s.logger).Info("Unknown session id, starting a new session", zap.String("requested_id", id))
	}
	return s.CreateSession(ctx), nil
}

func (s *ChatService) appendAssistant(sessionID string, msg *domain.ChatMessage) (*domain.ChatResult, error) {
	msg.Role = domain.RoleAssistant
	session, err := s.sessions.Append(sessionID, msg)
	if err != nil {
		return nil, err
	}
	return &domain.ChatResult{
		Session:  session,
		Response: session.Messages[len(session.Messages)-1],
	}, nil
}

func replyText(items []domain.OutputItem) string {
	var parts []string
	for _, item := range items {
		if t, ok := item.(domain.TextOutput); ok {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, "\n")
}
