package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liliang-cn/imagestudio/internal/domain"
)

// SessionStore holds chat sessions. Implementations return copies so
// callers can read or encode a session while other requests append to it.
type SessionStore interface {
	Create() *domain.ChatSession
	Get(id string) (*domain.ChatSession, error)
	Append(id string, message *domain.ChatMessage) (*domain.ChatSession, error)
	SetLastResponseID(id, responseID string) error
	List() []*domain.ChatSession
}

// SessionRepository keeps sessions in process memory. Sessions live until
// the process exits.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
	now      func() time.Time
}

var _ SessionStore = (*SessionRepository)(nil)

// NewSessionRepository creates a new session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*domain.ChatSession),
		now:      time.Now,
	}
}

// Create creates a new empty session
func (r *SessionRepository) Create() *domain.ChatSession {
	now := r.now()
	session := &domain.ChatSession{
		Messages:  []*domain.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		session.ID = uuid.New().String()
		if _, taken := r.sessions[session.ID]; !taken {
			break
		}
	}
	r.sessions[session.ID] = session

	return session.Clone()
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(id string) (*domain.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return session.Clone(), nil
}

// Append adds a message to the end of a session's transcript, filling in
// the id and timestamp when they are empty.
func (r *SessionRepository) Append(id string, message *domain.ChatMessage) (*domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	now := r.now()
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = now
	}
	stored := *message
	session.Messages = append(session.Messages, &stored)
	session.UpdatedAt = now

	return session.Clone(), nil
}

// SetLastResponseID records the provider response id of the latest turn
func (r *SessionRepository) SetLastResponseID(id, responseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	session.LastResponseID = responseID
	session.UpdatedAt = r.now()
	return nil
}

// List returns all sessions, oldest first
func (r *SessionRepository) List() []*domain.ChatSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*domain.ChatSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s.Clone())
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}
