package domain

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a chat transcript. Messages are never edited
// after they have been appended to a session.
type ChatMessage struct {
	ID            string    `json:"id"`
	Role          string    `json:"role"` // user, assistant
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	LocalImageURL string    `json:"localImageUrl,omitempty"`
	Filename      string    `json:"filename,omitempty"`
	ResponseID    string    `json:"responseId,omitempty"`
}

// ChatSession is an in-memory conversation
type ChatSession struct {
	ID        string         `json:"id"`
	Messages  []*ChatMessage `json:"messages"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	// LastResponseID is the provider id of the most recent successful turn;
	// empty means the next call starts a fresh provider-side context.
	LastResponseID string `json:"lastResponseId,omitempty"`
}

// Clone returns a copy that shares no mutable state with s
func (s *ChatSession) Clone() *ChatSession {
	c := *s
	c.Messages = make([]*ChatMessage, len(s.Messages))
	for i, m := range s.Messages {
		mc := *m
		c.Messages[i] = &mc
	}
	return &c
}

// ChatRequest is the request to send a chat message
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
	Size      string `json:"size,omitempty"`
	Quality   string `json:"quality,omitempty"`
}

// ChatOptions tunes the image generation tool offered to the provider
type ChatOptions struct {
	Size    string
	Quality string
}

// ChatResult is the outcome of one chat turn
type ChatResult struct {
	Session  *ChatSession `json:"session"`
	Response *ChatMessage `json:"response"`
}
