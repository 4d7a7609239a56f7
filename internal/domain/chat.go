package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatStatus represents the lifecycle state of a chat
type ChatStatus string

const (
	// StatusOpen means the chat still accepts new messages
	StatusOpen ChatStatus = "OPEN"
	// StatusClose means the chat is closed and rejects appends
	StatusClose ChatStatus = "CLOSE"
)

// Valid reports whether the status is one of the two known values
func (s ChatStatus) Valid() bool {
	return s == StatusOpen || s == StatusClose
}

// Chat represents a support conversation. The owner is the email of the
// user who created it and never changes afterwards.
type Chat struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Owner     string     `json:"owner"`
	Status    ChatStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// ChatSummary is the projection used by list views: enough to render a
// chat row without fetching the message log.
type ChatSummary struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	MessageCount int64      `json:"message_count"`
	Status       ChatStatus `json:"status"`
}

// ChatCreate represents the payload for opening a new chat
type ChatCreate struct {
	Title  string     `json:"title" validate:"required,max=255"`
	Status ChatStatus `json:"status,omitempty"`
}

// ChatStatusUpdate represents a status transition request
type ChatStatusUpdate struct {
	Status ChatStatus `json:"status" validate:"required"`
}

// ChatRepository defines the interface for chat storage
type ChatRepository interface {
	Create(ctx context.Context, chat *Chat) error
	Get(ctx context.Context, id uuid.UUID) (*Chat, error)
	List(ctx context.Context) ([]Chat, error)
	ListByOwner(ctx context.Context, owner string) ([]Chat, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ChatStatus) (*Chat, error)
}
