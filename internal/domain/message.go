package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxMessageLength bounds the content of a single chat message.
const MaxMessageLength = 1024

// Message represents one entry in a chat's ordered log. Messages belong
// to exactly one chat and are deleted with it.
type Message struct {
	ID      uuid.UUID `json:"id"`
	ChatID  uuid.UUID `json:"chat_id"`
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

// MessageSend represents the payload for appending a message to a chat.
// Sender and SentAt are optional: the sender defaults to the connected
// identity (or "anonymous"), SentAt to the time of persistence.
type MessageSend struct {
	Sender  string     `json:"sender,omitempty" validate:"max=255"`
	Content string     `json:"content" validate:"required,max=1024"`
	SentAt  *time.Time `json:"sent_at,omitempty"`
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	// AppendIfOpen persists the message only when the owning chat's
	// status is OPEN, as a single atomic operation. It returns
	// ErrChatClosed when the chat is closed and ErrNotFound when the
	// chat does not exist.
	AppendIfOpen(ctx context.Context, message *Message) error
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]Message, error)
	CountByChat(ctx context.Context, chatID uuid.UUID) (int64, error)
}
