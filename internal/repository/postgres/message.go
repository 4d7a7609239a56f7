package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/support-chat/internal/domain"
)

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// AppendIfOpen inserts the message in the same statement that checks the
// chat's status, so a concurrent close cannot interleave with the
// append. A zero row count means the guard failed: the chat is either
// closed or missing.
func (r *MessageRepository) AppendIfOpen(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender, content, sent_at)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM chats WHERE id = $2 AND status = 'OPEN')
	`
	tag, err := r.pool.Exec(ctx, query,
		message.ID,
		message.ChatID,
		message.Sender,
		message.Content,
		message.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE id = $1)`, message.ChatID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check chat: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrChatClosed
}

// ListByChat returns a chat's messages ordered by send time ascending,
// with insertion order breaking ties.
func (r *MessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT id, chat_id, sender, content, sent_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY sent_at ASC, seq ASC
	`
	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID,
			&m.ChatID,
			&m.Sender,
			&m.Content,
			&m.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountByChat returns the number of messages in a chat
func (r *MessageRepository) CountByChat(ctx context.Context, chatID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE chat_id = $1`, chatID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
