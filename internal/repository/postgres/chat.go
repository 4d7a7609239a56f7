package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/support-chat/internal/domain"
)

// ChatRepository implements domain.ChatRepository
type ChatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	query := `
		INSERT INTO chats (id, title, owner, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		chat.ID,
		chat.Title,
		chat.Owner,
		chat.Status,
		chat.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

func (r *ChatRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	query := `
		SELECT id, title, owner, status, created_at
		FROM chats
		WHERE id = $1
	`
	var c domain.Chat
	var statusStr string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Title,
		&c.Owner,
		&statusStr,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	c.Status = domain.ChatStatus(statusStr)
	return &c, nil
}

func (r *ChatRepository) List(ctx context.Context) ([]domain.Chat, error) {
	query := `
		SELECT id, title, owner, status, created_at
		FROM chats
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	return scanChats(rows)
}

func (r *ChatRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Chat, error) {
	query := `
		SELECT id, title, owner, status, created_at
		FROM chats
		WHERE owner = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats by owner: %w", err)
	}
	defer rows.Close()

	return scanChats(rows)
}

func (r *ChatRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ChatStatus) (*domain.Chat, error) {
	query := `
		UPDATE chats
		SET status = $1
		WHERE id = $2
		RETURNING id, title, owner, status, created_at
	`
	var c domain.Chat
	var statusStr string
	err := r.pool.QueryRow(ctx, query, status, id).Scan(
		&c.ID,
		&c.Title,
		&c.Owner,
		&statusStr,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update chat status: %w", err)
	}
	c.Status = domain.ChatStatus(statusStr)
	return &c, nil
}

func scanChats(rows pgx.Rows) ([]domain.Chat, error) {
	var chats []domain.Chat
	for rows.Next() {
		var c domain.Chat
		var statusStr string
		if err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Owner,
			&statusStr,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		c.Status = domain.ChatStatus(statusStr)
		chats = append(chats, c)
	}
	return chats, rows.Err()
}
