package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/support-chat/internal/broker"
	"github.com/Rrens/support-chat/internal/domain"
)

// SupportService owns the chat lifecycle: creation, the OPEN→CLOSE
// transition and message appends, plus the broadcasts that keep
// connected clients in sync with the persisted log.
type SupportService struct {
	chatRepo    domain.ChatRepository
	messageRepo domain.MessageRepository
	publisher   Publisher
}

// NewSupportService creates a new support service
func NewSupportService(
	chatRepo domain.ChatRepository,
	messageRepo domain.MessageRepository,
	publisher Publisher,
) *SupportService {
	return &SupportService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		publisher:   publisher,
	}
}

func (s *SupportService) publish(eventType string, scope eventScope, payload any) {
	for _, topic := range eventTopics[eventType](scope) {
		s.publisher.Publish(topic, eventType, payload)
	}
}

// CreateChat opens a new chat owned by the identity. Status defaults to
// OPEN when the request does not carry one.
func (s *SupportService) CreateChat(ctx context.Context, identity domain.Identity, input domain.ChatCreate) (*domain.ChatSummary, error) {
	status := input.Status
	if status == "" {
		status = domain.StatusOpen
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	chat := &domain.Chat{
		ID:        uuid.New(),
		Title:     input.Title,
		Owner:     identity.Email,
		Status:    status,
		CreatedAt: time.Now(),
	}

	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	summary := &domain.ChatSummary{
		ID:           chat.ID,
		Title:        chat.Title,
		MessageCount: 0,
		Status:       chat.Status,
	}

	s.publish(broker.EventChatCreated, eventScope{
		chatID:        chat.ID,
		supportOrigin: identity.IsSupport(),
	}, summary)

	return summary, nil
}

// GetChat retrieves a chat by ID
func (s *SupportService) GetChat(ctx context.Context, chatID uuid.UUID) (*domain.Chat, error) {
	return s.chatRepo.Get(ctx, chatID)
}

// ListVisibleChats returns the open chats the identity may see: all of
// them for support staff, only their own for everyone else.
func (s *SupportService) ListVisibleChats(ctx context.Context, identity domain.Identity) ([]domain.ChatSummary, error) {
	var (
		chats []domain.Chat
		err   error
	)
	if identity.IsSupport() {
		chats, err = s.chatRepo.List(ctx)
	} else {
		chats, err = s.chatRepo.ListByOwner(ctx, identity.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	summaries := make([]domain.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		if chat.Status != domain.StatusOpen {
			continue
		}
		count, err := s.messageRepo.CountByChat(ctx, chat.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count messages: %w", err)
		}
		summaries = append(summaries, domain.ChatSummary{
			ID:           chat.ID,
			Title:        chat.Title,
			MessageCount: count,
			Status:       chat.Status,
		})
	}
	return summaries, nil
}

// AppendMessage persists a message on an open chat and broadcasts the
// confirmed write: the message itself on the room topic, the refreshed
// summary on the list topic. Returns ErrChatClosed when the chat no
// longer accepts messages.
func (s *SupportService) AppendMessage(ctx context.Context, identity domain.Identity, chatID uuid.UUID, input domain.MessageSend) (*domain.Message, error) {
	sender := input.Sender
	if sender == "" {
		sender = identity.Name
	}
	if sender == "" {
		sender = "anonymous"
	}

	sentAt := time.Now()
	if input.SentAt != nil {
		sentAt = *input.SentAt
	}

	message := &domain.Message{
		ID:      uuid.New(),
		ChatID:  chatID,
		Sender:  sender,
		Content: input.Content,
		SentAt:  sentAt,
	}

	// The status check and the insert are one atomic store operation,
	// so a concurrent CLOSE cannot slip between them.
	if err := s.messageRepo.AppendIfOpen(ctx, message); err != nil {
		return nil, err
	}

	chat, err := s.chatRepo.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload chat: %w", err)
	}
	count, err := s.messageRepo.CountByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	scope := eventScope{chatID: chatID, supportOrigin: identity.IsSupport()}
	s.publish(broker.EventMessageSent, scope, RoomMessage{
		Sender:  message.Sender,
		Content: message.Content,
	})
	s.publish(broker.EventCountChanged, scope, domain.ChatSummary{
		ID:           chat.ID,
		Title:        chat.Title,
		MessageCount: count,
		Status:       chat.Status,
	})

	return message, nil
}

// SetStatus updates a chat's status and notifies both the room and the
// list views. Reopening a closed chat is technically permitted but
// operationally discouraged, so it is logged.
func (s *SupportService) SetStatus(ctx context.Context, chatID uuid.UUID, status domain.ChatStatus) (*domain.ChatSummary, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	current, err := s.chatRepo.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.StatusClose && status == domain.StatusOpen {
		log.Warn().
			Str("chat_id", chatID.String()).
			Msg("Reopening a closed chat")
	}

	updated, err := s.chatRepo.UpdateStatus(ctx, chatID, status)
	if err != nil {
		return nil, err
	}

	count, err := s.messageRepo.CountByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	summary := &domain.ChatSummary{
		ID:           updated.ID,
		Title:        updated.Title,
		MessageCount: count,
		Status:       updated.Status,
	}

	s.publish(broker.EventStatusChanged, eventScope{chatID: chatID}, summary)

	return summary, nil
}

// ListMessages returns a chat's messages ordered by send time
func (s *SupportService) ListMessages(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	if _, err := s.chatRepo.Get(ctx, chatID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByChat(ctx, chatID)
}

// CountMessages returns the number of messages in a chat
func (s *SupportService) CountMessages(ctx context.Context, chatID uuid.UUID) (int64, error) {
	return s.messageRepo.CountByChat(ctx, chatID)
}
