package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/support-chat/internal/broker"
	"github.com/Rrens/support-chat/internal/domain"
)

var (
	userIdentity = domain.Identity{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Name:  "Alice",
		Role:  domain.RoleUser,
	}
	supportIdentity = domain.Identity{
		ID:    uuid.New(),
		Email: "agent@example.com",
		Name:  "Agent Smith",
		Role:  domain.RoleSupport,
	}
)

func newSupportFixture() (*SupportService, *MockChatRepository, *MockMessageRepository, *recordingPublisher) {
	chatRepo := new(MockChatRepository)
	messageRepo := new(MockMessageRepository)
	pub := &recordingPublisher{}
	return NewSupportService(chatRepo, messageRepo, pub), chatRepo, messageRepo, pub
}

func TestSupportService_CreateChat(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to open and notifies the general list", func(t *testing.T) {
		svc, chatRepo, _, pub := newSupportFixture()
		chatRepo.On("Create", ctx, mock.AnythingOfType("*domain.Chat")).Return(nil)

		summary, err := svc.CreateChat(ctx, userIdentity, domain.ChatCreate{Title: "Billing issue"})
		require.NoError(t, err)
		assert.Equal(t, "Billing issue", summary.Title)
		assert.Equal(t, domain.StatusOpen, summary.Status)
		assert.Zero(t, summary.MessageCount)

		events := pub.published()
		require.Len(t, events, 1)
		assert.Equal(t, broker.TopicChats, events[0].Topic)
		assert.Equal(t, broker.EventChatCreated, events[0].Type)

		chatRepo.AssertExpectations(t)
	})

	t.Run("support creator notifies the privileged list", func(t *testing.T) {
		svc, chatRepo, _, pub := newSupportFixture()
		chatRepo.On("Create", ctx, mock.AnythingOfType("*domain.Chat")).Return(nil)

		_, err := svc.CreateChat(ctx, supportIdentity, domain.ChatCreate{Title: "Escalation"})
		require.NoError(t, err)

		events := pub.published()
		require.Len(t, events, 1)
		assert.Equal(t, broker.TopicChatsSupport, events[0].Topic)
	})

	t.Run("owner is the creator email", func(t *testing.T) {
		svc, chatRepo, _, _ := newSupportFixture()
		chatRepo.On("Create", ctx, mock.MatchedBy(func(c *domain.Chat) bool {
			return c.Owner == userIdentity.Email
		})).Return(nil)

		_, err := svc.CreateChat(ctx, userIdentity, domain.ChatCreate{Title: "Question"})
		require.NoError(t, err)
		chatRepo.AssertExpectations(t)
	})

	t.Run("explicit status is honored", func(t *testing.T) {
		svc, chatRepo, _, _ := newSupportFixture()
		chatRepo.On("Create", ctx, mock.AnythingOfType("*domain.Chat")).Return(nil)

		summary, err := svc.CreateChat(ctx, userIdentity, domain.ChatCreate{Title: "Archived", Status: domain.StatusClose})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusClose, summary.Status)
	})

	t.Run("rejects malformed status", func(t *testing.T) {
		svc, _, _, pub := newSupportFixture()

		_, err := svc.CreateChat(ctx, userIdentity, domain.ChatCreate{Title: "Bad", Status: "ARCHIVED"})
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
		assert.Empty(t, pub.published())
	})
}

func TestSupportService_AppendMessage(t *testing.T) {
	ctx := context.Background()
	chatID := uuid.New()
	openChat := &domain.Chat{
		ID:     chatID,
		Title:  "Billing issue",
		Owner:  userIdentity.Email,
		Status: domain.StatusOpen,
	}

	t.Run("persists and publishes exactly two events", func(t *testing.T) {
		svc, chatRepo, messageRepo, pub := newSupportFixture()
		messageRepo.On("AppendIfOpen", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)
		chatRepo.On("Get", ctx, chatID).Return(openChat, nil)
		messageRepo.On("CountByChat", ctx, chatID).Return(int64(1), nil)

		message, err := svc.AppendMessage(ctx, userIdentity, chatID, domain.MessageSend{Content: "Hello"})
		require.NoError(t, err)
		assert.Equal(t, "Alice", message.Sender)
		assert.Equal(t, "Hello", message.Content)
		assert.False(t, message.SentAt.IsZero())

		events := pub.published()
		require.Len(t, events, 2)

		assert.Equal(t, broker.RoomTopic(chatID), events[0].Topic)
		assert.Equal(t, broker.EventMessageSent, events[0].Type)
		room := events[0].Payload.(RoomMessage)
		assert.Equal(t, "Alice", room.Sender)
		assert.Equal(t, "Hello", room.Content)

		assert.Equal(t, broker.TopicChats, events[1].Topic)
		assert.Equal(t, broker.EventCountChanged, events[1].Type)
		summary := events[1].Payload.(domain.ChatSummary)
		assert.Equal(t, int64(1), summary.MessageCount)
		assert.Equal(t, "Billing issue", summary.Title)
	})

	t.Run("closed chat rejects the append and broadcasts nothing", func(t *testing.T) {
		svc, _, messageRepo, pub := newSupportFixture()
		messageRepo.On("AppendIfOpen", ctx, mock.AnythingOfType("*domain.Message")).Return(domain.ErrChatClosed)

		_, err := svc.AppendMessage(ctx, userIdentity, chatID, domain.MessageSend{Content: "Are you there?"})
		assert.ErrorIs(t, err, domain.ErrChatClosed)
		assert.Empty(t, pub.published())
	})

	t.Run("unknown chat is not found", func(t *testing.T) {
		svc, _, messageRepo, pub := newSupportFixture()
		messageRepo.On("AppendIfOpen", ctx, mock.AnythingOfType("*domain.Message")).Return(domain.ErrNotFound)

		_, err := svc.AppendMessage(ctx, userIdentity, chatID, domain.MessageSend{Content: "Anyone?"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, pub.published())
	})

	t.Run("explicit sender wins over the identity", func(t *testing.T) {
		svc, chatRepo, messageRepo, _ := newSupportFixture()
		messageRepo.On("AppendIfOpen", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)
		chatRepo.On("Get", ctx, chatID).Return(openChat, nil)
		messageRepo.On("CountByChat", ctx, chatID).Return(int64(2), nil)

		message, err := svc.AppendMessage(ctx, userIdentity, chatID, domain.MessageSend{Sender: "bot", Content: "ping"})
		require.NoError(t, err)
		assert.Equal(t, "bot", message.Sender)
	})

	t.Run("falls back to anonymous without a name", func(t *testing.T) {
		svc, chatRepo, messageRepo, _ := newSupportFixture()
		messageRepo.On("AppendIfOpen", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)
		chatRepo.On("Get", ctx, chatID).Return(openChat, nil)
		messageRepo.On("CountByChat", ctx, chatID).Return(int64(3), nil)

		nameless := domain.Identity{ID: uuid.New(), Email: "x@example.com", Role: domain.RoleUser}
		message, err := svc.AppendMessage(ctx, nameless, chatID, domain.MessageSend{Content: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "anonymous", message.Sender)
	})

	t.Run("caller-supplied sent time is kept", func(t *testing.T) {
		svc, chatRepo, messageRepo, _ := newSupportFixture()
		messageRepo.On("AppendIfOpen", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)
		chatRepo.On("Get", ctx, chatID).Return(openChat, nil)
		messageRepo.On("CountByChat", ctx, chatID).Return(int64(4), nil)

		sentAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		message, err := svc.AppendMessage(ctx, userIdentity, chatID, domain.MessageSend{Content: "late", SentAt: &sentAt})
		require.NoError(t, err)
		assert.Equal(t, sentAt, message.SentAt)
	})
}

func TestSupportService_SetStatus(t *testing.T) {
	ctx := context.Background()
	chatID := uuid.New()
	openChat := &domain.Chat{ID: chatID, Title: "Billing issue", Status: domain.StatusOpen}
	closedChat := &domain.Chat{ID: chatID, Title: "Billing issue", Status: domain.StatusClose}

	t.Run("close notifies both list and room", func(t *testing.T) {
		svc, chatRepo, messageRepo, pub := newSupportFixture()
		chatRepo.On("Get", ctx, chatID).Return(openChat, nil)
		chatRepo.On("UpdateStatus", ctx, chatID, domain.StatusClose).Return(closedChat, nil)
		messageRepo.On("CountByChat", ctx, chatID).Return(int64(5), nil)

		summary, err := svc.SetStatus(ctx, chatID, domain.StatusClose)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusClose, summary.Status)
		assert.Equal(t, int64(5), summary.MessageCount)

		events := pub.published()
		require.Len(t, events, 2)
		assert.Equal(t, broker.TopicChats, events[0].Topic)
		assert.Equal(t, broker.RoomTopic(chatID), events[1].Topic)
		for _, event := range events {
			assert.Equal(t, broker.EventStatusChanged, event.Type)
		}
	})

	t.Run("reopen is permitted", func(t *testing.T) {
		svc, chatRepo, messageRepo, _ := newSupportFixture()
		chatRepo.On("Get", ctx, chatID).Return(closedChat, nil)
		chatRepo.On("UpdateStatus", ctx, chatID, domain.StatusOpen).Return(openChat, nil)
		messageRepo.On("CountByChat", ctx, chatID).Return(int64(5), nil)

		summary, err := svc.SetStatus(ctx, chatID, domain.StatusOpen)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, summary.Status)
	})

	t.Run("unknown chat is not found", func(t *testing.T) {
		svc, chatRepo, _, pub := newSupportFixture()
		chatRepo.On("Get", ctx, chatID).Return(nil, domain.ErrNotFound)

		_, err := svc.SetStatus(ctx, chatID, domain.StatusClose)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, pub.published())
	})

	t.Run("rejects malformed status", func(t *testing.T) {
		svc, _, _, _ := newSupportFixture()

		_, err := svc.SetStatus(ctx, chatID, "ARCHIVED")
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})
}

func TestSupportService_ListVisibleChats(t *testing.T) {
	ctx := context.Background()
	mine := domain.Chat{ID: uuid.New(), Title: "Mine", Owner: userIdentity.Email, Status: domain.StatusOpen}
	theirs := domain.Chat{ID: uuid.New(), Title: "Theirs", Owner: "bob@example.com", Status: domain.StatusOpen}
	closed := domain.Chat{ID: uuid.New(), Title: "Done", Owner: userIdentity.Email, Status: domain.StatusClose}

	t.Run("regular users see only their open chats", func(t *testing.T) {
		svc, chatRepo, messageRepo, _ := newSupportFixture()
		chatRepo.On("ListByOwner", ctx, userIdentity.Email).Return([]domain.Chat{mine, closed}, nil)
		messageRepo.On("CountByChat", ctx, mine.ID).Return(int64(2), nil)

		summaries, err := svc.ListVisibleChats(ctx, userIdentity)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, mine.ID, summaries[0].ID)
		assert.Equal(t, int64(2), summaries[0].MessageCount)
	})

	t.Run("support sees every open chat", func(t *testing.T) {
		svc, chatRepo, messageRepo, _ := newSupportFixture()
		chatRepo.On("List", ctx).Return([]domain.Chat{mine, theirs, closed}, nil)
		messageRepo.On("CountByChat", ctx, mine.ID).Return(int64(2), nil)
		messageRepo.On("CountByChat", ctx, theirs.ID).Return(int64(7), nil)

		summaries, err := svc.ListVisibleChats(ctx, supportIdentity)
		require.NoError(t, err)
		require.Len(t, summaries, 2)
	})
}

func TestSupportService_ListMessages(t *testing.T) {
	ctx := context.Background()
	chatID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		svc, chatRepo, messageRepo, _ := newSupportFixture()
		chatRepo.On("Get", ctx, chatID).Return(&domain.Chat{ID: chatID, Status: domain.StatusOpen}, nil)
		messageRepo.On("ListByChat", ctx, chatID).Return([]domain.Message{
			{ID: uuid.New(), ChatID: chatID, Sender: "alice", Content: "hi", SentAt: time.Now()},
		}, nil)

		messages, err := svc.ListMessages(ctx, chatID)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "alice", messages[0].Sender)
		assert.Equal(t, "hi", messages[0].Content)
		assert.False(t, messages[0].SentAt.IsZero())
	})

	t.Run("unknown chat is not found", func(t *testing.T) {
		svc, chatRepo, _, _ := newSupportFixture()
		chatRepo.On("Get", ctx, chatID).Return(nil, domain.ErrNotFound)

		_, err := svc.ListMessages(ctx, chatID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
