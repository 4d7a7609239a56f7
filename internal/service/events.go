package service

import (
	"github.com/google/uuid"

	"github.com/Rrens/support-chat/internal/broker"
)

// Publisher is the broadcast capability consumed by the support service.
// Publishing is fire-and-forget; failures never surface here.
type Publisher interface {
	Publish(topic string, eventType string, payload any)
}

// eventScope carries the routing inputs for one confirmed write
type eventScope struct {
	chatID        uuid.UUID
	supportOrigin bool
}

// eventTopics maps an event kind to the topics it fans out to. Adding a
// privileged view means adding a builder here, not touching the write
// paths.
var eventTopics = map[string]func(eventScope) []string{
	broker.EventChatCreated: func(s eventScope) []string {
		if s.supportOrigin {
			return []string{broker.TopicChatsSupport}
		}
		return []string{broker.TopicChats}
	},
	broker.EventMessageSent: func(s eventScope) []string {
		return []string{broker.RoomTopic(s.chatID)}
	},
	broker.EventCountChanged: func(s eventScope) []string {
		return []string{broker.TopicChats}
	},
	broker.EventStatusChanged: func(s eventScope) []string {
		return []string{broker.TopicChats, broker.RoomTopic(s.chatID)}
	},
}

// RoomMessage is the payload delivered on a room topic for each
// confirmed message append.
type RoomMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}
