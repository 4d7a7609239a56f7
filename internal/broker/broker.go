package broker

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// List topics carrying chat-summary refresh events.
const (
	TopicChats        = "chats"
	TopicChatsSupport = "chats:support"
)

// RoomTopic returns the topic scoped to a single chat's live events
func RoomTopic(chatID uuid.UUID) string {
	return fmt.Sprintf("room:%s", chatID)
}

// Event kinds published by the chat service.
const (
	EventChatCreated   = "chat-created"
	EventMessageSent   = "message-sent"
	EventCountChanged  = "chat-message-count-changed"
	EventStatusChanged = "chat-status-changed"
)

// Event is the unit of fan-out: a kind, the topic it was published on
// and a JSON-serializable payload.
type Event struct {
	Type    string `json:"type"`
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// Subscriber is one connected client's event queue. Events are delivered
// at most once; a subscriber that cannot keep up loses events and is
// expected to resynchronize with a fresh list/history fetch.
type Subscriber struct {
	events chan Event
}

// Events returns the subscriber's receive channel. It is closed when the
// subscriber is removed from the broker.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Broker routes published events to the current subscribers of a topic.
// It holds no chat state and never persists anything: the store stays
// the single source of truth.
type Broker struct {
	mu     sync.RWMutex
	buffer int
	topics map[string]map[*Subscriber]struct{}
	subs   map[*Subscriber]map[string]struct{}
}

// New creates a broker. buffer is the per-subscriber queue size.
func New(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broker{
		buffer: buffer,
		topics: make(map[string]map[*Subscriber]struct{}),
		subs:   make(map[*Subscriber]map[string]struct{}),
	}
}

// NewSubscriber registers a new subscriber with no topic subscriptions
func (b *Broker) NewSubscriber() *Subscriber {
	sub := &Subscriber{events: make(chan Event, b.buffer)}

	b.mu.Lock()
	b.subs[sub] = make(map[string]struct{})
	b.mu.Unlock()

	return sub
}

// Subscribe adds the subscriber to a topic. Subscribing twice to the
// same topic is a no-op.
func (b *Broker) Subscribe(sub *Subscriber, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topics, ok := b.subs[sub]
	if !ok {
		// Already removed; a late frame from a closing connection.
		return
	}
	topics[topic] = struct{}{}

	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*Subscriber]struct{})
	}
	b.topics[topic][sub] = struct{}{}
}

// Unsubscribe removes the subscriber from a topic
func (b *Broker) Unsubscribe(sub *Subscriber, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if topics, ok := b.subs[sub]; ok {
		delete(topics, topic)
	}
	b.detach(sub, topic)
}

// Remove drops the subscriber from every topic and closes its event
// channel. Called when the connection goes away.
func (b *Broker) Remove(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topics, ok := b.subs[sub]
	if !ok {
		return
	}
	for topic := range topics {
		b.detach(sub, topic)
	}
	delete(b.subs, sub)

	// No publisher can hold a reference anymore: Publish sends under
	// the read lock, which cannot overlap with this critical section.
	close(sub.events)
}

func (b *Broker) detach(sub *Subscriber, topic string) {
	set, ok := b.topics[topic]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.topics, topic)
	}
}

// Publish fans the event out to all current subscribers of the topic.
// Delivery is best-effort and never blocks: a full subscriber queue
// drops the event for that subscriber only.
func (b *Broker) Publish(topic string, eventType string, payload any) {
	event := Event{Type: eventType, Topic: topic, Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.topics[topic] {
		select {
		case sub.events <- event:
		default:
			log.Warn().
				Str("topic", topic).
				Str("event", eventType).
				Msg("Subscriber queue full, dropping event")
		}
	}
}

// Subscribers returns the current subscriber count for a topic
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
