package ws

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/support-chat/internal/broker"
	"github.com/Rrens/support-chat/internal/domain"
)

const maxFrameSize = 4096

// Frame actions accepted from clients.
const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
)

// frame is an inbound client request on the live channel
type frame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// errorFrame is sent back when a frame is rejected
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// client is one live connection: the websocket, the identity attached at
// handshake and the broker subscription feeding the write pump.
type client struct {
	gateway  *Gateway
	conn     *websocket.Conn
	identity *domain.Identity
	sub      *broker.Subscriber

	// rejections flow through the write pump: gorilla/websocket allows
	// only one concurrent writer per connection.
	errs chan errorFrame
}

func newClient(g *Gateway, conn *websocket.Conn, identity *domain.Identity) *client {
	return &client{
		gateway:  g,
		conn:     conn,
		identity: identity,
		sub:      g.broker.NewSubscriber(),
		errs:     make(chan errorFrame, 8),
	}
}

// readPump consumes inbound frames until the connection drops, then
// removes the subscriber from every topic. Writes already in flight are
// not cancelled; their broadcasts still reach the remaining subscribers.
func (c *client) readPump() {
	defer func() {
		c.gateway.broker.Remove(c.sub)
		c.conn.Close()
		log.Info().Str("user", c.identity.Email).Msg("WebSocket connection closed")
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(c.gateway.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.gateway.pongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("user", c.identity.Email).Msg("WebSocket read error")
			}
			return
		}

		// A frame that does not decode is rejected on the connection, not
		// fatal to it; only transport errors end the pump.
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.reject("malformed frame")
			continue
		}
		c.handleFrame(f)
	}
}

// handleFrame applies one subscription frame. A connection that somehow
// carries no identity gets rejected here: the handshake is the only
// place identities are attached, so a missing one means the gate was
// bypassed.
func (c *client) handleFrame(f frame) {
	if c.identity == nil {
		c.reject("unauthorized")
		return
	}

	if f.Topic == "" || !validTopic(f.Topic) {
		c.reject("unknown topic")
		return
	}

	// The privileged list feed is for support staff only.
	if f.Topic == broker.TopicChatsSupport && !c.identity.IsSupport() {
		c.reject("forbidden topic")
		return
	}

	switch f.Action {
	case actionSubscribe:
		c.gateway.broker.Subscribe(c.sub, f.Topic)
	case actionUnsubscribe:
		c.gateway.broker.Unsubscribe(c.sub, f.Topic)
	default:
		c.reject("unknown action")
	}
}

func (c *client) reject(reason string) {
	select {
	case c.errs <- errorFrame{Type: "error", Error: reason}:
	default:
	}
}

// writePump forwards broker events to the peer and keeps the connection
// alive with pings. It exits when the subscriber channel is closed.
func (c *client) writePump() {
	ping := time.NewTicker(c.gateway.pongTimeout * 9 / 10)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.sub.Events():
			c.conn.SetWriteDeadline(time.Now().Add(c.gateway.writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case ef := <-c.errs:
			c.conn.SetWriteDeadline(time.Now().Add(c.gateway.writeTimeout))
			if err := c.conn.WriteJSON(ef); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.gateway.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// validTopic reports whether the topic belongs to the known taxonomy:
// room:{chatID}, chats, chats:support.
func validTopic(topic string) bool {
	if topic == broker.TopicChats || topic == broker.TopicChatsSupport {
		return true
	}
	return strings.HasPrefix(topic, "room:") && len(topic) > len("room:")
}
