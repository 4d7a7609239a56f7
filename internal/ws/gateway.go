package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/support-chat/internal/api/response"
	"github.com/Rrens/support-chat/internal/broker"
	"github.com/Rrens/support-chat/internal/domain"
	"github.com/Rrens/support-chat/internal/security"
)

// Gateway authenticates websocket handshakes and turns each accepted
// connection into a broker subscriber. The verified identity is attached
// to the connection once, at handshake, and trusted for its lifetime.
type Gateway struct {
	broker       *broker.Broker
	jwtManager   *security.JWTManager
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pongTimeout  time.Duration
}

// NewGateway creates a websocket gateway
func NewGateway(b *broker.Broker, jwtManager *security.JWTManager, allowedOrigins []string, writeTimeout, pongTimeout time.Duration) *Gateway {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if pongTimeout <= 0 {
		pongTimeout = 60 * time.Second
	}

	return &Gateway{
		broker:     b,
		jwtManager: jwtManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return allowAll || allowed[r.Header.Get("Origin")]
			},
		},
		writeTimeout: writeTimeout,
		pongTimeout:  pongTimeout,
	}
}

// Handle handles GET /ws. A missing or invalid bearer credential rejects
// the handshake with 401 before any upgrade happens.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		response.Unauthorized(w, "missing bearer credential")
		return
	}

	claims, err := g.jwtManager.ValidateAccessToken(token)
	if err != nil {
		response.Unauthorized(w, "invalid or expired token")
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	identity := &domain.Identity{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}

	client := newClient(g, conn, identity)
	log.Info().
		Str("user", identity.Email).
		Str("role", string(identity.Role)).
		Msg("WebSocket connection established")

	go client.writePump()
	client.readPump()
}

// bearerToken extracts the credential from the Authorization header or,
// for browser websocket clients that cannot set headers, from the
// access_token query parameter. A header that is not a bearer credential
// falls through to the query param rather than masking it.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return r.URL.Query().Get("access_token")
}
