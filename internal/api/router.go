package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/support-chat/internal/api/handler"
	custommiddleware "github.com/Rrens/support-chat/internal/api/middleware"
	"github.com/Rrens/support-chat/internal/broker"
	"github.com/Rrens/support-chat/internal/config"
	"github.com/Rrens/support-chat/internal/mail"
	"github.com/Rrens/support-chat/internal/repository/postgres"
	"github.com/Rrens/support-chat/internal/repository/redis"
	"github.com/Rrens/support-chat/internal/security"
	"github.com/Rrens/support-chat/internal/service"
	"github.com/Rrens/support-chat/internal/ws"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Repositories
	userRepo := postgres.NewUserRepository(db.Pool)
	chatRepo := postgres.NewChatRepository(db.Pool)
	messageRepo := postgres.NewMessageRepository(db.Pool)

	// Rate limiter
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)

	// Broadcast broker and websocket gateway
	eventBroker := broker.New(cfg.Chat.SubscriberBuffer)
	gateway := ws.NewGateway(
		eventBroker,
		jwtManager,
		cfg.Server.AllowedOrigins,
		cfg.Chat.WriteTimeout,
		cfg.Chat.PongTimeout,
	)

	// Services
	authService := service.NewAuthService(userRepo, jwtManager)
	supportService := service.NewSupportService(chatRepo, messageRepo, eventBroker)
	contactService := service.NewContactService(mail.NewSMTPMailer(cfg.Mail), cfg.Mail.From)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	supportHandler := handler.NewSupportHandler(supportService, contactService)

	// Middleware
	authMiddleware := custommiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := custommiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Use(rateLimitMiddleware.Limit)

				r.Get("/me", authHandler.Me)
				r.Get("/user/{userID}", authHandler.GetUser)
				r.Put("/edit/{userID}", authHandler.EditUser)
			})
		})

		// Support routes
		r.Route("/support", func(r chi.Router) {
			// Contact form stays reachable without an account.
			r.Post("/contact", supportHandler.Contact)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Use(rateLimitMiddleware.Limit)

				r.Route("/chats", func(r chi.Router) {
					r.Get("/", supportHandler.ListChats)
					r.Post("/", supportHandler.CreateChat)

					r.Route("/{chatID}", func(r chi.Router) {
						r.Get("/messages", supportHandler.ListMessages)
						r.Post("/messages", supportHandler.SendMessage)
						r.Patch("/status", supportHandler.UpdateStatus)
					})
				})
			})
		})
	})

	// Live channel: the gateway does its own handshake authentication.
	r.Get("/ws", gateway.Handle)

	return r
}
