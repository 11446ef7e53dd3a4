package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gsoffice/servicedesk/internal/chat"
	"github.com/gsoffice/servicedesk/internal/config"
	"github.com/gsoffice/servicedesk/internal/database"
	"github.com/gsoffice/servicedesk/internal/directory"
	docpg "github.com/gsoffice/servicedesk/internal/docstore/postgres"
	"github.com/gsoffice/servicedesk/internal/live"
	"github.com/gsoffice/servicedesk/internal/service"
	"github.com/gsoffice/servicedesk/internal/transport/http/handlers"
	"github.com/gsoffice/servicedesk/internal/transport/http/middleware"
	"github.com/gsoffice/servicedesk/internal/transport/ws"
	"github.com/gsoffice/servicedesk/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	ctx := context.Background()

	// Database + change feed
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer pool.Close()

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	defer rdb.Close()
	log.Info().Msg("connected to database and change feed")

	// Document store
	store := docpg.NewStore(pool, rdb, log)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema setup failed")
	}

	// Services
	subscriber := live.NewSubscriber(store, log)
	chatStore := chat.NewStore(store, subscriber, cfg.ChatLegacyFlat, log)
	profiles := directory.NewProfiles(store, log)
	identities := directory.NewIdentityStore(store)
	authService := service.NewAuthService(profiles, identities, cfg.JWTSecret)
	requestService := service.NewRequestService(store, log)
	bookingService := service.NewBookingService(store, log)
	divisionService := service.NewDivisionService(store, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatStore)
	requestHandler := handlers.NewRequestHandler(requestService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	divisionHandler := handlers.NewDivisionHandler(divisionService)

	// WebSocket hub
	hub := ws.NewHub(subscriber, chatStore, log)
	go hub.Run()

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/anonymous", authHandler.Anonymous)
	mux.HandleFunc("GET /api/v1/auth/me", authHandler.Me)

	// Protected - Service requests
	mux.Handle("POST /api/v1/requests", auth(http.HandlerFunc(requestHandler.Create)))
	mux.Handle("GET /api/v1/requests", auth(http.HandlerFunc(requestHandler.List)))
	mux.Handle("GET /api/v1/requests/pending", auth(http.HandlerFunc(requestHandler.ListPending)))
	mux.Handle("GET /api/v1/requests/{id}", auth(http.HandlerFunc(requestHandler.Get)))
	mux.Handle("PATCH /api/v1/requests/{id}/status", auth(http.HandlerFunc(requestHandler.UpdateStatus)))

	// Protected - Bookings and divisions
	mux.Handle("POST /api/v1/bookings", auth(http.HandlerFunc(bookingHandler.Create)))
	mux.Handle("GET /api/v1/bookings", auth(http.HandlerFunc(bookingHandler.List)))
	mux.Handle("PATCH /api/v1/bookings/{id}/status", auth(http.HandlerFunc(bookingHandler.UpdateStatus)))
	mux.Handle("POST /api/v1/divisions", auth(http.HandlerFunc(divisionHandler.Create)))
	mux.Handle("GET /api/v1/divisions", auth(http.HandlerFunc(divisionHandler.List)))

	// Protected - Chat
	mux.Handle("POST /api/v1/chat/messages", auth(http.HandlerFunc(chatHandler.SendMessage)))
	mux.Handle("GET /api/v1/chat/{uid}/messages", auth(http.HandlerFunc(chatHandler.ListMessages)))
	mux.Handle("GET /api/v1/chat/{uid}", auth(http.HandlerFunc(chatHandler.GetConversation)))
	mux.Handle("POST /api/v1/chat/{uid}/read", auth(http.HandlerFunc(chatHandler.MarkRead)))

	// Live views
	mux.HandleFunc("GET /api/v1/ws", ws.ServeWS(hub, authService))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Info().Str("addr", addr).Msg("starting server")
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
