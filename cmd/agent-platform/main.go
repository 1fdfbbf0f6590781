package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/sajmeister/aaplat/docs"
	"github.com/sajmeister/aaplat/internal/cache"
	"github.com/sajmeister/aaplat/internal/config"
	"github.com/sajmeister/aaplat/internal/events"
	"github.com/sajmeister/aaplat/internal/http/handlers/agents"
	"github.com/sajmeister/aaplat/internal/http/handlers/auth"
	"github.com/sajmeister/aaplat/internal/http/handlers/users"
	wsHandler "github.com/sajmeister/aaplat/internal/http/handlers/websocket"
	"github.com/sajmeister/aaplat/internal/http/middleware"
	"github.com/sajmeister/aaplat/internal/services/oauth"
	"github.com/sajmeister/aaplat/internal/services/objectstore"
	"github.com/sajmeister/aaplat/internal/services/uploads"
	"github.com/sajmeister/aaplat/internal/storage/postgres"
	ws "github.com/sajmeister/aaplat/internal/websocket"
)

// @title Agent Platform API
// @version 1.0
// @description Marketplace API for publishing and browsing AI agents
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()
	// database setup

	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// redis backs the rate limiter and the listing cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	cacheService := cache.NewCacheService(storage, redisClient)
	marketplace := cache.NewMarketplaceQuery(storage.Db)
	rateLimits := middleware.NewRateLimitConfig(redisClient)

	// object storage is optional: without it uploads validate only
	var placer agents.FilePlacer
	var signer agents.URLSigner
	if cfg.Storage.Configured() {
		store, err := objectstore.NewService(cfg)
		if err != nil {
			log.Fatal("Failed to initialize object storage:", err)
		}
		placer = uploads.NewService(store)
		signer = store
		slog.Info("Object storage configured", slog.String("bucket", cfg.Storage.BucketName))
	} else {
		slog.Warn("Object storage not configured; uploads will be validated but not persisted")
	}

	// websocket hub pushes lifecycle events to owner dashboards
	hub := ws.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	providers := oauth.NewProviders(cfg)
	for name := range providers {
		slog.Info("OAuth provider enabled", slog.String("provider", name))
	}

	// setup server
	router := http.NewServeMux()

	authRequired := middleware.AuthMiddleware(cfg.JWTSecret)

	router.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Agent Platform API"))
	})

	router.HandleFunc("POST /signup", users.SignUp(storage))
	router.HandleFunc("POST /login", users.Login(storage, cfg.JWTSecret))
	router.HandleFunc("GET /auth/{provider}/login", auth.OAuthLogin(providers, cfg))
	router.HandleFunc("GET /auth/{provider}/callback", auth.OAuthCallback(providers, storage, cfg))

	router.Handle("GET /me", authRequired(users.Me(storage)))
	router.Handle("GET /me/agents", authRequired(agents.MyAgents(storage)))

	router.Handle("POST /agents", authRequired(
		rateLimits.RateLimitedHandler(middleware.ActionCreateAgent, agents.CreateAgent(storage, cacheService, publisher))))
	router.HandleFunc("GET /agents", agents.ListAgents(cacheService))

	router.Handle("POST /agents/upload", authRequired(
		rateLimits.RateLimitedHandler(middleware.ActionUploadFiles, agents.UploadFiles(placer, publisher, cfg))))
	router.Handle("GET /agents/upload", authRequired(agents.GetFileURL(signer, cfg)))

	router.HandleFunc("GET /agents/{id}", agents.GetAgent(cacheService))
	router.Handle("POST /agents/{id}/download", authRequired(agents.Download(storage, cacheService)))

	router.Handle("POST /agents/{id}/reviews", authRequired(
		rateLimits.RateLimitedHandler(middleware.ActionReview, agents.PostReview(storage, cacheService, publisher))))
	router.HandleFunc("GET /agents/{id}/reviews", agents.ListReviews(storage))

	router.HandleFunc("GET /marketplace", agents.Marketplace(marketplace))

	router.HandleFunc("GET /ws", wsHandler.WebSocketHandler(hub, cfg.JWTSecret))

	router.Handle("GET /admin/cache/stats", authRequired(cache.GetCacheStats(redisClient)))
	router.Handle("POST /admin/cache/clear", authRequired(cache.ClearCache(redisClient)))

	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
