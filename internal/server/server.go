package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cardroomlabs/cardroom/internal/auth"
	"github.com/cardroomlabs/cardroom/internal/config"
	"github.com/cardroomlabs/cardroom/internal/database"
	"github.com/cardroomlabs/cardroom/internal/engine/scheduler"
	"github.com/cardroomlabs/cardroom/internal/handlers"
	custommiddleware "github.com/cardroomlabs/cardroom/internal/middleware"
	"github.com/cardroomlabs/cardroom/internal/services"
	"github.com/cardroomlabs/cardroom/internal/store"
)

type Server struct {
	config          *config.Config
	db              *database.DB
	jwtManager      *auth.JWTManager
	authMiddleware  *auth.AuthMiddleware
	authService     *services.AuthService
	scheduler       *scheduler.Scheduler
	apiRateLimiter  *custommiddleware.RateLimiter
	authRateLimiter *custommiddleware.RateLimiter
	server          *http.Server
	logger          *slog.Logger
}

func NewServer() (*Server, error) {
	cfg := config.Load()
	logger := slog.Default()

	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Snapshot store: postgres is the source of truth, redis a read cache.
	// A missing redis degrades to database-only operation.
	var gameStore store.GameStore = store.NewGormStore(db.DB)
	if rdb := newRedisClient(cfg); rdb != nil {
		gameStore = store.NewCachedStore(gameStore, rdb)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, "cardroom")
	authMiddleware := auth.NewAuthMiddleware(jwtManager)
	authService := services.NewAuthService(db, jwtManager)

	sched := scheduler.New(gameStore, quartz.NewReal(), logger, scheduler.Options{
		TickPeriod:   cfg.TickPeriod,
		LoadInterval: cfg.LoadInterval,
		Workers:      cfg.TickWorkers,
	})

	return &Server{
		config:          cfg,
		db:              db,
		jwtManager:      jwtManager,
		authMiddleware:  authMiddleware,
		authService:     authService,
		scheduler:       sched,
		apiRateLimiter:  custommiddleware.NewAPIRateLimiter(),
		authRateLimiter: custommiddleware.NewAuthRateLimiter(),
		logger:          logger,
	}, nil
}

func newRedisClient(cfg *config.Config) *redis.Client {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Warn("Invalid redis URL, running without snapshot cache", "error", err)
		return nil
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis unreachable, running without snapshot cache", "error", err)
		return nil
	}
	return client
}

// Start runs the HTTP server and the game scheduler until an interrupt.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.server = &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: s.setupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.scheduler.Run(ctx)
	})

	g.Go(func() error {
		slog.Info("Starting cardroom server", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down server...")
		return s.shutdown()
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	slog.Info("Server shutdown complete")
	return nil
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}

	s.apiRateLimiter.Close()
	s.authRateLimiter.Close()
	return nil
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(auth.SecurityHeaders)
	r.Use(s.apiRateLimiter.RateLimit)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure properly for production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// WebSocket endpoint
	r.Get("/ws/{gameID}", s.serveWebSocket)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		authHandler := handlers.NewAuthHandler(s.authService)

		// Public auth routes with stricter rate limiting
		r.Group(func(r chi.Router) {
			r.Use(s.authRateLimiter.RateLimit)
			r.Mount("/auth", authHandler.Routes())
		})

		// Protected routes group
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware.RequireAuth)

			r.Mount("/user", authHandler.ProtectedRoutes())

			gameHandler := handlers.NewGameHandler(s.scheduler)
			r.Mount("/games", gameHandler.Routes())
		})
	})

	return r
}

// serveWebSocket authenticates and attaches a websocket client to a game's
// event stream.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	var token string
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		token = s.jwtManager.ExtractTokenFromBearer(authHeader)
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, "Invalid game id", http.StatusBadRequest)
		return
	}

	mgr, err := s.scheduler.Manager(r.Context(), gameID)
	if err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	ServeWS(mgr, w, r, claims.UserID, claims.Username)
}
