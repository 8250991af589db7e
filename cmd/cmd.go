package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arch-community-backend/internal/auth"
	"arch-community-backend/internal/config"
	"arch-community-backend/internal/handlers"
	"arch-community-backend/internal/middleware"
	"arch-community-backend/internal/models"
	"arch-community-backend/internal/repository"
	"arch-community-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	markerRepo := repository.NewMarkerRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	followRepo := repository.NewFollowRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	// Operator subcommand: create an admin account and exit. Admin
	// accounts are never synthesized at server startup.
	if len(os.Args) > 1 && os.Args[1] == "provision-admin" {
		provisionAdmin(userRepo, profileRepo, os.Args[2:])
		return
	}

	tokens := auth.NewTokenService(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		time.Duration(cfg.JWT.AccessTTLMin)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLDay)*24*time.Hour,
	)

	// Redis is optional; admin metrics fall back to uncached reads.
	cache := newRedisClient(cfg.Redis)
	if cache == nil {
		log.Warn().Msg("Redis unavailable, metrics caching disabled")
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, profileRepo, tokens)
	userService := services.NewUserService(userRepo, profileRepo, followRepo, markerRepo)
	followService := services.NewFollowService(followRepo, userRepo, profileRepo)
	markerService := services.NewMarkerService(markerRepo, likeRepo, historyRepo, cfg.ServiceArea)
	adminService := services.NewAdminService(userRepo, markerRepo, cache)
	mediaService, err := services.NewMediaService(
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media service")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, time.Duration(cfg.JWT.RefreshTTLDay)*24*time.Hour)
	userHandler := handlers.NewUserHandler(userService, mediaService)
	followHandler := handlers.NewFollowHandler(followService)
	markerHandler := handlers.NewMarkerHandler(markerService, mediaService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})

		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/markers", markerHandler.List)
		r.Get("/markers/{id}", markerHandler.Get)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokens))

			r.Post("/markers", markerHandler.Create)
			r.Delete("/markers/{id}", markerHandler.Delete)
			r.Patch("/markers/{id}/status", markerHandler.SetStatus)
			r.Post("/markers/{id}/like", markerHandler.ToggleLike)
			r.Get("/markers/{id}/like", markerHandler.LikeStatus)
			r.Get("/markers/{id}/history", markerHandler.History)
			r.Get("/markers-with-likes", markerHandler.ListWithLikes)

			r.Get("/users/{id}", userHandler.Get)
			r.Patch("/users/{id}", userHandler.Update)
			r.Patch("/users/{id}/profile", userHandler.UpdatePrivacy)
			r.Post("/users/{id}/avatar", userHandler.SetAvatar)
			r.Get("/users/{id}/markers", userHandler.Markers)
			r.Get("/users/{id}/likes", userHandler.LikedMarkers)

			r.Post("/users/{id}/follow", followHandler.Request)
			r.Delete("/users/{id}/follow", followHandler.Unfollow)
			r.Get("/users/{id}/follow-status", followHandler.Status)
			r.Get("/users/{id}/followers", followHandler.Followers)
			r.Get("/users/{id}/following", followHandler.Following)

			r.Get("/admin/check", adminHandler.Check)
			r.Get("/admin/users", adminHandler.ListUsers)
			r.Delete("/admin/users/{id}", adminHandler.DeleteUser)
			r.Get("/admin/metrics", adminHandler.Metrics)
			r.Get("/admin/export.csv", adminHandler.ExportCSV)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// provisionAdmin creates an admin account from the command line.
func provisionAdmin(users *repository.UserRepository, profiles *repository.ProfileRepository, args []string) {
	fs := flag.NewFlagSet("provision-admin", flag.ExitOnError)
	username := fs.String("username", "", "admin username")
	password := fs.String("password", "", "admin password")
	email := fs.String("email", "", "admin email (optional)")
	fs.Parse(args)

	if *username == "" || *password == "" {
		log.Fatal().Msg("provision-admin requires -username and -password")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	user := &models.User{
		Username:     *username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if *email != "" {
		user.Email = email
	}

	ctx := context.Background()
	if _, err := users.Create(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin account")
	}
	if err := profiles.Ensure(ctx, user.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin profile")
	}
	log.Info().Int64("user_id", user.ID).Str("username", *username).Msg("Admin account created")
}

// newRedisClient connects to redis, returning nil when unreachable so the
// server degrades to uncached operation.
func newRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
