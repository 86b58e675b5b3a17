package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	_ "github.com/KaleemAfrozShaik/PathFinder-Backend/docs" // Swagger docs (generated)
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/auth"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/config"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/database"
	httpServer "github.com/KaleemAfrozShaik/PathFinder-Backend/internal/http"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/logging"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/ratelimit"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/roadmap"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/session"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/upload"
	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/user"
)

// @title           PathFinder API
// @version         1.0
// @description     Mentorship platform backend: accounts, roadmaps, mentor session requests.

// @contact.name   API Support

// @host      localhost:8000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	roadmapRepo := roadmap.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	stateRepo := auth.NewStateRepository(redisClient)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize token service
	tokenService, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Initialize avatar uploader
	uploader, err := initUploader(cfg.Upload, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize uploader: %w", err)
	}

	// Initialize Google OAuth provider
	googleProvider := auth.NewGoogleProvider(
		cfg.OAuth.GoogleClientID,
		cfg.OAuth.GoogleClientSecret,
		cfg.OAuth.GoogleRedirectURL,
		stateRepo,
	)

	// Initialize auth service
	authService := auth.NewService(userRepo, tokenService, uploader, logger)

	// Initialize HTTP handlers
	isProduction := !cfg.Server.IsDevelopment()
	handlers := httpServer.Handlers{
		Auth: auth.NewHandler(
			authService,
			googleProvider,
			rateLimiter,
			logger,
			isProduction,
			cfg.Auth.AccessTokenDuration,
			cfg.Auth.RefreshCookieMaxAge,
			cfg.OAuth.PostLoginRedirectURL,
		),
		User:    user.NewHandler(userRepo, logger),
		Roadmap: roadmap.NewHandler(roadmapRepo, userRepo, logger),
		Session: session.NewHandler(sessionRepo, userRepo, logger),
	}
	authMiddleware := auth.NewMiddleware(tokenService, userRepo)

	// Initialize router
	router := httpServer.NewRouter(cfg, handlers, authMiddleware, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// initTokenService builds the configured token backend
func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenBackend {
	case "paseto":
		return auth.NewPasetoService(
			cfg.AccessTokenSecret,
			cfg.RefreshTokenSecret,
			cfg.AccessTokenDuration,
			cfg.RefreshTokenDuration,
		)
	default:
		return auth.NewJWTService(
			cfg.AccessTokenSecret,
			cfg.RefreshTokenSecret,
			cfg.AccessTokenDuration,
			cfg.RefreshTokenDuration,
		), nil
	}
}

// initUploader builds the Cloudinary uploader, or a stub that rejects
// uploads when no credentials are configured
func initUploader(cfg config.UploadConfig, logger *logging.Logger) (upload.Uploader, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		logger.Warn("cloudinary credentials missing, avatar uploads disabled")
		return upload.Unconfigured{}, nil
	}
	return upload.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
}
