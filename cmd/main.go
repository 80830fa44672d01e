package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/clipstream/clipstream/config"
	"github.com/clipstream/clipstream/internal/handler"
	"github.com/clipstream/clipstream/internal/middleware"
	"github.com/clipstream/clipstream/internal/repository"
	"github.com/clipstream/clipstream/internal/router"
	"github.com/clipstream/clipstream/internal/service"
	"github.com/clipstream/clipstream/pkg/database"
	"github.com/clipstream/clipstream/pkg/logger"
	"github.com/clipstream/clipstream/pkg/redis"
	"github.com/clipstream/clipstream/pkg/storage"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", "1.0.0"),
	)

	// Database
	db, err := database.NewMongoDatabase(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseMongo(db)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, db); err != nil {
		cancelIndex()
		logger.GetLogger().Fatal("Failed to ensure database indexes", zap.Error(err))
	}
	cancelIndex()

	// Redis cache; the application runs without it when disabled or down
	redisClient := redis.NewClient(redis.Config{
		Addr:         config.RedisAddress(),
		Password:     config.Redis.Password,
		DB:           config.Redis.Database,
		Enabled:      config.Redis.Enabled,
		PoolSize:     config.Redis.PoolSize,
		MinIdleConns: config.Redis.MinIdleConns,
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
	}, logger.GetLogger())
	defer redisClient.Close()

	logger.GetLogger().Info("Redis client initialized",
		zap.Bool("enabled", redisClient.IsEnabled()),
	)

	// Object storage for media uploads
	mediaStorage, err := storage.NewS3Storage(config.Storage, logger.GetLogger())
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	channelRepo := repository.NewChannelRepository(db)

	// Services
	tokenService := service.NewTokenService(config.JWT)
	authService := service.NewAuthService(userRepo, tokenService)
	mediaService := service.NewMediaService(mediaStorage, config.Storage.MaxUploadMB)
	channelCache := service.NewChannelCache(redisClient)
	userService := service.NewUserService(userRepo, channelRepo, authService, mediaService, channelCache)

	// Handlers
	secureCookies := config.App.Environment == "production"
	authHandler := handler.NewAuthHandler(authService, mediaService, tokenService, secureCookies)
	userHandler := handler.NewUserHandler(userService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Middleware
	jwtMiddleware := middleware.NewJWTMiddleware(tokenService)

	r := router.NewRouter(
		authHandler,
		userHandler,
		healthHandler,
		jwtMiddleware,
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:         ":" + config.App.Port,
		Handler:      r,
		ReadTimeout:  config.App.Timeout,
		WriteTimeout: config.App.Timeout,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().Error("Server shutdown failed", zap.Error(err))
	}
}
