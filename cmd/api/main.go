package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"civicfix/internal/adapter/api"
	"civicfix/internal/adapter/api/handler"
	apimiddleware "civicfix/internal/adapter/api/middleware"
	"civicfix/internal/adapter/api/router"
	"civicfix/internal/adapter/repository"
	"civicfix/internal/domain/service"
	"civicfix/internal/infrastructure/cache"
	"civicfix/internal/infrastructure/firebase"
	"civicfix/internal/infrastructure/kafka"
	"civicfix/internal/infrastructure/metrics"
	"civicfix/internal/infrastructure/ratelimit"
	"civicfix/internal/infrastructure/storage"
	"civicfix/internal/infrastructure/websocket"
	"civicfix/internal/usecase"
	"civicfix/pkg/config"
	"civicfix/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logFormat := cfg.Log.Format
	if cfg.IsProduction() {
		logFormat = "json"
	}
	logger.Configure(cfg.Log.Level, logFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := credentialOptions(cfg.Firebase)

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.Firebase.ProjectID, opts...)
	if err != nil {
		logger.Log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.Storage.Bucket, opts...)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to Redis: %v", err)
	}

	var (
		sessionCache service.SessionCache
		guard        service.TransitionGuard = cache.NewMemoryGuard()
	)
	if redisClient != nil {
		defer redisClient.Close()
		sessionCache = cache.NewRedisSessionCache(redisClient, cfg.Redis.SessionCacheTTL)
		guard = cache.NewLayeredGuard(guard, cache.NewRedisGuard(redisClient))
		logger.Info("Redis enabled at %s", cfg.Redis.Addr)
	}

	publisher := service.NewNoopPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("Publishing lifecycle events to Kafka topic %s", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	m := metrics.New()

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine(ctx)

	reportRepo := repository.NewFirestoreReportRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	upvoteRepo := repository.NewFirestoreUpvoteRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	verifier := service.NewGeminiImageVerifier(
		cfg.Verifier.APIKey,
		cfg.Verifier.Model,
		cfg.Verifier.BaseURL,
		cfg.Verifier.MaxTokens,
		cfg.Verifier.Timeout,
	)

	verificationUseCase := usecase.NewVerificationUseCase(verifier, cfg.Verifier.PreCallDelay, cfg.Verifier.RetryDelay, m)
	messageUseCase := usecase.NewMessageUseCase(messageRepo, wsManager, publisher, m, cfg.Reports.MessageTTL)
	reportUseCase := usecase.NewReportUseCase(reportRepo, upvoteRepo, storageClient, verificationUseCase, publisher, m)
	moderationUseCase := usecase.NewModerationUseCase(reportRepo, messageUseCase, storageClient, guard, publisher, m, usecase.ModerationConfig{
		GuardTTL:       cfg.Reports.GuardTTL,
		RetainDeclined: cfg.Reports.RetainDeclined,
	})
	leaderboardUseCase := usecase.NewLeaderboardUseCase(reportRepo)
	userUseCase := usecase.NewUserUseCase(userRepo, reportRepo, messageRepo, upvoteRepo, sessionCache, firebaseAuthClient)

	handler.Setup(
		reportUseCase,
		moderationUseCase,
		messageUseCase,
		leaderboardUseCase,
		userUseCase,
		verificationUseCase,
		handler.Config{MaxImageBytes: cfg.Reports.MaxImageBytes},
	)

	messageUseCase.StartSweepJob(ctx, cfg.Reports.MessageSweepPeriod)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(m.Middleware())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient, userUseCase)

	router.Setup(
		e,
		authMiddleware,
		limiter,
		handler.NewHealthHandler(version),
		handler.NewWebSocketHandler(wsManager),
		m,
	)

	go func() {
		logger.Info("Starting server on port %s (%s)", cfg.ServerPort, cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

// credentialOptions prefers inline service account JSON, then a key file, then the
// ambient application default credentials.
func credentialOptions(cfg config.FirebaseConfig) []option.ClientOption {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}
	}
	if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); err == nil {
			logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
			return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountPath)}
		}
		logger.Warn("Service account file %s not found", cfg.ServiceAccountPath)
	}
	logger.Info("Using application default credentials")
	return nil
}
