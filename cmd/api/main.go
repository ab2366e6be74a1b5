package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/chat-service/internal/api/http"
	"github.com/spec-kit/chat-service/internal/api/http/handlers"
	"github.com/spec-kit/chat-service/internal/auth"
	"github.com/spec-kit/chat-service/internal/config"
	"github.com/spec-kit/chat-service/internal/events"
	"github.com/spec-kit/chat-service/internal/observability"
	"github.com/spec-kit/chat-service/internal/persistence"
	"github.com/spec-kit/chat-service/internal/realtime"
	"github.com/spec-kit/chat-service/internal/repository"
	"github.com/spec-kit/chat-service/internal/service"
	"github.com/spec-kit/chat-service/internal/storage"
	"github.com/spec-kit/chat-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	blobs, err := storage.NewLocalStore(cfg.Storage.RootDir)
	if err != nil {
		logger.Fatal("failed to init blob store", zap.Error(err))
	}
	signer := storage.NewURLSigner(cfg.Storage.SigningSecret, cfg.Storage.URLTTL())

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	membershipRepo := repository.NewMembershipRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	subscriptionRepo := repository.NewPushSubscriptionRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	hub := realtime.NewHub(logger)
	go hub.Run()
	bus := realtime.NewBus(hub, redis.Client, logger)
	publisher := realtime.NewPublisher(bus)

	attachmentService := service.NewAttachmentService(blobs, signer, logger)
	authService := service.NewAuthService(userRepo, cfg.Auth)
	chatService := service.NewChatService(chatRepo, membershipRepo, dispatcher, logger)
	messageService := service.NewMessageService(service.MessageDependencies{
		MessageRepo:    messageRepo,
		MembershipRepo: membershipRepo,
		Attachments:    attachmentService,
		Blobs:          blobs,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, cfg.Push, logger)
	taskService := service.NewTaskService(taskRepo, membershipRepo, dispatcher, logger)
	pushService := service.NewPushService(service.PushDependencies{
		MembershipRepo:   membershipRepo,
		SubscriptionRepo: subscriptionRepo,
		Sender:           service.NewWebPushSender(cfg.Push),
		Config:           cfg.Push,
		Metrics:          metrics,
		Logger:           logger,
	})

	worker.StartFanoutWorkers(ctx, dispatcher, publisher, pushService, bus)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Storage.MaxUploadMB * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Chats:          handlers.NewChatsHandler(chatService),
		Messages:       handlers.NewMessagesHandler(messageService),
		Tasks:          handlers.NewTasksHandler(taskService),
		Subscriptions:  handlers.NewSubscriptionsHandler(subscriptionService),
		Files:          handlers.NewFilesHandler(attachmentRepo, blobs, signer),
		Realtime:       handlers.NewRealtimeHandler(hub, membershipRepo, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
