package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-bot/internal/api/http"
	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/service"
	"github.com/spec-kit/ticket-bot/internal/worker"
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

	store, err := persistence.OpenDocumentStore(cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to open document store", zap.Error(err))
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	sessions, err := persistence.NewSessionCache()
	if err != nil {
		logger.Fatal("failed to init session cache", zap.Error(err))
	}

	gw := gateway.NewHTTPClient(cfg.Gateway, logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	ticketRepo := repository.NewTicketRepository(store)

	transcripts := service.NewTranscriptService(gw, cfg.Workspace.TranscriptChannelID, cfg.Ticket.HistoryLimit, logger)
	feedback := service.NewFeedbackService(service.FeedbackDependencies{
		Sessions:        sessions,
		Gateway:         gw,
		Dispatcher:      dispatcher,
		Logger:          logger,
		ReviewChannelID: cfg.Workspace.ReviewChannelID,
		MaxCommentLen:   cfg.Ticket.MaxCommentLength,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		Gateway:     gw,
		Transcripts: transcripts,
		Feedback:    feedback,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Workspace:   cfg.Workspace,
		CloseGrace:  cfg.Ticket.CloseGrace(),
	})

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications)

	rotator := service.NewNoticeRotator(gw, cfg.Workspace.NoticeChannelID, cfg.Notice.Interval(), logger)
	worker.StartNoticeRotator(ctx, rotator)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redis)
	interactionsHandler := handlers.NewInteractionsHandler(tickets, feedback, redis, metrics, logger, cfg.Ticket.MaxCommentLength)
	adminHandler := handlers.NewAdminHandler(gw, store, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Interactions:   interactionsHandler,
		Admin:          adminHandler,
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
