package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/feed"
	"github.com/spec-kit/helpdesk-service/internal/notification"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

const (
	shutdownTimeout = 15 * time.Second
	streamHeartbeat = 25 * time.Second
)

type repositories struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	resets  repository.PasswordResetRepository
	alerts  repository.AlertRepository
}

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

	metrics := observability.NewMetrics()

	var (
		repos  repositories
		checks []handlers.DependencyCheck
	)
	if cfg.Postgres.DSN != "" {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}

		pool := pg.PoolHandle()
		repos = repositories{
			tickets: repository.NewTicketRepository(pool),
			users:   repository.NewUserRepository(pool),
			resets:  repository.NewPasswordResetRepository(pool),
			alerts:  repository.NewAlertRepository(pool),
		}
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Pinger: pg})
	} else {
		logger.Warn("POSTGRES_DSN not provided; using in-memory stores")
		repos = repositories{
			tickets: repository.NewMemoryTicketRepository(),
			users:   repository.NewMemoryUserRepository(),
			resets:  repository.NewMemoryPasswordResetRepository(),
			alerts:  repository.NewMemoryAlertRepository(),
		}
	}

	hub := feed.NewHub(logger)
	var changes feed.ChangeNotifier = hub

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	if redis.Client != nil {
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Pinger: redis})
		if cfg.Redis.FeedEnabled {
			bridge := feed.NewRedisBridge(redis.Client, cfg.Redis.FeedChannel, hub, logger)
			changes = bridge
			go func() {
				if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("ticket change bridge stopped", zap.Error(err))
				}
			}()
		}
	}

	uploader, err := storage.NewLocalUploader(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	templates, err := notification.NewTemplates()
	if err != nil {
		logger.Fatal("failed to parse email templates", zap.Error(err))
	}
	notifier := notification.NewNotifier(
		notification.NewMailer(cfg.Notification, logger),
		templates,
		cfg.Notification.SendTimeout(),
		logger,
		metrics,
	)

	dispatcher := events.NewInMemoryDispatcher(logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repos.tickets,
		UserRepo:   repos.users,
		Uploader:   uploader,
		Changes:    changes,
		Dispatcher: dispatcher,
		Conflicts:  metrics,
		Logger:     logger,
		MaxFiles:   cfg.Storage.MaxFiles,
	})
	identityService := service.NewIdentityService(cfg.Auth, service.IdentityDependencies{
		UserRepo:          repos.users,
		PasswordResetRepo: repos.resets,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	directoryService := service.NewDirectoryService(repos.users, ticketService, dispatcher, logger)
	alertService := service.NewAlertService(repos.alerts)
	notificationService := service.NewNotificationService(dispatcher, notifier, logger, cfg.Notification)
	notificationWorker := worker.NewNotificationWorker(notificationService, notifier, logger)
	notificationWorker.Start()

	maintenance, err := worker.NewMaintenanceWorker(identityService, cfg.Maintenance.PurgeResetTokensSpec, logger)
	if err != nil {
		logger.Fatal("failed to schedule maintenance", zap.Error(err))
	}
	maintenance.Start()

	sessions := auth.NewSessions(
		auth.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
		auth.CookieConfig{Name: cfg.Auth.CookieName, LegacyName: cfg.Auth.LegacyCookieName, Secure: cfg.Auth.SecureCookies},
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
		BodyLimit:    int(cfg.Storage.MaxUploadBytes) * max(cfg.Storage.MaxFiles, 1),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks...),
		Auth:           handlers.NewAuthHandler(identityService, sessions, cfg.Auth.LoginExchangeKey),
		Meta:           handlers.NewMetaHandler(sessions),
		Tickets:        handlers.NewTicketsHandler(ticketService, notificationService),
		Stream:         handlers.NewStreamHandler(ticketService, hub, streamHeartbeat, logger),
		Users:          handlers.NewUsersHandler(directoryService),
		Alerts:         handlers.NewAlertsHandler(alertService),
		Pages:          handlers.NewPagesHandler(cfg.App.UIDir),
		AuthMiddleware: auth.NewAuthMiddleware(sessions, repos.users),
		Sessions:       sessions,
		Metrics:        metrics,
		UploadDir:      uploader.Root(),
		UploadPrefix:   uploader.Prefix(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// open streams end when the hub closes, which lets Shutdown drain
	hub.Close()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	if err := maintenance.Stop(shutdownCtx); err != nil {
		logger.Warn("maintenance shutdown", zap.Error(err))
	}
	if err := notificationWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("pending emails abandoned", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
