package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"eventhire_backend/internal/auth"
	"eventhire_backend/internal/config"
	"eventhire_backend/internal/email"
	"eventhire_backend/internal/events"
	"eventhire_backend/internal/handlers"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/middleware"
	"eventhire_backend/internal/payments"
	"eventhire_backend/internal/ratelimit"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/routes"
	"eventhire_backend/internal/services"
	"eventhire_backend/internal/validator"
	"eventhire_backend/internal/workers"
	"eventhire_backend/pkg/apperrors"
	"eventhire_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// App is the assembled server: storage, services, router and background
// loops.
type App struct {
	Config   *config.Config
	Engine   *gin.Engine
	Store    *repositories.Store
	Services *services.ServiceContainer
	Gateway  payments.Gateway
	Hub      *ws.Hub
	Mail     email.Provider

	db       *gorm.DB
	redis    *redis.Client
	bus      *events.Bus
	consumer *events.AMQPConsumer
	workers  *workers.Runner
	closers  []func() error
}

// New wires every component from cfg without starting background loops.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	a.Store, a.db = store, db
	if db != nil {
		a.closers = append(a.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	}

	if a.redis, err = newRedis(ctx, cfg); err != nil {
		return err
	}
	var redisClient redis.UniversalClient
	if a.redis != nil {
		redisClient = a.redis
		a.closers = append(a.closers, a.redis.Close)
	}

	revoker, revokerPurge := newRevoker(redisClient)
	limiter, limiterPurge, err := newAuthLimiter(redisClient, cfg)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTokenTTL(), revoker)

	if a.Gateway, err = newGateway(cfg); err != nil {
		return err
	}
	logger.Info("Payment gateway initialized", "provider", cfg.Payments.Provider)

	fileStorage, err := newStorage(cfg)
	if err != nil {
		return err
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	if a.Mail, err = newEmailProvider(cfg); err != nil {
		return err
	}
	mailer, err := newMailer(cfg, a.Mail)
	if err != nil {
		return err
	}

	publisher, subscriber, err := a.newEvents(cfg)
	if err != nil {
		return err
	}

	legacy, err := seedData(ctx, cfg, store)
	if err != nil {
		return err
	}

	a.Hub = ws.NewHub()
	a.Services = services.NewServiceContainer(services.Dependencies{
		Store:          store,
		LegacyProfiles: legacy,
		Tokens:         tokens,
		Publisher:      publisher,
		Notifier:       a.Hub,
		Gateway:        a.Gateway,
		Storage:        fileStorage,
		Mailer:         mailer,
		Auth: services.AuthConfig{
			RefreshTTL:           cfg.RefreshTokenTTL(),
			RequireVerifiedEmail: cfg.JWT.RequireVerifiedEmail,
		},
		Booking: services.BookingConfig{
			RequestTTL:     cfg.RequestTTL(),
			DepositPercent: cfg.Booking.DepositPercent,
			Currency:       cfg.Booking.Currency,
		},
		Payment: services.PaymentConfig{PlatformFeePercent: cfg.Booking.PlatformFeePercent},
		Upload: services.UploadConfig{
			MaxSize:      cfg.Upload.MaxSize,
			AllowedTypes: cfg.Upload.AllowedTypes,
			MaxPhotoSide: cfg.Upload.MaxPhotoSide,
		},
	})
	a.Services.NotificationService.Register(subscriber)

	a.workers = workers.NewRunner(
		workers.NewRequestExpiryWorker(a.Services.ServiceRequestService, seconds(cfg.Workers.ExpiryInterval)),
		workers.NewConversationArchiver(store.Conversations, seconds(cfg.Workers.ArchiveInterval),
			time.Duration(cfg.Workers.ArchiveAfterDays)*24*time.Hour),
		workers.NewTokenCleanupWorker(store.RefreshTokens, seconds(cfg.Workers.TokenCleanupInterval),
			nonNil(revokerPurge, limiterPurge)...),
	)

	a.Engine = a.router(tokens, limiter)
	return nil
}

// newEvents returns the publisher services write to and the subscriber
// notifications read from.
func (a *App) newEvents(cfg *config.Config) (events.Publisher, services.EventSubscriber, error) {
	if cfg.Events.Driver == "amqp" {
		amqpCfg := events.AMQPConfig{
			URL:      cfg.Events.AMQPURL,
			Exchange: cfg.Events.Exchange,
			Queue:    cfg.Events.Queue,
		}
		publisher, err := events.NewAMQPPublisher(amqpCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect amqp: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		a.consumer = events.NewAMQPConsumer(amqpCfg)
		logger.Info("Events go through AMQP", "exchange", amqpCfg.Exchange, "queue", amqpCfg.Queue)
		return publisher, a.consumer, nil
	}
	a.bus = events.NewBus(1024)
	return a.bus, a.bus, nil
}

func (a *App) router(tokens *auth.TokenManager, limiter ratelimit.Limiter) *gin.Engine {
	cfg := a.Config
	v := validator.New()
	base := handlers.NewBaseHandler(v)
	sc := a.Services

	appHandlers := &handlers.AppHandlers{
		AuthHandler:           handlers.NewAuthHandler(base, sc.AuthService),
		ProfileHandler:        handlers.NewProfileHandler(base, sc.ProfileService, sc.DirectoryService, cfg.Upload.MaxSize),
		ConversationHandler:   handlers.NewConversationHandler(base, sc.ConversationService),
		ServiceRequestHandler: handlers.NewServiceRequestHandler(base, sc.ServiceRequestService, sc.PaymentService),
		PaymentHandler:        handlers.NewPaymentHandler(base, sc.PaymentService),
		FeedbackHandler:       handlers.NewFeedbackHandler(base, sc.FeedbackService),
		DashboardHandler:      handlers.NewDashboardHandler(base, sc.DashboardService),
	}
	wsHandler := ws.NewHandler(a.Hub, sc.ConversationService, v, cfg.Server.AllowedOrigins)

	r := gin.New()
	r.Use(
		middleware.RecoveryMiddleware(),
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(cfg.Server.AllowedOrigins),
	)

	opts := routes.Options{
		Swagger: !cfg.IsProduction(),
		Health:  a.health,
	}
	if cfg.Storage.Type == "local" {
		opts.FilesDir = cfg.Storage.BasePath
		opts.FilesPrefix = cfg.Storage.BaseURL
	}
	routes.RegisterRoutes(r, appHandlers, wsHandler, routes.Middlewares{
		Auth:          middleware.AuthMiddleware(tokens),
		OptionalAuth:  middleware.OptionalAuthMiddleware(tokens),
		AuthRateLimit: middleware.RateLimitMiddleware(limiter, "auth"),
	}, opts)
	return r
}

func (a *App) health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Start launches the hub, the event loop and the workers. They stop when
// ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	go a.Hub.Run(ctx)
	if a.bus != nil {
		go a.bus.Run(ctx)
	}
	if a.consumer != nil {
		go func() {
			if err := a.consumer.Run(ctx); err != nil {
				logger.WithError(err).Error("AMQP consumer exited")
			}
		}()
	}
	a.workers.Start(ctx)
}

// Close waits for the workers and releases connections.
func (a *App) Close() {
	if a.workers != nil {
		a.workers.Wait()
	}
	if a.bus != nil {
		a.bus.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.WithError(err).Warn("Close failed")
		}
	}
	a.closers = nil
}

// Run loads the configuration and serves until SIGINT or SIGTERM.
func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	apperrors.SetDebug(!cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	a.Start(gctx)
	g.Go(func() error {
		logger.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.Server.ShutdownTimeout))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Server stopped with error")
	}
	a.Close()
	logger.Info("Server stopped")
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func nonNil(purgers ...workers.Purger) []workers.Purger {
	out := purgers[:0]
	for _, p := range purgers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
