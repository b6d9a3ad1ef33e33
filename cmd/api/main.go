package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travelquote_backend/internal/consultants"
	"travelquote_backend/internal/crm"
	"travelquote_backend/internal/email"
	"travelquote_backend/internal/events"
	"travelquote_backend/internal/followup"
	apphttp "travelquote_backend/internal/http"
	"travelquote_backend/internal/http/router"
	"travelquote_backend/internal/notification"
	"travelquote_backend/internal/pdf"
	"travelquote_backend/internal/quotes"
	"travelquote_backend/internal/quotes/service"
	"travelquote_backend/internal/rates"
	"travelquote_backend/internal/scheduler"
	"travelquote_backend/internal/storage"
	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/config"
	"travelquote_backend/platform/db"
	"travelquote_backend/platform/logger"
	"travelquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Tenant registry loaded from the YAML config file
	tenants, err := tenant.LoadRegistry(cfg.GetTenantsFile())
	if err != nil {
		log.Error("failed to load tenant registry", "error", err, "path", cfg.GetTenantsFile())
		panic("failed to load tenant registry: " + err.Error())
	}
	log.Info("tenant registry loaded", "tenants", len(tenants.IDs()))

	// ClickHouse rate warehouse
	var gateway *rates.Gateway
	if err := withRetry(ctx, log, "rate warehouse connection", 5, 2*time.Second, func() error {
		g, err := rates.Open(cfg)
		if err != nil {
			return err
		}
		gateway = g
		return nil
	}); err != nil {
		log.Error("failed to connect to rate warehouse", "error", err)
		panic("failed to connect to rate warehouse: " + err.Error())
	}
	defer gateway.Close()
	log.Info("rate warehouse connection established", "addr", cfg.GetWarehouseAddr())

	// Redis cache for rate query results
	var ratesCache *rates.Cache
	if cfg.GetRedisURL() != "" {
		opt, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			log.Error("invalid redis url, rate cache disabled", "error", err)
		} else {
			ratesCache = rates.NewCache(redis.NewClient(opt), cfg.GetRatesCacheTTL())
			log.Info("rate query cache enabled", "ttl", cfg.GetRatesCacheTTL())
		}
	}
	matcher := rates.NewMatcher(gateway, ratesCache, log)

	// Storage service for quote documents (MinIO)
	var storageSvc *storage.MinIOService
	if cfg.IsMinIOEnabled() {
		storageSvc, err = storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure quote-pdfs bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetQuotePDFBucket())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		log.Info("storage service initialized", "quotePDFsBucket", cfg.GetQuotePDFBucket())
	} else {
		log.Warn("MinIO not configured; quote PDF storage disabled")
	}

	// Gotenberg HTML-to-PDF renderer, backed by the document store
	var renderer *pdf.Renderer
	if cfg.IsGotenbergEnabled() && storageSvc != nil {
		converter := pdf.NewGotenbergClient(cfg.GetGotenbergURL(), cfg.GetGotenbergUsername(), cfg.GetGotenbergPassword())
		renderer, err = pdf.NewRenderer(converter, storageSvc)
		if err != nil {
			log.Error("failed to initialize pdf renderer", "error", err)
			panic("failed to initialize pdf renderer: " + err.Error())
		}
		log.Info("gotenberg PDF renderer initialized", "url", cfg.GetGotenbergURL())
	} else {
		log.Warn("gotenberg or storage not configured; PDF rendering disabled")
	}

	// Asynq client for deferred follow-up call tasks
	followUpQueue, closeScheduler := initFollowUpQueue(cfg, pool, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	webhook := notification.NewWebhookClient(cfg, log)
	notificationModule := notification.New(webhook, log)
	notificationModule.RegisterHandlers(eventBus)

	allocator := consultants.NewAllocator(consultants.New(pool), log)
	crmSvc := crm.NewService(crm.NewRepository(pool), eventBus)

	deps := service.Deps{
		Matcher:   matcher,
		Rates:     gateway,
		Calc:      service.NewCalculator(gateway),
		Allocator: allocator,
		CRM:       crmSvc,
		Bus:       eventBus,
		Log:       log,
	}
	if followUpQueue != nil {
		deps.FollowUps = followUpQueue
	}
	if renderer != nil {
		deps.PDF = renderer
	}
	if storageSvc != nil {
		deps.Links = storageSvc
	}
	if cfg.GetEmailEnabled() {
		var links email.DownloadLinker
		if storageSvc != nil {
			links = storageSvc
		}
		deps.Email = email.NewSMTPSender(cfg, links)
	} else {
		log.Warn("email sending disabled; quotes will not be delivered")
	}
	if webhook != nil {
		deps.Notifier = webhook
	}

	quotesModule := quotes.NewModule(pool, deps, val, tenants)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Tenants:  tenants,
		Modules: []apphttp.Module{
			quotesModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initFollowUpQueue(cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) (*followup.Queue, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up calls disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up task client", "error", err)
		return nil, nil
	}

	queue := followup.NewQueue(followup.NewRepository(pool), client, log)
	return queue, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
