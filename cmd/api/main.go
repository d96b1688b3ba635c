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

	"ecoleta_backend/internal/adapters"
	"ecoleta_backend/internal/adapters/storage"
	"ecoleta_backend/internal/catalog"
	"ecoleta_backend/internal/createpoint"
	"ecoleta_backend/internal/email"
	"ecoleta_backend/internal/events"
	"ecoleta_backend/internal/geography"
	geoservice "ecoleta_backend/internal/geography/service"
	apphttp "ecoleta_backend/internal/http"
	"ecoleta_backend/internal/http/router"
	"ecoleta_backend/internal/notification"
	"ecoleta_backend/internal/points"
	"ecoleta_backend/internal/scheduler"
	"ecoleta_backend/migrations"
	"ecoleta_backend/platform/cache"
	"ecoleta_backend/platform/config"
	"ecoleta_backend/platform/db"
	"ecoleta_backend/platform/logger"
	"ecoleta_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensurePublicBucket creates the bucket if needed and opens it for anonymous
// reads, since item icons and point photos are served by URL.
func ensurePublicBucket(ctx context.Context, log *logger.Logger, storageSvc *storage.MinIOService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		if err := storageSvc.EnsureBucketExists(ctx, bucket); err != nil {
			return err
		}
		return storageSvc.EnsurePublicRead(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

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

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for item icons and point photos (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensurePublicBucket(ctx, log, storageSvc, "item-icons", cfg.GetMinioBucketItemIcons())
	ensurePublicBucket(ctx, log, storageSvc, "point-images", cfg.GetMinioBucketPointImages())
	log.Info(
		"storage service initialized",
		"itemIconsBucket", cfg.GetMinioBucketItemIcons(),
		"pointImagesBucket", cfg.GetMinioBucketPointImages(),
	)

	geoCache, closeCache := initGeographyCache(cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	emailQueue, closeQueue := initEmailQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(email.NewSender(cfg, log), cfg, log)
	if emailQueue != nil {
		notificationModule.SetEmailQueue(emailQueue)
	}
	notificationModule.RegisterHandlers(eventBus)

	catalogModule := catalog.NewModule(pool, storageSvc, cfg.GetMinioBucketItemIcons(), val, eventBus, log)
	if err := catalogModule.SeedDefaults(ctx); err != nil {
		log.Error("failed to seed default items", "error", err)
		panic("failed to seed default items: " + err.Error())
	}

	geographyModule := geography.NewModule(cfg, geoCache, val, log)

	// Anti-Corruption Layer: points only sees its own ItemReader port
	pointsModule := points.NewModule(points.Params{
		Pool:       pool,
		Items:      adapters.NewPointsItemReader(catalogModule.Service()),
		Storage:    storageSvc,
		Bucket:     cfg.GetMinioBucketPointImages(),
		AppBaseURL: cfg.GetAppBaseURL(),
		Validator:  val,
		Bus:        eventBus,
		Log:        log,
	})

	createPointModule := createpoint.NewModule(createpoint.Params{
		Items:     adapters.NewCreatePointItemSource(catalogModule.Service()),
		Regions:   adapters.NewCreatePointRegionSource(geographyModule.Service()),
		Submitter: adapters.NewCreatePointSubmitter(pointsModule.Service()),
		Map:       cfg,
		Drafts:    cfg,
		Validator: val,
		Log:       log,
	})
	sweeperDone := make(chan struct{})
	go func() {
		createPointModule.RunSweeper(ctx)
		close(sweeperDone)
	}()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			catalogModule,
			geographyModule,
			pointsModule,
			createPointModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}
	stop()
	<-sweeperDone
	eventBus.Wait()
	log.Info("server stopped")
}

// initGeographyCache returns a nil Cache when Redis is not configured so the
// geography service calls IBGE directly.
func initGeographyCache(cfg config.RedisConfig, log *logger.Logger) (geoservice.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; geography cache disabled")
		return nil, nil
	}

	client, err := cache.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		return nil, nil
	}

	return cache.NewJSONCache(client, "geography"), func() {
		_ = client.Close()
	}
}

func initEmailQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; confirmation emails are sent inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
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
