// Command server runs the storefront API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/migrate"

	"github.com/open-rails/storefront/adapters/gin/handlers"
	"github.com/open-rails/storefront/auth"
	"github.com/open-rails/storefront/catalog"
	"github.com/open-rails/storefront/config"
	"github.com/open-rails/storefront/identity"
	migrations "github.com/open-rails/storefront/migrations/postgres"
	"github.com/open-rails/storefront/notify"
	oidckit "github.com/open-rails/storefront/oidc"
	redislimiter "github.com/open-rails/storefront/ratelimit/redis"
	redisstore "github.com/open-rails/storefront/storage/redis"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration invalid")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	sqldb := sql.OpenDB(stdlib.GetPoolConnector(pool))
	bundb := bun.NewDB(sqldb, pgdialect.New())
	defer func() { _ = bundb.Close() }()

	if err := runMigrations(ctx, bundb, log); err != nil {
		log.WithError(err).Fatal("run migrations")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer func() { _ = rdb.Close() }()

	// Token verification pipeline.
	keyCache, err := oidckit.NewKeyCache(oidckit.CachePolicy{
		Issuer:  cfg.OIDC.Issuer,
		JWKSURL: cfg.OIDC.JWKSURL,
		TTL:     cfg.OIDC.CacheTTL,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("configure jwks cache")
	}
	verifier, err := oidckit.NewVerifier(oidckit.VerifierConfig{
		Issuer:    cfg.OIDC.Issuer,
		Audience:  cfg.OIDC.Audience,
		ClockSkew: cfg.OIDC.ClockSkew,
	}, oidckit.NewKeyResolver(keyCache), log)
	if err != nil {
		log.WithError(err).Fatal("configure token verifier")
	}

	customers := identity.NewStore(pool, "store")
	authenticator := auth.NewAuthenticator(verifier, identity.NewReconciler(customers, log), log)

	// Domain services.
	catalogSvc := catalog.NewService(bundb, redisstore.NewPriceCache(rdb, ""), log)
	statusStore := redisstore.NewNotificationStatusStore(rdb, "", 0)

	deliverer := &notify.Deliverer{
		Orders:     catalogSvc,
		Customers:  customers,
		SMS:        smsSender(cfg, log),
		Email:      emailSender(cfg, log),
		Status:     statusStore,
		AdminEmail: cfg.Email.AdminEmail,
		Log:        log,
	}

	riverClient, err := newRiverClient(pool, deliverer, log)
	if err != nil {
		log.WithError(err).Fatal("configure job queue")
	}
	if err := riverClient.Start(ctx); err != nil {
		log.WithError(err).Fatal("start job queue")
	}
	dispatcher := notify.NewDispatcher(riverClient, deliverer, log)

	// Warm the key cache ahead of TTL expiry so bursts after a quiet
	// period don't all block on the first fetch.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 5m", func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := keyCache.Keys(refreshCtx); err != nil {
			log.WithError(err).Warn("scheduled jwks refresh failed")
		}
	}); err != nil {
		log.WithError(err).Fatal("schedule jwks refresh")
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.Register(router, handlers.Deps{
		Catalog:       catalogSvc,
		Wishlist:      redisstore.NewWishlistStore(rdb, "", 0),
		Notifications: statusStore,
		Dispatcher:    dispatcher,
		Limiter:       redislimiter.New(rdb, nil),
		Auth:          authenticator,
		Log:           log,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("job queue shutdown")
	}
}

func runMigrations(ctx context.Context, db *bun.DB, log logrus.FieldLogger) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("database schema up to date")
	} else {
		log.WithField("group", group.String()).Info("database migrated")
	}
	return nil
}

func newRiverClient(pool *pgxpool.Pool, deliverer *notify.Deliverer, log logrus.FieldLogger) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, &notify.OrderNotificationWorker{Deliverer: deliverer})
	return river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:  map[string]river.QueueConfig{river.QueueDefault: {MaxWorkers: 10}},
		Workers: workers,
	})
}

func smsSender(cfg *config.Config, log logrus.FieldLogger) notify.SMSSender {
	if cfg.SMS.Username == "" || cfg.SMS.APIKey == "" {
		log.Warn("sms credentials not configured, sms notifications disabled")
		return nil
	}
	sender, err := notify.NewAfricasTalkingSender(notify.AfricasTalkingConfig{
		Username: cfg.SMS.Username,
		APIKey:   cfg.SMS.APIKey,
		Sandbox:  cfg.SMS.Sandbox,
		SenderID: cfg.SMS.StorePhone,
	}, log)
	if err != nil {
		log.WithError(err).Warn("sms gateway misconfigured, sms notifications disabled")
		return nil
	}
	return sender
}

func emailSender(cfg *config.Config, log logrus.FieldLogger) notify.EmailSender {
	if cfg.Email.FromEmail == "" {
		log.Warn("from address not configured, email notifications disabled")
		return nil
	}
	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Addr:     cfg.Email.SMTPAddr,
		Username: cfg.Email.SMTPUser,
		Password: cfg.Email.SMTPPass,
		From:     cfg.Email.FromEmail,
	})
	if err != nil {
		log.WithError(err).Warn("smtp misconfigured, email notifications disabled")
		return nil
	}
	return sender
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
			return
		}
		entry.Info("request")
	}
}
