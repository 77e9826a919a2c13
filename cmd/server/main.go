package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	articlehandler "inkwell/internal/article/handler"
	articleservice "inkwell/internal/article/service"
	articlestore "inkwell/internal/article/store"
	"inkwell/internal/audit"
	httpapi "inkwell/internal/http"
	"inkwell/internal/iam/graph"
	iamhandler "inkwell/internal/iam/handler"
	iamservice "inkwell/internal/iam/service"
	"inkwell/internal/iam/store/refreshtoken"
	"inkwell/internal/iam/token"
	imagehandler "inkwell/internal/image/handler"
	imageservice "inkwell/internal/image/service"
	imagestore "inkwell/internal/image/store"
	"inkwell/internal/platform/config"
	"inkwell/internal/platform/httpserver"
	"inkwell/internal/platform/logger"
	"inkwell/internal/platform/metrics"
	"inkwell/internal/platform/postgres"
	"inkwell/internal/platform/redis"
	userhandler "inkwell/internal/user/handler"
	userservice "inkwell/internal/user/service"
	userstore "inkwell/internal/user/store"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec, err := token.NewCodec(
		cfg.Security.SigningKey,
		cfg.Security.SigningAlgorithm,
		cfg.Security.AccessTokenTTL,
		cfg.Security.RefreshTokenTTL,
	)
	if err != nil {
		return err
	}

	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	auditor, err := newAuditPublisher(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer auditor.Close()

	images, err := newImageStore(ctx, cfg.S3)
	if err != nil {
		return err
	}

	m := metrics.New()

	users := userstore.NewPostgresStore(pool)
	userSvc := userservice.NewService(users, log)

	iamSvc := iamservice.NewService(
		codec,
		users,
		refreshtoken.NewRedisStore(rdb.Client),
		graph.NewRedisGraph(rdb.Client, cfg.Redis.GraphName),
		auditor,
		m,
		log,
	)

	articleSvc := articleservice.NewService(articlestore.NewPostgresStore(pool), m, log)

	imageSvc := imageservice.NewService(images, m, log)

	router := httpapi.NewRouter(log,
		iamhandler.New(iamSvc, log),
		userhandler.New(userSvc, iamSvc, log),
		articlehandler.New(articleSvc, iamSvc, log),
		imagehandler.New(imageSvc, iamSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting inkwell server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newAuditPublisher prefers Kafka when brokers are configured and falls back
// to the in-memory sink for broker-less deployments.
func newAuditPublisher(cfg config.Kafka, log *slog.Logger) (audit.Publisher, error) {
	if cfg.Brokers == "" {
		return audit.NewMemoryPublisher(), nil
	}
	return audit.NewKafkaPublisher(strings.Split(cfg.Brokers, ","), cfg.AuditTopic, log)
}

// newImageStore uses S3 when a bucket is configured; otherwise images live in
// process memory, which is enough for local development.
func newImageStore(ctx context.Context, cfg config.S3) (imagestore.Store, error) {
	if cfg.Bucket == "" {
		return imagestore.NewMemoryStore(), nil
	}
	return imagestore.NewS3Store(ctx, cfg)
}
