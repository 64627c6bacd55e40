// Command vidhub-server starts the vidhub REST API and its gRPC health listener.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/vidhub/internal/auth"
	"github.com/and161185/vidhub/internal/config"
	"github.com/and161185/vidhub/internal/limiter"
	"github.com/and161185/vidhub/internal/media"
	"github.com/and161185/vidhub/internal/metrics"
	"github.com/and161185/vidhub/internal/migrate"
	"github.com/and161185/vidhub/internal/repository/postgres"
	grpcserver "github.com/and161185/vidhub/internal/server/grpc"
	httpserver "github.com/and161185/vidhub/internal/server/http"
	"github.com/and161185/vidhub/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("VIDHUB_CONFIG"), "config file (yaml, json or toml)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the environment")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTP.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(c config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Format == "console" || c.Format == "development" {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		lvl, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zc.Build()
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if err := migrate.Up(ctx, cfg.DB.DSN, log); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	db, err := postgres.New(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	store, err := media.NewS3(ctx, media.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		PublicURL: cfg.S3.PublicURL,
		PathStyle: cfg.S3.PathStyle,
	})
	if err != nil {
		return err
	}

	lim, closeLim, err := newLimiter(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeLim()

	// Repositories
	users := postgres.NewUserRepo(db)
	videos := postgres.NewVideoRepo(db)
	comments := postgres.NewCommentRepo(db)
	playlists := postgres.NewPlaylistRepo(db)

	tokens, err := auth.NewService(users, auth.Config{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        cfg.Auth.Issuer,
	})
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}

	reg := metrics.New()

	// Services
	userSvc := service.NewUserService(users, videos, store, log)
	router := httpserver.NewRouter(httpserver.Deps{
		Auth:          service.NewAuthService(users, tokens, lim, store, reg, log),
		Users:         userSvc,
		Videos:        service.NewVideoService(videos, store, log),
		Comments:      service.NewCommentService(comments, videos),
		Likes:         service.NewLikeService(postgres.NewLikeRepo(db)),
		Subscriptions: service.NewSubscriptionService(postgres.NewSubscriptionRepo(db)),
		Playlists:     service.NewPlaylistService(playlists, videos),
		Dashboard:     service.NewDashboardService(postgres.NewDashboardRepo(db), videos),

		Tokens:         tokens,
		Ready:          db,
		Metrics:        reg,
		Cookies:        httpserver.NewCookiePolicy(cfg.Cookie),
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var hs *grpcserver.Health
	if cfg.Health.Addr != "" {
		lis, err := net.Listen("tcp", cfg.Health.Addr)
		if err != nil {
			_ = srv.Close()
			return fmt.Errorf("health listen: %w", err)
		}
		hs = grpcserver.NewHealth(reg, log)
		hs.SetServing()
		go func() {
			if err := hs.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc health: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	// report NOT_SERVING before draining HTTP so balancers stop routing first
	if hs != nil {
		hs.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
		_ = srv.Close()
	}
	return runErr
}

func newLimiter(ctx context.Context, cfg *config.Config, db *postgres.DB) (limiter.Limiter, func(), error) {
	policy := limiter.Policy{
		Window:   cfg.Limiter.Window,
		MaxFails: cfg.Limiter.MaxFails,
		BlockFor: cfg.Limiter.BlockFor,
	}
	switch cfg.Limiter.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		return limiter.NewRedis(rdb, policy, limiter.DefaultPrefix), func() { _ = rdb.Close() }, nil
	case "none":
		return limiter.Noop{}, func() {}, nil
	default:
		return limiter.NewPG(db.Pool, policy), func() {}, nil
	}
}
