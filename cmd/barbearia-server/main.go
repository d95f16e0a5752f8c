package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"barbearia/backend/internal/config"
	"barbearia/backend/internal/service/booking"
	"barbearia/backend/internal/service/catalog"
	"barbearia/backend/internal/store"
	"barbearia/backend/internal/store/postgres"
	"barbearia/backend/internal/store/rediscache"
	httpTransport "barbearia/backend/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "barbearia-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "barbearia-server"),
	)
	slog.SetDefault(log)

	log.Info("starting", slog.String("http_addr", cfg.Addr()), slog.String("log_level", cfg.LogLevel))

	loc, err := time.LoadLocation(cfg.ShopTimezone)
	if err != nil {
		log.Error("invalid shop timezone", slog.Any("err", err), slog.String("timezone", cfg.ShopTimezone))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	appointmentRepo := postgres.NewAppointmentRepo(db)
	var catalogRepo store.CatalogRepository = postgres.NewCatalogRepo(db)

	var serverOpts []httpTransport.ServerOption
	serverOpts = append(serverOpts,
		httpTransport.WithRequestTimeout(cfg.RequestTimeout),
		httpTransport.WithAllowedOrigins(cfg.AllowedOrigins),
	)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("redis unreachable, continuing without cache and rate limiting",
				slog.Any("err", err), slog.String("redis_addr", cfg.RedisAddr))
		} else {
			catalogRepo = rediscache.NewCatalogCache(catalogRepo, rdb, cfg.CacheTTL, log)
			limiter := httpTransport.NewRedisRateLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow, "barbearia:book")
			serverOpts = append(serverOpts, httpTransport.WithBookLimiter(limiter.Middleware(log, cfg.RateLimitFailOpen)))
			log.Info("redis connected", slog.String("redis_addr", cfg.RedisAddr))
		}
	}

	bookingSvc := booking.NewService(appointmentRepo, catalogRepo, loc)
	catalogSvc := catalog.NewService(catalogRepo)

	server := httpTransport.NewServer(bookingSvc, catalogSvc, loc, log, serverOpts...)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", cfg.Addr()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, httpServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, s *http.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown timed out; forcing close", slog.Any("err", err))
		_ = s.Close()
		return
	}
	log.Info("http server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
