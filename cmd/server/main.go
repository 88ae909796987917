package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"fingerprint_access/internal/app/di"
	"fingerprint_access/internal/app/router"
	"fingerprint_access/internal/feature/recognition/adapters"
	"fingerprint_access/internal/feature/recognition/transport/handler"
	"fingerprint_access/internal/feature/recognition/usecase"
	infradb "fingerprint_access/internal/platform/db"
	jwtmw "fingerprint_access/internal/platform/jwt"
	infraredis "fingerprint_access/internal/platform/redis"
	"fingerprint_access/internal/shared/ratelimiter"
)

// shutdownTimeout は実行中の認識リクエストの完了を待つ上限です。
const shutdownTimeout = 45 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv(), adapters.Models()...)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	// Redis
	var rdb *redisv9.Client
	if redisCfg := infraredis.LoadConfig(); redisCfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, redisCfg); err != nil {
			slog.Warn("Redis unavailable. Running without idempotency cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv(jwtmw.EnvKeyJWTSecret) == "" {
		slog.Warn("JWT_SECRET is not set. Set a strong secret in production.")
	}

	// Usecase
	cfg := usecase.LoadConfig()
	collaborators := di.NewCollaborators(db, di.NewServiceTokens())
	recognizer := di.NewRecognizer(cfg, collaborators, di.NewMatcher(), rdb)

	// Handler
	recognitionH := handler.NewRecognitionHandler(recognizer, int64(cfg.MaxImageSize))

	// ルータ生成
	r := router.NewRouter(recognitionH, func(ctx context.Context) error {
		return infradb.Ping(ctx, db)
	}, ratelimiter.NewKeyedLimiter(ratelimiter.LoadConfig()))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
