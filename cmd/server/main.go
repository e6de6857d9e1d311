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

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"

	"agriscan_backend/internal/app/di"
	"agriscan_backend/internal/app/router"
	"agriscan_backend/internal/config"
	"agriscan_backend/internal/feature/analysis/adapters/modelhandle"
	"agriscan_backend/internal/feature/analysis/labels"
	"agriscan_backend/internal/feature/analysis/transport/handler"
	"agriscan_backend/internal/feature/analysis/usecase"
	"agriscan_backend/internal/platform/logger"
	infraredis "agriscan_backend/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger.New(cfg.Log.Level, cfg.Log.Format))
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis（任意）
	var rdb *redisv9.Client
	if cfg.CacheEnable {
		if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("Failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// モデルは初回リクエストで読み込む
	models := modelhandle.New(di.NewModelLoader(cfg.Model))
	defer func() {
		if err := models.Close(); err != nil {
			slog.Error("failed to release model", "error", err)
		}
	}()
	if cfg.Model.EagerLoad {
		go func() {
			if _, err := models.Get(ctx); err != nil {
				slog.Warn("model warm-up failed, will retry on first request", "error", err)
			}
		}()
	}

	// Usecase
	analysisUC := usecase.NewAnalysisUsecase(models, labels.Default(), di.NewResultCache(rdb, cfg.Redis), cfg.Server.MaxImageBytes, cfg.Server.MaxImagePixels)

	// Handler
	analysisH := handler.NewAnalysisHandler(analysisUC)

	// ルータ生成
	r := router.NewRouter(analysisH)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "backend", di.DescribeBackend(cfg.Model))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
