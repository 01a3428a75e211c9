package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-pickleball-events/internal/api/middleware"
	"github.com/sanosuguru/go-pickleball-events/internal/api/server"
	"github.com/sanosuguru/go-pickleball-events/internal/application"
	"github.com/sanosuguru/go-pickleball-events/internal/config"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/datafile"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/postgres"
	infraRedis "github.com/sanosuguru/go-pickleball-events/internal/infrastructure/redis"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/logger"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/metrics"
	"github.com/sanosuguru/go-pickleball-events/internal/worker"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Env, "events-api")
	defer logger.Sync()

	m := metrics.Init()

	// イベント一覧の読み出し元
	var store application.EventStore = datafile.NewJSONStore(cfg.Pipeline.OutputJSONPath)
	if cfg.Pipeline.UsePostgres() {
		db, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			logger.Fatal("DB接続に失敗しました", zap.Error(err))
		}
		defer db.Close()

		if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
			logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
		}
		store = postgres.NewEventRepository(db)
	}

	var cache application.EventCache
	if cfg.Redis.Enabled {
		client, err := infraRedis.NewClient(&cfg.Redis)
		if err != nil {
			// キャッシュなしで起動を続ける
			logger.Warn("Redisに接続できないためキャッシュを無効にします", zap.Error(err))
		} else {
			defer client.Close()
			cache = infraRedis.NewEventCache(client, infraRedis.CatalogCacheKey)
		}
	}

	catalog := application.NewCatalogService(store, cache, cfg.Redis.CacheTTL, m, time.Now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if n, err := catalog.Reload(ctx); err != nil {
		logger.Warn("イベント一覧の初回読み込みに失敗しました", zap.Error(err))
	} else {
		logger.Info("イベント一覧を読み込みました", zap.Int("events", n))
	}

	reloader := worker.NewCatalogReloader(catalog, cfg.Server.CatalogReloadInterval)
	go reloader.Start(ctx)

	metricsCfg := middleware.LoadMetricsConfig()
	if metricsCfg.IsEnabled() {
		logger.Info("メトリクスエンドポイントのBasic認証を有効化")
	}

	e := server.New(server.Options{
		Catalog:     catalog,
		Metrics:     m,
		MetricsAuth: metricsCfg,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	go func() {
		logger.Info("サーバーを起動します", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	reloader.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
