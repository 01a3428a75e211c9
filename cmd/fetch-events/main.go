package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-pickleball-events/internal/application"
	"github.com/sanosuguru/go-pickleball-events/internal/config"
	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
	"github.com/sanosuguru/go-pickleball-events/internal/extractor"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/datafile"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/manual"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/postgres"
	infraRedis "github.com/sanosuguru/go-pickleball-events/internal/infrastructure/redis"
	"github.com/sanosuguru/go-pickleball-events/internal/infrastructure/wordpress"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/logger"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/metrics"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Env, "fetch-events")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, cfg)
	stop()

	if err != nil {
		logger.Error("イベント取り込みに失敗しました", zap.Error(err))
		if hint := networkHint(err); hint != "" {
			logger.Error(hint)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.Init()
	if path := cfg.Pipeline.MetricsTextfile; path != "" {
		defer func() {
			if err := metrics.WriteTextfile(path); err != nil {
				logger.Warn("メトリクスの書き出しに失敗しました", zap.String("path", path), zap.Error(err))
			}
		}()
	}

	fetcher := wordpress.NewClient(wordpress.Config{
		BaseURL:     cfg.Pipeline.APIBaseURL,
		CategoryIDs: cfg.Pipeline.CategoryIDs,
		PerPage:     cfg.Pipeline.PerPage,
		PageDelay:   cfg.Pipeline.PageDelay,
		Timeout:     cfg.Pipeline.HTTPTimeout,
	}).WithObserver(func(status int, elapsed time.Duration) {
		m.SourceRequestDuration.WithLabelValues(strconv.Itoa(status)).Observe(elapsed.Seconds())
	})

	x := extractor.New(extractor.NewCategoryResolver(extractor.DefaultJPACategories()), event.SourceJPA, time.Now)

	var repo event.Repository
	if cfg.Pipeline.UsePostgres() {
		db, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		repo = postgres.NewEventRepository(db)
	}
	sinks := buildSinks(cfg.Pipeline, repo)

	opts := []application.IngestOption{application.WithMetrics(m)}

	if cfg.Redis.Enabled {
		client, err := infraRedis.NewClient(&cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		opts = append(opts,
			application.WithRunLocker(infraRedis.NewRunLock(client, infraRedis.IngestLockKey, cfg.Redis.LockTTL)),
			application.WithCacheInvalidator(infraRedis.NewEventCache(client, infraRedis.CatalogCacheKey)),
		)
	}

	svc := application.NewIngestService(fetcher, x, manual.NewLoader(cfg.Pipeline.ManualEventsPath), sinks, opts...)
	_, err := svc.Run(ctx)
	return err
}

// buildSinks は書き出し先を並べる。ファイルは書き戻せないため、
// ロールバックできる Postgres を先に書き、失敗したらファイルには触れない
func buildSinks(cfg config.PipelineConfig, repo event.Repository) []application.EventSink {
	var sinks []application.EventSink
	if repo != nil {
		sinks = append(sinks, application.NewRepositorySink(repo, cfg.Incremental))
	}
	return append(sinks,
		datafile.NewModuleWriter(cfg.OutputModulePath),
		datafile.NewJSONStore(cfg.OutputJSONPath),
	)
}

// networkHint はDNSや接続の失敗に見えるエラーのときに補足メッセージを返す
func networkHint(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "ホスト名を解決できませんでした。ネットワーク接続とDNS設定を確認してください"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "接続がタイムアウトしました。ネットワーク接続を確認してください"
		}
		if errors.Is(opErr, syscall.ECONNREFUSED) {
			return "接続が拒否されました。接続先のURLとネットワーク接続を確認してください"
		}
	}
	return ""
}
