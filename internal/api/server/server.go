// Package server はAPIプロセスのEchoインスタンスを組み立てる
package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-pickleball-events/internal/api"
	"github.com/sanosuguru/go-pickleball-events/internal/api/handler"
	"github.com/sanosuguru/go-pickleball-events/internal/api/middleware"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/metrics"
)

// APICacheMaxAge は /api/v1 配下のレスポンスに付与するキャッシュ時間
const APICacheMaxAge = time.Minute

// Options はサーバー構築時の依存
type Options struct {
	Catalog handler.CatalogServiceInterface
	// Metrics が nil の場合はHTTPメトリクスを記録しない
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// MetricsAuth が nil または無効なら /metrics は認証なし
	MetricsAuth *middleware.MetricsConfig
}

// New はルーティングとミドルウェアを設定したEchoを返す
func New(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e, opts.Metrics)

	e.GET("/health", handler.NewHealthHandler(opts.Catalog).Check)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics",
		echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		middleware.MetricsBasicAuth(opts.MetricsAuth),
	)

	v1 := e.Group("/api/v1", middleware.CacheControl(APICacheMaxAge))
	handler.NewEventHandler(opts.Catalog).Register(v1)

	return e
}
