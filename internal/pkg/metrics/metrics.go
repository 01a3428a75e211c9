package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 取得元APIへのページリクエスト時間（status_code）
	SourceRequestDuration *prometheus.HistogramVec

	// 取得した投稿数
	PostsFetchedTotal prometheus.Counter

	// 取り込んだイベント数（source: jpa, manual）
	EventsIngestedTotal *prometheus.CounterVec

	// 重複として除外したイベント数
	DuplicatesDroppedTotal prometheus.Counter

	// 抽出できなかった項目数（field: event_date, prefecture, location, entry_fee, level）
	ExtractionMissesTotal *prometheus.CounterVec

	// パイプライン実行回数（result: success, failed）
	PipelineRunsTotal *prometheus.CounterVec

	// 公開中のイベント件数
	CatalogEvents prometheus.Gauge
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		SourceRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "events_source_request_duration_seconds",
				Help:    "Latency of page requests to the event source API",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status_code"},
		),
		PostsFetchedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "events_posts_fetched_total",
				Help: "Total number of raw posts fetched from the source API",
			},
		),
		EventsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_ingested_total",
				Help: "Total number of events written after merge",
			},
			[]string{"source"},
		),
		DuplicatesDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "events_duplicates_dropped_total",
				Help: "Total number of events dropped as duplicates during merge",
			},
		),
		ExtractionMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_extraction_misses_total",
				Help: "Total number of fields that could not be extracted",
			},
			[]string{"field"},
		),
		PipelineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_pipeline_runs_total",
				Help: "Total number of ingestion pipeline runs",
			},
			[]string{"result"},
		),
		CatalogEvents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "events_catalog_size",
				Help: "Number of events currently served",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SourceRequestDuration,
		m.PostsFetchedTotal,
		m.EventsIngestedTotal,
		m.DuplicatesDroppedTotal,
		m.ExtractionMissesTotal,
		m.PipelineRunsTotal,
		m.CatalogEvents,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}

// WriteTextfile はデフォルトレジストリの内容を node_exporter の textfile 形式で書き出す
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
