package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/logger"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/metrics"
)

// PostFetcher は取得元から投稿を取得する
type PostFetcher interface {
	FetchPosts(ctx context.Context) ([]event.RawPost, error)
}

// PostExtractor は投稿をイベントに変換する
type PostExtractor interface {
	FromPost(post event.RawPost, fetchedAt time.Time) *event.Event
}

// ManualLoader は手動管理のイベントを読み込む。失敗時は空を返す
type ManualLoader interface {
	Load(fetchedAt time.Time) []*event.Event
}

// EventSink は取り込み結果の書き出し先
type EventSink interface {
	Name() string
	Write(ctx context.Context, events []*event.Event) error
}

// RunLocker はパイプラインの同時実行を防ぐロック
type RunLocker interface {
	Acquire(ctx context.Context) (release func(ctx context.Context) error, err error)
}

// CacheInvalidator は書き出し後に参照用キャッシュを破棄する
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// IngestResult は1回の実行結果
type IngestResult struct {
	RunID      string
	Fetched    int
	Manual     int
	Duplicates int
	Events     []*event.Event
	Duration   time.Duration
}

// IngestService は取得 → 抽出 → 手動分との結合 → 並べ替え → 書き出しを1回実行する
type IngestService struct {
	fetcher   PostFetcher
	extractor PostExtractor
	manual    ManualLoader
	sinks     []EventSink
	locker    RunLocker
	cache     CacheInvalidator
	metrics   *metrics.Metrics
	now       func() time.Time
}

// IngestOption は IngestService の任意設定
type IngestOption func(s *IngestService)

// WithRunLocker は同時実行防止のロックを設定する
func WithRunLocker(l RunLocker) IngestOption {
	return func(s *IngestService) { s.locker = l }
}

// WithCacheInvalidator は書き出し後に破棄するキャッシュを設定する
func WithCacheInvalidator(c CacheInvalidator) IngestOption {
	return func(s *IngestService) { s.cache = c }
}

// WithMetrics はメトリクスの記録先を設定する
func WithMetrics(m *metrics.Metrics) IngestOption {
	return func(s *IngestService) { s.metrics = m }
}

// WithClock は現在時刻の取得方法を差し替える
func WithClock(now func() time.Time) IngestOption {
	return func(s *IngestService) { s.now = now }
}

// NewIngestService は IngestService を作成する
func NewIngestService(fetcher PostFetcher, extractor PostExtractor, manual ManualLoader, sinks []EventSink, opts ...IngestOption) *IngestService {
	s := &IngestService{
		fetcher:   fetcher,
		extractor: extractor,
		manual:    manual,
		sinks:     sinks,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run はパイプラインを1回実行する。取得に失敗した場合は何も書き出さない
func (s *IngestService) Run(ctx context.Context) (result *IngestResult, err error) {
	start := s.now()
	runID := uuid.New().String()
	log := logger.With(zap.String("run_id", runID))

	defer func() {
		if s.metrics == nil {
			return
		}
		status := "success"
		if err != nil {
			status = "failed"
		}
		s.metrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	}()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("実行ロックの取得に失敗しました: %w", err)
		}
		defer func() {
			if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
				log.Warn("実行ロックの解放に失敗しました", zap.Error(rerr))
			}
		}()
	}

	log.Info("イベント取り込みを開始します")

	posts, err := s.fetcher.FetchPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	log.Info("投稿を取得しました", zap.Int("posts", len(posts)))

	fetched := make([]*event.Event, 0, len(posts))
	for _, p := range posts {
		e := s.extractor.FromPost(p, start)
		s.recordMisses(e)
		fetched = append(fetched, e)
	}

	manual := s.manual.Load(start)
	log.Info("手動イベントを読み込みました", zap.Int("events", len(manual)))

	merged, dropped := MergeEvents(fetched, manual)
	sorted := SortEvents(merged, start)

	if err := s.write(ctx, sorted); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Warn("キャッシュの破棄に失敗しました", zap.Error(err))
		}
	}

	result = &IngestResult{
		RunID:      runID,
		Fetched:    len(posts),
		Manual:     len(manual),
		Duplicates: dropped,
		Events:     sorted,
		Duration:   s.now().Sub(start),
	}
	s.recordResult(result)

	log.Info("イベント取り込みが完了しました",
		zap.Int("fetched", result.Fetched),
		zap.Int("manual", result.Manual),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("events", len(result.Events)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// write は書き出し先を順に書く。途中で失敗すると以降は書かないが、
// 書き終えた先は元に戻さない
func (s *IngestService) write(ctx context.Context, events []*event.Event) error {
	if len(s.sinks) == 0 {
		return errors.New("書き出し先が設定されていません")
	}
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, events); err != nil {
			return fmt.Errorf("%sへの書き出しに失敗しました: %w", sink.Name(), err)
		}
		logger.Debug("書き出しました", zap.String("sink", sink.Name()), zap.Int("events", len(events)))
	}
	return nil
}

func (s *IngestService) recordMisses(e *event.Event) {
	if s.metrics == nil {
		return
	}
	misses := s.metrics.ExtractionMissesTotal
	if e.EventDate == nil {
		misses.WithLabelValues("event_date").Inc()
	}
	if e.Prefecture == nil {
		misses.WithLabelValues("prefecture").Inc()
	}
	if e.Location == nil {
		misses.WithLabelValues("location").Inc()
	}
	if e.EntryFee == nil {
		misses.WithLabelValues("entry_fee").Inc()
	}
	if e.Level == event.LevelUnknown {
		misses.WithLabelValues("level").Inc()
	}
}

func (s *IngestService) recordResult(r *IngestResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.PostsFetchedTotal.Add(float64(r.Fetched))
	s.metrics.DuplicatesDroppedTotal.Add(float64(r.Duplicates))
	for _, e := range r.Events {
		s.metrics.EventsIngestedTotal.WithLabelValues(string(e.Source)).Inc()
	}
	s.metrics.CatalogEvents.Set(float64(len(r.Events)))
}

// RepositorySink はリポジトリへの書き出し。既定は全件置き換え、incremental なら追加・更新のみ
type RepositorySink struct {
	repo        event.Repository
	incremental bool
}

// NewRepositorySink は RepositorySink を作成する
func NewRepositorySink(repo event.Repository, incremental bool) *RepositorySink {
	return &RepositorySink{repo: repo, incremental: incremental}
}

// Name は書き出し先の名前を返す
func (s *RepositorySink) Name() string {
	if s.incremental {
		return "postgres(incremental)"
	}
	return "postgres"
}

// Write はイベントを保存する
func (s *RepositorySink) Write(ctx context.Context, events []*event.Event) error {
	if s.incremental {
		return s.repo.Upsert(ctx, events)
	}
	return s.repo.ReplaceAll(ctx, events)
}
