package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/logger"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/metrics"
)

// EventStore は生成済みイベント一覧の読み出し元
type EventStore interface {
	List(ctx context.Context) ([]*event.Event, error)
}

// EventCache はイベント一覧のキャッシュ。値がない場合 Get はエラーを返す
type EventCache interface {
	Get(ctx context.Context) ([]*event.Event, error)
	Set(ctx context.Context, events []*event.Event, ttl time.Duration) error
}

// CatalogService はAPI向けにイベント一覧をメモリに保持する
type CatalogService struct {
	store    EventStore
	cache    EventCache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time

	mu      sync.RWMutex
	catalog *Catalog
}

// NewCatalogService は CatalogService を作成する。cache と m は nil でもよい
func NewCatalogService(store EventStore, cache EventCache, cacheTTL time.Duration, m *metrics.Metrics, now func() time.Time) *CatalogService {
	if now == nil {
		now = time.Now
	}
	return &CatalogService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  m,
		now:      now,
		catalog:  NewCatalog(nil, now),
	}
}

// Reload は読み出し元から一覧を読み直す。キャッシュがあれば先に参照する
func (s *CatalogService) Reload(ctx context.Context) (int, error) {
	events, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	c := NewCatalog(SortEvents(events, s.now()), s.now)

	s.mu.Lock()
	s.catalog = c
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.CatalogEvents.Set(float64(c.Len()))
	}
	return c.Len(), nil
}

func (s *CatalogService) load(ctx context.Context) ([]*event.Event, error) {
	if s.cache != nil {
		events, err := s.cache.Get(ctx)
		if err == nil {
			return events, nil
		}
		logger.Debug("キャッシュを使わずに読み込みます", zap.Error(err))
	}

	events, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の読み込みに失敗しました: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, events, s.cacheTTL); err != nil {
			logger.Warn("キャッシュの保存に失敗しました", zap.Error(err))
		}
	}
	return events, nil
}

func (s *CatalogService) current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// ListEvents は一覧を呼び出し時点の日付で並べ直し、条件で絞り込んで返す
func (s *CatalogService) ListEvents(opts FilterOptions) []*event.Event {
	now := s.now()
	return FilterEvents(SortEvents(s.current().Events(), now), opts, now)
}

// UpcomingEvents は今日以降のイベントを返す
func (s *CatalogService) UpcomingEvents(limit int) []*event.Event {
	return s.current().Upcoming(limit)
}

// PastEvents は過去のイベントを返す
func (s *CatalogService) PastEvents() []*event.Event {
	return s.current().Past()
}

// EventsByCategory はカテゴリで絞り込んだイベントを返す
func (s *CatalogService) EventsByCategory(category event.Category) []*event.Event {
	return SortEvents(s.current().ByCategory(category), s.now())
}

// GetEvent はIDでイベントを返す
func (s *CatalogService) GetEvent(id string) (*event.Event, error) {
	return s.current().ByID(id)
}

// EventIDs は全イベントのIDを返す
func (s *CatalogService) EventIDs() []string {
	return s.current().IDs()
}
