package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// CatalogCacheKey はイベント一覧のキャッシュキー
const CatalogCacheKey = "events:all"

// EventCache はイベント一覧のキャッシュを管理する
type EventCache struct {
	client *redis.Client
	key    string
}

// NewEventCache は新しいEventCacheインスタンスを作成する
func NewEventCache(client *redis.Client, key string) *EventCache {
	return &EventCache{client: client, key: key}
}

// Get はキャッシュ済みの一覧を返す。存在しない場合は ErrCacheMiss
func (c *EventCache) Get(ctx context.Context) ([]*event.Event, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var events []*event.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("キャッシュの解析に失敗: %w", err)
	}
	return events, nil
}

// Set は一覧をキャッシュに保存する
func (c *EventCache) Set(ctx context.Context, events []*event.Event, ttl time.Duration) error {
	if events == nil {
		events = []*event.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("キャッシュのエンコードに失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はキャッシュを無効化する
func (c *EventCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}
