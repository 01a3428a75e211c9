package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("別の取り込みが実行中のためロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// IngestLockKey は取り込みパイプラインの実行ロックのキー
const IngestLockKey = "lock:ingest"

// 所有者確認と削除をアトミックに実行する
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// RunLock はパイプラインの同時実行を防ぐロック。TTL 経過後は自動的に解放される
type RunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRunLock は RunLock を作成する
func NewRunLock(client *redis.Client, key string, ttl time.Duration) *RunLock {
	return &RunLock{client: client, key: key, ttl: ttl}
}

// Acquire はロックを取得し、解放用の関数を返す。
// 他のプロセスが保持している場合は ErrLockNotAcquired を返す
func (l *RunLock) Acquire(ctx context.Context) (func(ctx context.Context) error, error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return func(ctx context.Context) error {
		result, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
		if err != nil {
			return fmt.Errorf("ロック解放に失敗: %w", err)
		}
		if result == 0 {
			return ErrLockNotOwned
		}
		return nil
	}, nil
}
