package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-pickleball-events/internal/pkg/logger"
)

// CatalogLoader はイベント一覧を読み直すインターフェース
type CatalogLoader interface {
	Reload(ctx context.Context) (int, error)
}

// CatalogReloader は生成済みイベント一覧を定期的に読み直すワーカー
type CatalogReloader struct {
	catalog  CatalogLoader
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewCatalogReloader は新しいリローダーを作成
func NewCatalogReloader(catalog CatalogLoader, interval time.Duration) *CatalogReloader {
	return &CatalogReloader{
		catalog:  catalog,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はリローダーを開始。ctx のキャンセルか Stop で戻る。interval が0以下なら即座に戻る
func (r *CatalogReloader) Start(ctx context.Context) {
	defer close(r.doneCh)
	if r.interval <= 0 {
		logger.Info("再読み込み間隔が0のためイベント一覧リローダーを起動しません")
		return
	}
	logger.Info("イベント一覧リローダー開始", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("イベント一覧リローダー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("イベント一覧リローダー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.reload(ctx)
		}
	}
}

// Stop はリローダーを停止し、Start の終了を待つ
func (r *CatalogReloader) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *CatalogReloader) reload(ctx context.Context) {
	log := logger.Get()

	count, err := r.catalog.Reload(ctx)
	if err != nil {
		// 読み込みに失敗しても前回の一覧で応答を続ける
		log.Error("イベント一覧の再読み込み失敗", zap.Error(err))
		return
	}
	log.Debug("イベント一覧を再読み込み", zap.Int("count", count))
}
