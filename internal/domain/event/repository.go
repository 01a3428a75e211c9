package event

import "context"

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// ReplaceAll は保存済みのイベントをすべて置き換える
	ReplaceAll(ctx context.Context, events []*Event) error

	// Upsert はイベントを追加・更新する（削除は行わない）
	Upsert(ctx context.Context, events []*Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// List はイベント一覧を取得する
	List(ctx context.Context) ([]*Event, error)
}
