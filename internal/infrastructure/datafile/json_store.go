package datafile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

// snapshot は JSON スナップショットの形式
type snapshot struct {
	GeneratedAt string         `json:"generatedAt"`
	Count       int            `json:"count"`
	Events      []*event.Event `json:"events"`
}

// JSONStore は結合済みイベントを JSON ファイルに保存し、API 側で読み戻す
type JSONStore struct {
	path string
	now  func() time.Time
}

// NewJSONStore は JSONStore を作成する
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, now: time.Now}
}

// Name は書き出し先の名前を返す
func (s *JSONStore) Name() string {
	return "json"
}

// Path は保存先のパスを返す
func (s *JSONStore) Path() string {
	return s.path
}

// Write は一覧全体でファイルを置き換える
func (s *JSONStore) Write(ctx context.Context, events []*event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if events == nil {
		events = []*event.Event{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(snapshot{
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		Count:       len(events),
		Events:      events,
	})
	if err != nil {
		return fmt.Errorf("イベントのエンコードに失敗しました: %w", err)
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

// List は保存済みの一覧を返す
func (s *JSONStore) List(ctx context.Context) ([]*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("スナップショットの読み込みに失敗しました: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("スナップショットの解析に失敗しました: %w", err)
	}
	if snap.Events == nil {
		snap.Events = []*event.Event{}
	}
	return snap.Events, nil
}
