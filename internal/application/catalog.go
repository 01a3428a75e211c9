package application

import (
	"sort"
	"time"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

// Catalog は生成済みイベント一覧に対する参照用アクセサ。
// 生成されるデータモジュールの getEvents などと同じ振る舞いをする
type Catalog struct {
	events []*event.Event
	byID   map[string]*event.Event
	now    func() time.Time
}

// NewCatalog は Catalog を作成する
func NewCatalog(events []*event.Event, now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}
	byID := make(map[string]*event.Event, len(events))
	for _, e := range events {
		if _, ok := byID[e.ID]; !ok {
			byID[e.ID] = e
		}
	}
	return &Catalog{events: events, byID: byID, now: now}
}

// Events は全イベントを返す
func (c *Catalog) Events() []*event.Event {
	out := make([]*event.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Len はイベント件数を返す
func (c *Catalog) Len() int {
	return len(c.events)
}

// Upcoming は今日以降のイベントを開催日の昇順で返す。limit が正なら件数を制限する
func (c *Catalog) Upcoming(limit int) []*event.Event {
	today := event.Today(c.now())
	var out []*event.Event
	for _, e := range c.events {
		if d := e.DateValue(); d != "" && d >= today {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateValue() < out[j].DateValue() })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Past は今日より前のイベントを開催日の降順で返す
func (c *Catalog) Past() []*event.Event {
	today := event.Today(c.now())
	var out []*event.Event
	for _, e := range c.events {
		if d := e.DateValue(); d != "" && d < today {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateValue() > out[j].DateValue() })
	return out
}

// ByCategory は指定カテゴリのイベントを返す
func (c *Catalog) ByCategory(category event.Category) []*event.Event {
	var out []*event.Event
	for _, e := range c.events {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// ByID はIDでイベントを引く
func (c *Catalog) ByID(id string) (*event.Event, error) {
	e, ok := c.byID[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	return e, nil
}

// IDs は全イベントのIDを返す
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.events))
	for i, e := range c.events {
		ids[i] = e.ID
	}
	return ids
}
