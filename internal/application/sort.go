package application

import (
	"sort"
	"time"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

// SortEvents は表示順に並べた新しいスライスを返す。
// 今日以降の開催日を昇順 → 開催日未定 → 過去の開催日を降順、の順。同じ日付の順序は保たれる
func SortEvents(events []*event.Event, now time.Time) []*event.Event {
	today := event.Today(now)

	upcoming := make([]*event.Event, 0, len(events))
	var undated, past []*event.Event
	for _, e := range events {
		switch d := e.DateValue(); {
		case d == "":
			undated = append(undated, e)
		case d >= today:
			upcoming = append(upcoming, e)
		default:
			past = append(past, e)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DateValue() < upcoming[j].DateValue()
	})
	sort.SliceStable(past, func(i, j int) bool {
		return past[i].DateValue() > past[j].DateValue()
	})

	out := append(upcoming, undated...)
	return append(out, past...)
}
