package application

import "github.com/sanosuguru/go-pickleball-events/internal/domain/event"

// MergeEvents は自動取得分と手動分を結合し、重複を除いて返す。
// キーは sourceUrl（空なら id）。キーが異なっても id が既出なら除外する。
// 先に現れたものが残るため、手動分は新しいキーと id だけが追加される
func MergeEvents(fetched, manual []*event.Event) (merged []*event.Event, dropped int) {
	merged = make([]*event.Event, 0, len(fetched)+len(manual))
	seenKeys := make(map[string]struct{}, len(fetched)+len(manual))
	seenIDs := make(map[string]struct{}, len(fetched)+len(manual))
	for _, list := range [][]*event.Event{fetched, manual} {
		for _, e := range list {
			if e == nil {
				continue
			}
			key := e.DedupKey()
			_, keyTaken := seenKeys[key]
			_, idTaken := seenIDs[e.ID]
			if keyTaken || idTaken {
				dropped++
				continue
			}
			seenKeys[key] = struct{}{}
			seenIDs[e.ID] = struct{}{}
			merged = append(merged, e)
		}
	}
	return merged, dropped
}
