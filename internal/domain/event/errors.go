package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound    = errors.New("イベントが見つかりません")
	ErrEventIDMissing   = errors.New("イベントIDは必須です")
	ErrInvalidDate      = errors.New("開催日は YYYY-MM-DD 形式である必要があります")
	ErrInvalidPref      = errors.New("都道府県が47都道府県に含まれていません")
	ErrDuplicateEventID = errors.New("イベントIDが重複しています")
)
