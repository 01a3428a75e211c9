package event

import (
	"strings"
	"time"
)

// Category はイベント種別を表す
type Category string

const (
	CategoryTournament    Category = "tournament"
	CategoryExperience    Category = "experience"
	CategoryWorkshop      Category = "workshop"
	CategoryCertification Category = "certification"
	CategoryOther         Category = "other"
)

// Level は対象レベルを表す
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelOpen         Level = "open"
	LevelUnknown      Level = "unknown"
)

// Format は試合形式を表す
type Format string

const (
	FormatSingles Format = "singles"
	FormatDoubles Format = "doubles"
	FormatMixed   Format = "mixed"
	FormatUnknown Format = "unknown"
)

// RegistrationStatus は申込受付状況を表す
type RegistrationStatus string

const (
	RegistrationOpen    RegistrationStatus = "open"
	RegistrationClosed  RegistrationStatus = "closed"
	RegistrationUnknown RegistrationStatus = "unknown"
)

// Source はイベントの取得元を表す
type Source string

const (
	SourceJPA    Source = "jpa"
	SourceManual Source = "manual"
)

// DateLayout はイベント日付の文字列形式（YYYY-MM-DD）
const DateLayout = "2006-01-02"

// JST は日本標準時。「今日」の判定はすべてこのタイムゾーンで行う
var JST = time.FixedZone("JST", 9*60*60)

// Event はイベントエンティティを表す
type Event struct {
	ID                  string             `json:"id"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	EventDate           *string            `json:"eventDate"`
	EventEndDate        *string            `json:"eventEndDate,omitempty"`
	Location            *string            `json:"location"`
	Prefecture          *string            `json:"prefecture"`
	Latitude            *float64           `json:"latitude,omitempty"`
	Longitude           *float64           `json:"longitude,omitempty"`
	Category            Category           `json:"category"`
	Level               Level              `json:"level"`
	Format              []Format           `json:"format"`
	EntryFee            *string            `json:"entryFee"`
	RegistrationStatus  RegistrationStatus `json:"registrationStatus"`
	RegistrationURL     *string            `json:"registrationUrl"`
	MaxParticipants     *int               `json:"maxParticipants"`
	CurrentParticipants *int               `json:"currentParticipants"`
	Source              Source             `json:"source"`
	SourceURL           string             `json:"sourceUrl"`
	SourceEventID       *string            `json:"sourceEventId"`
	PublishedAt         string             `json:"publishedAt"`
	FetchedAt           string             `json:"fetchedAt"`
	DuprReflected       *bool              `json:"duprReflected"`
}

// DedupKey は重複排除に使うキーを返す（sourceUrl があればそれ、なければ id）
func (e *Event) DedupKey() string {
	if u := strings.TrimSpace(e.SourceURL); u != "" {
		return u
	}
	return e.ID
}

// DateValue は開催日を返す。未定の場合は空文字
func (e *Event) DateValue() string {
	if e.EventDate == nil {
		return ""
	}
	return *e.EventDate
}

// HasFormat は指定した試合形式を含むかを返す
func (e *Event) HasFormat(f Format) bool {
	for _, v := range e.Format {
		if v == f {
			return true
		}
	}
	return false
}

// RawPost は取得元APIから得た未加工の投稿レコード
type RawPost struct {
	ID         int
	Title      string
	Excerpt    string
	Content    string
	Categories []int
	Date       string
	Link       string
}

// Today は now を日本時間に変換した日付（YYYY-MM-DD）を返す
func Today(now time.Time) string {
	return now.In(JST).Format(DateLayout)
}

// IsValidDate は s が実在する YYYY-MM-DD 形式の日付かを返す
func IsValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ParseCategory は文字列をCategoryに変換する。該当しない場合は other
func ParseCategory(s string) Category {
	switch c := Category(s); c {
	case CategoryTournament, CategoryExperience, CategoryWorkshop, CategoryCertification, CategoryOther:
		return c
	}
	return CategoryOther
}

// ParseLevel は文字列をLevelに変換する。該当しない場合は unknown
func ParseLevel(s string) Level {
	switch l := Level(s); l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelOpen, LevelUnknown:
		return l
	}
	return LevelUnknown
}

// ParseFormat は文字列をFormatに変換する。該当しない場合は unknown
func ParseFormat(s string) Format {
	switch f := Format(s); f {
	case FormatSingles, FormatDoubles, FormatMixed, FormatUnknown:
		return f
	}
	return FormatUnknown
}

// ParseRegistrationStatus は文字列をRegistrationStatusに変換する
func ParseRegistrationStatus(s string) RegistrationStatus {
	switch r := RegistrationStatus(s); r {
	case RegistrationOpen, RegistrationClosed, RegistrationUnknown:
		return r
	}
	return RegistrationUnknown
}

// IsValidSource は既知の取得元かを返す
func IsValidSource(s Source) bool {
	return s == SourceJPA || s == SourceManual
}

// Validate はイベントの不変条件を検証する
func (e *Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEventIDMissing
	}
	if e.EventDate != nil && !IsValidDate(*e.EventDate) {
		return ErrInvalidDate
	}
	if e.EventEndDate != nil && !IsValidDate(*e.EventEndDate) {
		return ErrInvalidDate
	}
	if e.Prefecture != nil && !IsPrefecture(*e.Prefecture) {
		return ErrInvalidPref
	}
	return nil
}
