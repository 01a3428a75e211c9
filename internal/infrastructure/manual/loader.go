// Package manual は手動で管理するイベント一覧（JSON）を読み込む
package manual

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
	"github.com/sanosuguru/go-pickleball-events/internal/pkg/logger"
)

// manualIDNamespace はIDのない手動レコードに決定的なIDを振るための名前空間
var manualIDNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e3a-9c0f-2d8b1a7e6c54")

// record は手動ファイルの1件。すべての項目が省略可能
type record struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	EventDate           *string  `json:"eventDate"`
	EventEndDate        *string  `json:"eventEndDate"`
	Location            *string  `json:"location"`
	Prefecture          *string  `json:"prefecture"`
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
	Category            string   `json:"category"`
	Level               string   `json:"level"`
	Format              []string `json:"format"`
	EntryFee            *string  `json:"entryFee"`
	RegistrationStatus  string   `json:"registrationStatus"`
	RegistrationURL     *string  `json:"registrationUrl"`
	MaxParticipants     *int     `json:"maxParticipants"`
	CurrentParticipants *int     `json:"currentParticipants"`
	Source              string   `json:"source"`
	SourceURL           string   `json:"sourceUrl"`
	SourceEventID       *string  `json:"sourceEventId"`
	PublishedAt         string   `json:"publishedAt"`
	DuprReflected       *bool    `json:"duprReflected"`
}

// Loader は手動イベントファイルを読み込む
type Loader struct {
	path     string
	validate *validator.Validate
}

// NewLoader は Loader を作成する
func NewLoader(path string) *Loader {
	return &Loader{path: path, validate: validator.New()}
}

// Load はファイルを読み込みイベントに正規化する。
// ファイルがない・壊れている場合は警告を出して空を返す（エラーにはしない）
func (l *Loader) Load(fetchedAt time.Time) []*event.Event {
	log := logger.With(zap.String("path", l.path))

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("手動イベントファイルが見つかりません")
		} else {
			log.Warn("手動イベントファイルを読み込めません", zap.Error(err))
		}
		return []*event.Event{}
	}

	raws, err := splitRecords(data)
	if err != nil {
		log.Warn("手動イベントファイルの形式が不正です", zap.Error(err))
		return []*event.Event{}
	}

	events := make([]*event.Event, 0, len(raws))
	for i, raw := range raws {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			log.Warn("手動イベントをスキップしました", zap.Int("index", i), zap.Error(err))
			continue
		}
		events = append(events, l.normalize(r, fetchedAt))
	}
	return events
}

// splitRecords は配列、または {"events": [...]} のどちらの形式も受け付ける
func splitRecords(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	var raws []json.RawMessage
	if len(data) > 0 && data[0] == '{' {
		var wrapper struct {
			Events []json.RawMessage `json:"events"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, err
		}
		return wrapper.Events, nil
	}
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

func (l *Loader) normalize(r record, fetchedAt time.Time) *event.Event {
	fetched := fetchedAt.UTC().Format(time.RFC3339)

	e := &event.Event{
		ID:                  strings.TrimSpace(r.ID),
		Title:               r.Title,
		Description:         r.Description,
		EventDate:           validDate(r.EventDate),
		EventEndDate:        validDate(r.EventEndDate),
		Location:            nonEmpty(r.Location),
		Prefecture:          validPrefecture(r.Prefecture),
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		Category:            event.ParseCategory(r.Category),
		Level:               event.ParseLevel(r.Level),
		Format:              normalizeFormats(r.Format),
		EntryFee:            nonEmpty(r.EntryFee),
		RegistrationStatus:  event.ParseRegistrationStatus(r.RegistrationStatus),
		RegistrationURL:     l.validURL(r.RegistrationURL),
		MaxParticipants:     r.MaxParticipants,
		CurrentParticipants: r.CurrentParticipants,
		Source:              event.Source(r.Source),
		SourceURL:           strings.TrimSpace(r.SourceURL),
		SourceEventID:       nonEmpty(r.SourceEventID),
		PublishedAt:         r.PublishedAt,
		FetchedAt:           fetched,
		DuprReflected:       r.DuprReflected,
	}
	if !event.IsValidSource(e.Source) {
		e.Source = event.SourceManual
	}
	if e.PublishedAt == "" {
		e.PublishedAt = fetched
	}
	if e.ID == "" {
		e.ID = deriveID(r)
	}
	return e
}

// deriveID はタイトル・開催日・元URLから決定的なIDを作る
func deriveID(r record) string {
	date := ""
	if r.EventDate != nil {
		date = *r.EventDate
	}
	name := fmt.Sprintf("%s|%s|%s", r.Title, date, r.SourceURL)
	return "manual-" + uuid.NewSHA1(manualIDNamespace, []byte(name)).String()
}

func (l *Loader) validURL(s *string) *string {
	v := nonEmpty(s)
	if v == nil {
		return nil
	}
	if err := l.validate.Var(*v, "url"); err != nil {
		return nil
	}
	return v
}

func validDate(s *string) *string {
	v := nonEmpty(s)
	if v == nil || !event.IsValidDate(*v) {
		return nil
	}
	return v
}

func validPrefecture(s *string) *string {
	v := nonEmpty(s)
	if v == nil || !event.IsPrefecture(*v) {
		return nil
	}
	return v
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeFormats(in []string) []event.Format {
	out := make([]event.Format, 0, len(in))
	seen := make(map[event.Format]bool, len(in))
	for _, s := range in {
		f := event.ParseFormat(s)
		if f == event.FormatUnknown || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return []event.Format{event.FormatUnknown}
	}
	return out
}
