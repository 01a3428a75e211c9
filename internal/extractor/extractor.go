// Package extractor は自由記述のテキストからイベント項目を取り出す。
// どの関数もパニックせず、抽出できない項目は nil または unknown になる。
package extractor

import (
	"strconv"
	"strings"
	"time"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

const descriptionMaxRunes = 200

// Extractor は取得した投稿をイベントに変換する
type Extractor struct {
	categories *CategoryResolver
	source     event.Source
	now        func() time.Time
}

// New は Extractor を作成する
func New(categories *CategoryResolver, source event.Source, now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{categories: categories, source: source, now: now}
}

// FromPost は1件の投稿からイベントを組み立てる
func (x *Extractor) FromPost(post event.RawPost, fetchedAt time.Time) *event.Event {
	title := StripHTML(post.Title)
	excerpt := StripHTML(post.Excerpt)
	content := StripHTML(post.Content)
	text := strings.Join([]string{title, excerpt, content}, "\n")

	prefecture := ExtractPrefecture(text)
	sourceID := strconv.Itoa(post.ID)

	eventDate := ExtractEventDate(text, x.now())

	description := excerpt
	if description == "" {
		description = content
	}

	return &event.Event{
		ID:                 string(x.source) + "-" + sourceID,
		Title:              title,
		Description:        truncateRunes(description, descriptionMaxRunes),
		EventDate:          eventDate,
		EventEndDate:       ExtractEventEndDate(text, eventDate),
		Location:           ExtractLocation(text, prefecture),
		Prefecture:         prefecture,
		Category:           x.categories.Resolve(post.Categories),
		Level:              ExtractLevel(text),
		Format:             ExtractFormat(text),
		EntryFee:           ExtractEntryFee(text),
		RegistrationStatus: ExtractRegistrationStatus(text),
		RegistrationURL:    ExtractRegistrationURL(post.Content),
		MaxParticipants:    ExtractMaxParticipants(text),
		Source:             x.source,
		SourceURL:          post.Link,
		SourceEventID:      &sourceID,
		PublishedAt:        post.Date,
		FetchedAt:          fetchedAt.UTC().Format(time.RFC3339),
		DuprReflected:      ExtractDuprReflected(text),
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
