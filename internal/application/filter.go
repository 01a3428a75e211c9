package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

// FilterAll はその条件で絞り込まないことを表す
const FilterAll = "all"

// 開催時期の絞り込み値
const (
	DateRangeThisMonth     = "this-month"
	DateRangeNextMonth     = "next-month"
	DateRangeWithin3Months = "within-3-months"
	DateRangePast          = "past"
)

// DUPR反映の絞り込み値
const (
	DuprReflected    = "true"
	DuprNotReflected = "false"
)

// FilterOptions はイベント一覧の絞り込み条件。各項目が "all" のときは絞り込まない
type FilterOptions struct {
	Category   string
	Level      string
	Prefecture string
	DateRange  string
	Dupr       string
	Format     string
	Source     string
	// Search は空文字のとき絞り込まない
	Search string
}

// DefaultFilterOptions はすべて "all" の条件を返す
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		Category:   FilterAll,
		Level:      FilterAll,
		Prefecture: FilterAll,
		DateRange:  FilterAll,
		Dupr:       FilterAll,
		Format:     FilterAll,
		Source:     FilterAll,
	}
}

// FilterEvents は条件をすべて満たすイベントだけを返す（AND条件）
func FilterEvents(events []*event.Event, opts FilterOptions, now time.Time) []*event.Event {
	preds := opts.predicates(now)
	out := make([]*event.Event, 0, len(events))
	for _, e := range events {
		if matchAll(e, preds) {
			out = append(out, e)
		}
	}
	return out
}

type predicate func(e *event.Event) bool

func matchAll(e *event.Event, preds []predicate) bool {
	for _, p := range preds {
		if !p(e) {
			return false
		}
	}
	return true
}

func (o FilterOptions) predicates(now time.Time) []predicate {
	return []predicate{
		equalsOrAll(o.Category, func(e *event.Event) string { return string(e.Category) }),
		equalsOrAll(o.Level, func(e *event.Event) string { return string(e.Level) }),
		equalsOrAll(o.Prefecture, func(e *event.Event) string {
			if e.Prefecture == nil {
				return ""
			}
			return *e.Prefecture
		}),
		dateRange(o.DateRange, now),
		dupr(o.Dupr),
		format(o.Format),
		equalsOrAll(o.Source, func(e *event.Event) string { return string(e.Source) }),
		search(o.Search),
	}
}

func isAll(v string) bool {
	return v == "" || v == FilterAll
}

func pass(*event.Event) bool { return true }

func equalsOrAll(want string, get func(e *event.Event) string) predicate {
	if isAll(want) {
		return pass
	}
	return func(e *event.Event) bool { return get(e) == want }
}

func dateRange(v string, now time.Time) predicate {
	if isAll(v) {
		return pass
	}
	local := now.In(event.JST)
	today := local.Format(event.DateLayout)
	thisMonth := monthPrefix(local)
	nextMonth := monthPrefix(time.Date(local.Year(), local.Month()+1, 1, 0, 0, 0, 0, event.JST))
	limit := addMonthsClamped(local, 3).Format(event.DateLayout)

	return func(e *event.Event) bool {
		d := e.DateValue()
		if d == "" {
			return false
		}
		switch v {
		case DateRangeThisMonth:
			return strings.HasPrefix(d, thisMonth)
		case DateRangeNextMonth:
			return strings.HasPrefix(d, nextMonth)
		case DateRangeWithin3Months:
			return d >= today && d <= limit
		case DateRangePast:
			return d < today
		}
		return false
	}
}

// addMonthsClamped は n か月後の同日を返す。該当日がなければその月の末日にする（11/30 → 2/28）
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(t.Day(), lastDay)-1)
}

func monthPrefix(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-", t.Year(), int(t.Month()))
}

func dupr(v string) predicate {
	if isAll(v) {
		return pass
	}
	return func(e *event.Event) bool {
		if e.DuprReflected == nil {
			return false
		}
		switch v {
		case DuprReflected:
			return *e.DuprReflected
		case DuprNotReflected:
			return !*e.DuprReflected
		}
		return false
	}
}

func format(v string) predicate {
	if isAll(v) {
		return pass
	}
	f := event.Format(v)
	return func(e *event.Event) bool { return e.HasFormat(f) }
}

func search(q string) predicate {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return pass
	}
	return func(e *event.Event) bool {
		parts := []string{e.Title, e.Description}
		if e.Location != nil {
			parts = append(parts, *e.Location)
		}
		if e.Prefecture != nil {
			parts = append(parts, *e.Prefecture)
		}
		return strings.Contains(strings.ToLower(strings.Join(parts, " ")), q)
	}
}
