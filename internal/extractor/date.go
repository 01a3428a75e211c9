package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

// datePattern は日付パターンと、マッチ結果から年月日を組み立てる関数の組
type datePattern struct {
	name  string
	re    *regexp.Regexp
	build func(m []string, now time.Time) (year, month, day int)
}

// 評価順に並んだ日付パターン。最初にマッチしたものを採用する
var datePatterns = []datePattern{
	{
		name: "japanese_full",
		re:   regexp.MustCompile(`(\d{4})年\s*(\d{1,2})月\s*(\d{1,2})日`),
		build: func(m []string, _ time.Time) (int, int, int) {
			return atoi(m[1]), atoi(m[2]), atoi(m[3])
		},
	},
	{
		name: "numeric",
		re:   regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`),
		build: func(m []string, _ time.Time) (int, int, int) {
			return atoi(m[1]), atoi(m[2]), atoi(m[3])
		},
	},
	{
		name: "japanese_month_day",
		re:   regexp.MustCompile(`(\d{1,2})月\s*(\d{1,2})日`),
		build: func(m []string, now time.Time) (int, int, int) {
			return now.In(event.JST).Year(), atoi(m[1]), atoi(m[2])
		},
	},
}

// 期間表記（2026年3月5日〜6日、2026年3月5日～4月2日）
var dateRangePattern = regexp.MustCompile(`(\d{4})年\s*(\d{1,2})月\s*(\d{1,2})日[^〜～~\-\n]{0,6}[〜～~\-]\s*(?:(\d{4})年\s*)?(?:(\d{1,2})月\s*)?(\d{1,2})日`)

// ExtractEventDate は本文から開催日を抽出する。見つからなければ nil
func ExtractEventDate(text string, now time.Time) *string {
	for _, p := range datePatterns {
		if d, ok := p.match(text, now); ok {
			return &d
		}
	}
	return nil
}

func (p datePattern) match(text string, now time.Time) (string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	y, mo, d := p.build(m, now)
	return formatDate(y, mo, d)
}

// ExtractEventEndDate は開催日 start から始まる期間表記の終了日を返す。
// 申込期間など別の期間は無視する。start が nil か該当がなければ nil
func ExtractEventEndDate(text string, start *string) *string {
	if start == nil {
		return nil
	}
	for _, m := range dateRangePattern.FindAllStringSubmatch(text, -1) {
		from, ok := formatDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		if !ok || from != *start {
			continue
		}
		year, month := atoi(m[1]), atoi(m[2])
		if m[4] != "" {
			year = atoi(m[4])
		}
		if m[5] != "" {
			month = atoi(m[5])
		}
		end, ok := formatDate(year, month, atoi(m[6]))
		if !ok || end <= from {
			return nil
		}
		return &end
	}
	return nil
}

// formatDate はゼロ埋めした YYYY-MM-DD を返す。実在しない日付は ok=false
func formatDate(year, month, day int) (string, bool) {
	s := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	if !event.IsValidDate(s) {
		return "", false
	}
	return s, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
