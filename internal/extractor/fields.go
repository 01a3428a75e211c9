package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

// ExtractPrefecture は47都道府県の一覧順に部分一致を探し、最初に見つかったものを返す。
// 本文中の出現位置は考慮しない（複数の都道府県が書かれている場合は一覧で先のものが勝つ）
func ExtractPrefecture(text string) *string {
	for _, p := range event.Prefectures {
		if strings.Contains(text, p) {
			pref := p
			return &pref
		}
	}
	return nil
}

var locationPattern = regexp.MustCompile(`(?:会場|場所|開催地)\s*[:：]\s*([^\n]+)`)

// ExtractLocation は「会場:」などのラベルに続く行末までを会場として返す。
// ラベルがなければ都道府県、それもなければ nil
func ExtractLocation(text string, prefecture *string) *string {
	if m := locationPattern.FindStringSubmatch(text); m != nil {
		if loc := strings.TrimSpace(m[1]); loc != "" {
			return &loc
		}
	}
	if prefecture != nil {
		loc := *prefecture
		return &loc
	}
	return nil
}

var (
	feePattern  = regexp.MustCompile(`(?:参加費|エントリー費|エントリーフィー|参加料|費用)\s*[:：]?\s*(?:[¥￥]\s*)?([0-9０-９][0-9０-９,，]*)\s*円?`)
	freePattern = regexp.MustCompile(`(?i)無料|free`)
	digitWidth  = strings.NewReplacer(
		"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
		"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
		",", "", "，", "",
	)
)

// FreeEntry は参加費が無料の場合の表記
const FreeEntry = "無料"

// ExtractEntryFee は参加費を「¥3,000」形式で返す。無料表記なら「無料」、見つからなければ nil
func ExtractEntryFee(text string) *string {
	if m := feePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(digitWidth.Replace(m[1])); err == nil {
			fee := "¥" + groupThousands(n)
			return &fee
		}
	}
	if freePattern.MatchString(text) {
		fee := FreeEntry
		return &fee
	}
	return nil
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// levelRule はレベルとキーワードの組。キーワードは小文字で持つ
type levelRule struct {
	level    event.Level
	keywords []string
}

var levelRules = []levelRule{
	{event.LevelBeginner, []string{"初心者", "初級", "ビギナー", "beginner", "未経験"}},
	{event.LevelIntermediate, []string{"中級", "intermediate"}},
	{event.LevelAdvanced, []string{"上級", "advanced", "競技者"}},
	{event.LevelOpen, []string{"オープン", "open", "どなたでも", "レベル不問"}},
}

// ExtractLevel はキーワードから対象レベルを判定する。該当しなければ unknown
func ExtractLevel(text string) event.Level {
	lower := strings.ToLower(text)
	for _, r := range levelRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.level
			}
		}
	}
	return event.LevelUnknown
}
