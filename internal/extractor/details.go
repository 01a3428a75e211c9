package extractor

import (
	"regexp"
	"strings"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

var formatRules = []struct {
	format   event.Format
	keywords []string
}{
	{event.FormatSingles, []string{"シングルス", "singles"}},
	{event.FormatDoubles, []string{"ダブルス", "doubles"}},
	{event.FormatMixed, []string{"ミックス", "mixed"}},
}

// ExtractFormat は試合形式を抽出する。該当しなければ [unknown]
func ExtractFormat(text string) []event.Format {
	lower := strings.ToLower(text)
	var formats []event.Format
	for _, r := range formatRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				formats = append(formats, r.format)
				break
			}
		}
	}
	if len(formats) == 0 {
		return []event.Format{event.FormatUnknown}
	}
	return formats
}

var (
	closedKeywords = []string{"締切", "締め切り", "受付終了", "募集終了", "満員"}
	openKeywords   = []string{"受付中", "募集中", "エントリー受付", "申込受付"}
)

// ExtractRegistrationStatus は申込状況を判定する。締切の表記を優先する
func ExtractRegistrationStatus(text string) event.RegistrationStatus {
	for _, kw := range closedKeywords {
		if strings.Contains(text, kw) {
			return event.RegistrationClosed
		}
	}
	for _, kw := range openKeywords {
		if strings.Contains(text, kw) {
			return event.RegistrationOpen
		}
	}
	return event.RegistrationUnknown
}

var registrationURLPattern = regexp.MustCompile(`https?://(?:forms\.gle|docs\.google\.com/forms|[a-z0-9.-]*(?:entry|moshicom|tournament|peatix)[a-z0-9.-]*\.[a-z]+)[^\s"'<>]*`)

// ExtractRegistrationURL は申込フォームらしきURLを生のHTMLから探す。なければ nil
func ExtractRegistrationURL(html string) *string {
	if u := registrationURLPattern.FindString(html); u != "" {
		return &u
	}
	return nil
}

var duprExcluded = regexp.MustCompile(`(?i)dupr\s*(?:対象外|非対象|反映なし|反映されません)`)

// ExtractDuprReflected はDUPR反映の有無を判定する。言及がなければ nil
func ExtractDuprReflected(text string) *bool {
	var v bool
	switch {
	case duprExcluded.MatchString(text):
		v = false
	case strings.Contains(strings.ToLower(text), "dupr"):
		v = true
	default:
		return nil
	}
	return &v
}

var participantsPattern = regexp.MustCompile(`(?:定員|募集人数|募集数)\s*[:：]?\s*(?:最大)?\s*([0-9０-９]+)\s*(?:名|組|人|チーム)`)

// ExtractMaxParticipants は定員を抽出する。見つからなければ nil
func ExtractMaxParticipants(text string) *int {
	m := participantsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n := atoi(digitWidth.Replace(m[1]))
	if n <= 0 {
		return nil
	}
	return &n
}
