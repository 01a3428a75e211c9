package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	lineBreakTagPattern = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>|</h[1-6]>`)
	tagPattern          = regexp.MustCompile(`</?[A-Za-z!][^>]*>`)
	numericEntity       = regexp.MustCompile(`&#(x[0-9a-fA-F]+|[0-9]+);`)
	manyNewlines        = regexp.MustCompile(`\n{3,}`)
)

// 対応する名前付き文字参照
var namedEntities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#039;", "'",
	"&apos;", "'",
	"&hellip;", "…",
	"&ndash;", "–",
	"&mdash;", "—",
	"&yen;", "¥",
)

// StripHTML はタグを除去し文字参照をデコードする。
// 3行以上連続する改行は2行にまとめる。
// 変化がなくなるまで除去とデコードを繰り返すため、二度適用しても結果は変わらない。
func StripHTML(s string) string {
	s = lineBreakTagPattern.ReplaceAllString(s, "\n")
	for {
		next := decodeEntities(tagPattern.ReplaceAllString(s, ""))
		next = strings.ReplaceAll(next, "\r\n", "\n")
		if next == s {
			break
		}
		s = next
	}
	s = manyNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func decodeEntities(s string) string {
	s = namedEntities.Replace(s)
	return numericEntity.ReplaceAllStringFunc(s, func(m string) string {
		body := m[2 : len(m)-1]
		var (
			n   int64
			err error
		)
		if body[0] == 'x' {
			n, err = strconv.ParseInt(body[1:], 16, 32)
		} else {
			n, err = strconv.ParseInt(body, 10, 32)
		}
		if err != nil || n <= 0 || n > 0x10FFFF {
			return ""
		}
		return string(rune(n))
	})
}
