// Package htmlx holds the small amount of HTML text handling the bookmark
// codec needs: decoding a fixed set of entities and escaping titles, URLs
// and attribute values on output.
package htmlx

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxEntityLen bounds how far past '&' we look for the terminating ';'.
// The longest accepted form is "&#x10FFFF;".
const maxEntityLen = 10

var named = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": `"`,
	"apos": "'",
	"nbsp": "\u00a0",
}

// Decode replaces the named entities amp, lt, gt, quot, apos and nbsp and
// numeric references (&#NNN; and &#xHHHH;) with the characters they stand
// for. Anything else that looks like an entity is copied through unchanged.
func Decode(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}

		end := strings.IndexByte(s[i+1:min(len(s), i+1+maxEntityLen)], ';')
		if end < 0 {
			b.WriteByte('&')
			i++
			continue
		}

		body := s[i+1 : i+1+end]
		if r, ok := lookup(body); ok {
			b.WriteString(r)
			i += end + 2
			continue
		}

		b.WriteByte('&')
		i++
	}

	return b.String()
}

func lookup(body string) (string, bool) {
	if v, ok := named[body]; ok {
		return v, true
	}
	if len(body) < 2 || body[0] != '#' {
		return "", false
	}

	digits, base := body[1:], 10
	if digits[0] == 'x' || digits[0] == 'X' {
		digits, base = digits[1:], 16
	}
	if digits == "" {
		return "", false
	}

	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return "", false
	}
	r := rune(n)
	if r == 0 || !utf8.ValidRune(r) {
		return "", false
	}
	return string(r), true
}

// Line breaks are written as character references: readers drop raw ones.
var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\n", "&#10;", "\r", "&#13;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\n", "&#10;", "\r", "&#13;")
)

// EscapeText escapes &, <, > and line breaks for element content.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr escapes a value written inside a double-quoted attribute.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
