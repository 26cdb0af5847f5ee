package formatter

import (
	"unicode"
)

// maxNameWidth is the display width of the NAME column
const maxNameWidth = 30

// RuneWidth returns the display width of a rune
// ASCII characters have width 1, CJK characters have width 2
func RuneWidth(r rune) int {
	if r < 128 {
		return 1
	}

	if unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hangul, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) {
		return 2
	}

	return 1
}

// StringWidth returns the display width of a string
func StringWidth(s string) int {
	width := 0
	for _, r := range s {
		width += RuneWidth(r)
	}
	return width
}

// TruncateString cuts s to at most width display columns, marking the cut
// with "..."
func TruncateString(s string, width int) string {
	if StringWidth(s) <= width {
		return s
	}
	const ellipsis = "..."
	limit := width - len(ellipsis)
	if limit <= 0 {
		return ellipsis[:width]
	}

	used := 0
	for i, r := range s {
		w := RuneWidth(r)
		if used+w > limit {
			return s[:i] + ellipsis
		}
		used += w
	}
	return s
}
